package keeper

import (
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// EndBlocker mints the checkpoint covering the block time so matured
// positions settle on schedule even when no one trades.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		if errors.Is(err, types.ErrPoolNotInitialized) {
			return nil
		}
		return err
	}

	bucket := latestCheckpoint(ctx, cfg)
	if cp, found := k.GetCheckpoint(ctx, bucket); found && cp.IsSet() {
		return nil
	}
	if _, _, _, err := k.Checkpoint(ctx, bucket); err != nil {
		k.logger.Error("end block checkpoint failed", "checkpoint_time", bucket, "err", err)
		return err
	}
	return nil
}
