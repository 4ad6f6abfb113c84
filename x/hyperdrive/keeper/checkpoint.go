package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/hyperdrive/metrics"
	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// Checkpoint mints the checkpoint for an elapsed bucket boundary and settles
// every position that matured at or before it. The operation is permissionless
// and idempotent.
func (k *Keeper) Checkpoint(ctx sdk.Context, checkpointTime uint64) (sharePrice, maturedLongs, maturedShorts hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
	}
	if checkpointTime%cfg.CheckpointDuration != 0 {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), types.ErrInvalidCheckpointTime.Wrapf(
			"%d is not a multiple of the checkpoint duration %d", checkpointTime, cfg.CheckpointDuration)
	}
	if checkpointTime > latestCheckpoint(ctx, cfg) {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), types.ErrInvalidCheckpointTime.Wrapf(
			"%d is in the future", checkpointTime)
	}

	cacheCtx, writeCache := ctx.CacheContext()
	sharePrice, maturedLongs, maturedShorts, err = k.applyCheckpoint(cacheCtx, cfg, checkpointTime)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
	}
	writeCache()

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeCheckpoint,
		sdk.NewAttribute(types.AttributeKeyCheckpointTime, strconv.FormatUint(checkpointTime, 10)),
		sdk.NewAttribute(types.AttributeKeySharePrice, sharePrice.String()),
		sdk.NewAttribute(types.AttributeKeyMaturedLongs, maturedLongs.String()),
		sdk.NewAttribute(types.AttributeKeyMaturedShorts, maturedShorts.String()),
	))
	return sharePrice, maturedLongs, maturedShorts, nil
}

// applyCheckpoint is the internal entry every trade funnels through. It mints
// the bucket's checkpoint if needed, settles matured positions and tops up
// the withdraw pool from the freed capital. Returns the bucket's share price.
func (k *Keeper) applyCheckpoint(ctx sdk.Context, cfg types.PoolConfig, bucket uint64) (hdmath.FixedPoint, hdmath.FixedPoint, hdmath.FixedPoint, error) {
	cp, found := k.GetCheckpoint(ctx, bucket)
	if found && cp.IsSet() {
		return cp.SharePrice, hdmath.Zero(), hdmath.Zero(), nil
	}

	sharePrice := k.vault.PricePerShare(ctx)
	cp.SharePrice = sharePrice
	if err := k.SetCheckpoint(ctx, bucket, cp); err != nil {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
	}

	state := k.GetMarketState(ctx)
	maturedLongs := hdmath.Zero()
	maturedShorts := hdmath.Zero()

	// Settle every bucket that matured at or before this one. This is the
	// only path that touches more than one checkpoint key per operation.
	for _, maturityTime := range k.openMaturitiesUpTo(ctx, bucket) {
		maturityPrice, err := k.maturityCheckpointPrice(ctx, maturityTime, sharePrice)
		if err != nil {
			return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
		}

		longs, shorts, err := k.settleMaturedBucket(ctx, cfg, &state, maturityTime, maturityPrice)
		if err != nil {
			return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
		}
		maturedLongs = maturedLongs.Add(longs)
		maturedShorts = maturedShorts.Add(shorts)
		k.removeOpenMaturity(ctx, maturityTime)
	}

	if err := validateMarketState(cfg, state); err != nil {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
	}

	pool := k.GetWithdrawPool(ctx)
	if err := k.distributeExcessIdle(ctx, cfg, &state, &pool, sharePrice); err != nil {
		return hdmath.Zero(), hdmath.Zero(), hdmath.Zero(), err
	}

	k.SetMarketState(ctx, state)
	k.SetWithdrawPool(ctx, pool)

	k.logger.Info("minted checkpoint",
		"checkpoint_time", bucket,
		"share_price", sharePrice.String(),
		"matured_longs", maturedLongs.String(),
		"matured_shorts", maturedShorts.String(),
	)
	metrics.RecordCheckpoint(maturedLongs, maturedShorts)
	return sharePrice, maturedLongs, maturedShorts, nil
}

// maturityCheckpointPrice returns the share price recorded for a matured
// bucket, minting its checkpoint with the current price when no operation
// ever touched it.
func (k *Keeper) maturityCheckpointPrice(ctx sdk.Context, maturityTime uint64, current hdmath.FixedPoint) (hdmath.FixedPoint, error) {
	cp, found := k.GetCheckpoint(ctx, maturityTime)
	if found && cp.IsSet() {
		return cp.SharePrice, nil
	}
	cp.SharePrice = current
	if err := k.SetCheckpoint(ctx, maturityTime, cp); err != nil {
		return hdmath.Zero(), err
	}
	return current, nil
}

// settleMaturedBucket closes the outstanding longs and shorts of a matured
// bucket flat at the maturity share price. Longs pull their par value out of
// the reserves; shorts pay theirs in. The positions stay on the ledger and
// are redeemed against the set-aside capital when their holders close.
func (k *Keeper) settleMaturedBucket(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	maturityPrice hdmath.FixedPoint,
) (hdmath.FixedPoint, hdmath.FixedPoint, error) {
	openTime := maturityTime - cfg.PositionDuration
	openCp, _ := k.GetCheckpoint(ctx, openTime)

	longs := k.ledger.TotalSupply(ctx, types.LongAssetID(maturityTime))
	if !longs.IsZero() {
		state.ShareReserves = state.ShareReserves.Sub(longs.DivDown(maturityPrice))
		state.LongAverageMaturityTime = hdmath.UpdateWeightedAverage(
			state.LongAverageMaturityTime, state.LongsOutstanding,
			hdmath.FromUint(maturityTime), longs, false,
		)
		if openCp.IsSet() {
			state.LongOpenSharePrice = hdmath.UpdateWeightedAverage(
				state.LongOpenSharePrice, state.LongsOutstanding,
				openCp.SharePrice, longs, false,
			)
		}
		state.LongsOutstanding = state.LongsOutstanding.Sub(longs)
		openCp.LongBaseVolume = hdmath.Zero()
	}

	shorts := k.ledger.TotalSupply(ctx, types.ShortAssetID(maturityTime))
	if !shorts.IsZero() {
		state.ShareReserves = state.ShareReserves.Add(shorts.DivDown(maturityPrice))
		state.ShortAverageMaturityTime = hdmath.UpdateWeightedAverage(
			state.ShortAverageMaturityTime, state.ShortsOutstanding,
			hdmath.FromUint(maturityTime), shorts, false,
		)
		state.ShortsOutstanding = state.ShortsOutstanding.Sub(shorts)
		state.ShortBaseVolume = state.ShortBaseVolume.SubOrZero(openCp.ShortBaseVolume)
		openCp.ShortBaseVolume = hdmath.Zero()
	}

	if !longs.IsZero() || !shorts.IsZero() {
		if err := k.SetCheckpoint(ctx, openTime, openCp); err != nil {
			return hdmath.Zero(), hdmath.Zero(), err
		}
	}
	return longs, shorts, nil
}
