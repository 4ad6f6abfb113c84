package keeper

import (
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// recoverMathFault translates fixed point panics raised below the operation
// boundary into module errors. Every public keeper operation defers it so a
// math fault aborts the operation instead of the process.
func (k *Keeper) recoverMathFault(err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok {
		panic(r)
	}
	switch {
	case errors.Is(e, hdmath.ErrOverflow):
		*err = types.ErrArithmeticOverflow
	case errors.Is(e, hdmath.ErrUnderflow):
		*err = types.ErrArithmeticUnderflow
	case errors.Is(e, hdmath.ErrDivisionByZero):
		*err = types.ErrDivisionByZero
	case errors.Is(e, hdmath.ErrInvalidExponent), errors.Is(e, hdmath.ErrLnDomain):
		*err = types.ErrArithmeticOverflow.Wrap(e.Error())
	default:
		panic(r)
	}
}

// mapCurveErr converts curve-level errors into module errors.
func mapCurveErr(err error) error {
	if errors.Is(err, hdmath.ErrInsufficientReserves) {
		return types.ErrInsufficientLiquidity.Wrap(err.Error())
	}
	if errors.Is(err, hdmath.ErrNegativePresentValue) {
		return types.ErrNegativePresentValue
	}
	return err
}

// validateMarketState checks the solvency invariants on a staged state before
// it is committed.
func validateMarketState(cfg types.PoolConfig, state types.MarketState) error {
	z, y := state.ShareReserves, state.BondReserves
	if z.IsZero() != y.IsZero() {
		return types.ErrPoolDepleted.Wrapf("share reserves %s, bond reserves %s", z, y)
	}
	if z.IsZero() {
		return nil
	}
	if z.LT(cfg.MinimumShareReserves) {
		return types.ErrInsufficientLiquidity.Wrapf(
			"share reserves %s below minimum %s", z, cfg.MinimumShareReserves)
	}
	if state.LongsOutstanding.Add(state.ShortsOutstanding).GT(y) {
		return types.ErrInsufficientReserves.Wrapf(
			"outstanding %s exceeds bond reserves %s",
			state.LongsOutstanding.Add(state.ShortsOutstanding), y)
	}
	// The normalized spot price never exceeds one; a fixed rate below zero
	// would let longs be bought above par.
	if cfg.InitialSharePrice.MulDown(z).GT(y) {
		return types.ErrNegativeInterest.Wrapf(
			"spot price above one: mu*z = %s > %s = y", cfg.InitialSharePrice.MulDown(z), y)
	}
	return nil
}

// latestCheckpoint returns the checkpoint bucket containing the block time.
func latestCheckpoint(ctx sdk.Context, cfg types.PoolConfig) uint64 {
	return cfg.ToCheckpoint(uint64(ctx.BlockTime().Unix()))
}
