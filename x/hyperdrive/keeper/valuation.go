package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// averageTimeRemaining converts a weighted average maturity time (18-decimal
// scaled seconds) into a normalized fraction of the position duration as seen
// from the given bucket.
func averageTimeRemaining(cfg types.PoolConfig, avgMaturity hdmath.FixedPoint, bucket uint64) hdmath.FixedPoint {
	remaining := avgMaturity.SubOrZero(hdmath.FromUint(bucket))
	t := remaining.DivDown(hdmath.FromUint(cfg.PositionDuration))
	return hdmath.Min(t, hdmath.One())
}

// presentValueParams assembles the valuation snapshot for a staged state.
func presentValueParams(cfg types.PoolConfig, state types.MarketState, sharePrice hdmath.FixedPoint, bucket uint64) hdmath.PresentValueParams {
	return hdmath.PresentValueParams{
		ShareReserves:             state.ShareReserves,
		BondReserves:              state.BondReserves,
		SharePrice:                sharePrice,
		InitialSharePrice:         cfg.InitialSharePrice,
		TimeStretch:               cfg.TimeStretch,
		MinimumShareReserves:      cfg.MinimumShareReserves,
		LongsOutstanding:          state.LongsOutstanding,
		LongAverageTimeRemaining:  averageTimeRemaining(cfg, state.LongAverageMaturityTime, bucket),
		ShortsOutstanding:         state.ShortsOutstanding,
		ShortAverageTimeRemaining: averageTimeRemaining(cfg, state.ShortAverageMaturityTime, bucket),
	}
}

// presentValue returns the pool's capital in shares for a staged state.
func (k *Keeper) presentValue(ctx sdk.Context, cfg types.PoolConfig, state types.MarketState, sharePrice hdmath.FixedPoint) (hdmath.FixedPoint, error) {
	bucket := latestCheckpoint(ctx, cfg)
	pv, err := hdmath.CalculatePresentValue(presentValueParams(cfg, state, sharePrice, bucket))
	if err != nil {
		return hdmath.Zero(), mapCurveErr(err)
	}
	return pv, nil
}

// activeLPSupply returns the LP shares that participate in the pool's profit
// and loss: active LP shares plus the withdrawal shares that have not been
// funded yet.
func (k *Keeper) activeLPSupply(ctx sdk.Context, pool types.WithdrawPool) hdmath.FixedPoint {
	lp := k.ledger.TotalSupply(ctx, types.AssetLP)
	withdrawal := k.ledger.TotalSupply(ctx, types.AssetWithdrawalShare)
	return lp.Add(withdrawal).SubOrZero(pool.ReadyToWithdraw)
}

// lpSharePrice returns the pool's present value per active LP share, zero
// before initialization.
func (k *Keeper) lpSharePrice(ctx sdk.Context, cfg types.PoolConfig, state types.MarketState, pool types.WithdrawPool, sharePrice hdmath.FixedPoint) (hdmath.FixedPoint, error) {
	supply := k.activeLPSupply(ctx, pool)
	if supply.IsZero() {
		return hdmath.Zero(), nil
	}
	pv, err := k.presentValue(ctx, cfg, state, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}
	return pv.DivDown(supply), nil
}

// spotRate returns the pool's fixed rate implied by the spot price:
// (1 - p) / (p * tau) with tau the annualized position duration.
func spotRate(cfg types.PoolConfig, state types.MarketState) hdmath.FixedPoint {
	p := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)
	return hdmath.One().Sub(p).DivDown(p.MulUp(cfg.AnnualizedPositionDuration()))
}

// idleCapital returns the share reserves above the minimum floor that are not
// backing open longs.
func idleCapital(cfg types.PoolConfig, state types.MarketState, sharePrice hdmath.FixedPoint) hdmath.FixedPoint {
	longBacking := state.LongsOutstanding.DivUp(sharePrice)
	return state.ShareReserves.SubOrZero(cfg.MinimumShareReserves.Add(longBacking))
}
