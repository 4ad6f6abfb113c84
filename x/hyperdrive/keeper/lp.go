package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/hyperdrive/metrics"
	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// initialBondReserves solves the bond reserves that price an empty pool at
// the target fixed rate: y = mu * z * (1 + r*tau)^(1/ts).
func initialBondReserves(cfg types.PoolConfig, shareReserves, targetRate hdmath.FixedPoint) hdmath.FixedPoint {
	growth := hdmath.One().Add(targetRate.MulDown(cfg.AnnualizedPositionDuration()))
	exponent := hdmath.One().DivDown(cfg.TimeStretch)
	return cfg.InitialSharePrice.MulDown(shareReserves).MulDown(growth.Pow(exponent))
}

// Initialize seeds an empty pool with its first liquidity, pricing the bond
// reserves at the provider's target rate. The minimum share reserves are
// locked permanently and excluded from the minted LP shares.
func (k *Keeper) Initialize(
	ctx sdk.Context,
	provider string,
	contribution, targetRate hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (lpShares hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), err
	}
	if contribution.LT(cfg.MinimumTransactionAmount) {
		return hdmath.Zero(), types.ErrBelowMinimumTransaction
	}
	state := k.GetMarketState(ctx)
	if !state.ShareReserves.IsZero() || !k.ledger.TotalSupply(ctx, types.AssetLP).IsZero() {
		return hdmath.Zero(), types.ErrPoolAlreadyInitialized
	}

	cacheCtx, writeCache := ctx.CacheContext()

	shares, sharePrice, err := k.vault.Deposit(cacheCtx, provider, contribution, asUnderlying)
	if err != nil {
		return hdmath.Zero(), err
	}
	if shares.LTE(cfg.MinimumShareReserves) {
		return hdmath.Zero(), types.ErrInsufficientLiquidity.Wrapf(
			"contribution %s does not cover the minimum share reserves %s",
			shares, cfg.MinimumShareReserves)
	}

	bucket := latestCheckpoint(cacheCtx, cfg)
	cp, _ := k.GetCheckpoint(cacheCtx, bucket)
	if !cp.IsSet() {
		cp.SharePrice = sharePrice
		if err := k.SetCheckpoint(cacheCtx, bucket, cp); err != nil {
			return hdmath.Zero(), err
		}
	}

	state.ShareReserves = shares
	state.BondReserves = initialBondReserves(cfg, shares, targetRate)
	if err := validateMarketState(cfg, state); err != nil {
		return hdmath.Zero(), err
	}

	lpShares = shares.Sub(cfg.MinimumShareReserves)
	if err := k.ledger.Mint(cacheCtx, types.AssetLP, destination, lpShares); err != nil {
		return hdmath.Zero(), err
	}
	k.SetMarketState(cacheCtx, state)
	writeCache()

	k.logger.Info("initialized pool",
		"provider", provider,
		"contribution", contribution.String(),
		"target_rate", targetRate.String(),
		"lp_shares", lpShares.String(),
	)
	metrics.RecordLiquidity("initialize", contribution)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeInitialize,
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyBaseAmount, contribution.String()),
		sdk.NewAttribute(types.AttributeKeyLPShares, lpShares.String()),
		sdk.NewAttribute(types.AttributeKeySharePrice, sharePrice.String()),
	))
	return lpShares, nil
}

// AddLiquidity mints LP shares at the pool's present value per share. The
// contribution is added to the reserves without moving the spot price.
func (k *Keeper) AddLiquidity(
	ctx sdk.Context,
	provider string,
	contribution, minAPR, maxAPR hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (lpShares hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), err
	}
	if contribution.LT(cfg.MinimumTransactionAmount) {
		return hdmath.Zero(), types.ErrBelowMinimumTransaction
	}

	cacheCtx, writeCache := ctx.CacheContext()

	bucket := latestCheckpoint(cacheCtx, cfg)
	if _, _, _, err := k.applyCheckpoint(cacheCtx, cfg, bucket); err != nil {
		return hdmath.Zero(), err
	}

	state := k.GetMarketState(cacheCtx)
	if state.ShareReserves.IsZero() {
		return hdmath.Zero(), types.ErrPoolNotInitialized
	}
	apr := spotRate(cfg, state)
	if apr.LT(minAPR) || apr.GT(maxAPR) {
		return hdmath.Zero(), types.ErrAprOutOfRange.Wrapf(
			"rate %s outside [%s, %s]", apr, minAPR, maxAPR)
	}

	shares, sharePrice, err := k.vault.Deposit(cacheCtx, provider, contribution, asUnderlying)
	if err != nil {
		return hdmath.Zero(), err
	}

	pool := k.GetWithdrawPool(cacheCtx)
	pv, err := k.presentValue(cacheCtx, cfg, state, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}
	if pv.IsZero() {
		return hdmath.Zero(), types.ErrNegativePresentValue.Wrap("pool has no capital")
	}
	// New shares buy in at the present value per active LP share.
	lpShares = shares.MulDivDown(k.activeLPSupply(cacheCtx, pool), pv)

	// Scale both reserves so the spot price is unchanged.
	newShareReserves := state.ShareReserves.Add(shares)
	state.BondReserves = state.BondReserves.MulDivDown(newShareReserves, state.ShareReserves)
	state.ShareReserves = newShareReserves
	if err := validateMarketState(cfg, state); err != nil {
		return hdmath.Zero(), err
	}

	if err := k.ledger.Mint(cacheCtx, types.AssetLP, destination, lpShares); err != nil {
		return hdmath.Zero(), err
	}
	k.SetMarketState(cacheCtx, state)
	writeCache()

	k.logger.Info("added liquidity",
		"provider", provider,
		"contribution", contribution.String(),
		"lp_shares", lpShares.String(),
	)
	metrics.RecordLiquidity("add", contribution)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeAddLiquidity,
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyBaseAmount, contribution.String()),
		sdk.NewAttribute(types.AttributeKeyLPShares, lpShares.String()),
	))
	return lpShares, nil
}

// RemoveLiquidity burns LP shares for a pro rata slice of the pool's present
// value. The slice is paid immediately out of idle capital; any shortfall is
// minted as withdrawal shares that redeem later as positions unwind.
func (k *Keeper) RemoveLiquidity(
	ctx sdk.Context,
	provider string,
	lpShares, minOutput hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (baseProceeds, withdrawalShares hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}
	if lpShares.LT(cfg.MinimumTransactionAmount) {
		return hdmath.Zero(), hdmath.Zero(), types.ErrBelowMinimumTransaction
	}

	cacheCtx, writeCache := ctx.CacheContext()

	bucket := latestCheckpoint(cacheCtx, cfg)
	if _, _, _, err := k.applyCheckpoint(cacheCtx, cfg, bucket); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}

	state := k.GetMarketState(cacheCtx)
	if state.ShareReserves.IsZero() {
		return hdmath.Zero(), hdmath.Zero(), types.ErrPoolNotInitialized
	}
	pool := k.GetWithdrawPool(cacheCtx)
	sharePrice := k.vault.PricePerShare(cacheCtx)

	pv, err := k.presentValue(cacheCtx, cfg, state, sharePrice)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}
	supply := k.activeLPSupply(cacheCtx, pool)
	if supply.IsZero() || lpShares.GT(supply) {
		return hdmath.Zero(), hdmath.Zero(), types.ErrInvalidAmount.Wrap("lp shares exceed the active supply")
	}
	value := lpShares.MulDivDown(pv, supply)

	if err := k.ledger.Burn(cacheCtx, types.AssetLP, provider, lpShares); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}

	idle := idleCapital(cfg, state, sharePrice)
	paidShares := hdmath.Min(value, idle)
	shortfall := value.Sub(paidShares)
	withdrawalShares = hdmath.Zero()
	if !shortfall.IsZero() {
		// The unpaid slice converts into withdrawal shares at the same per
		// share value the paid slice received.
		withdrawalShares = lpShares.MulDivDown(shortfall, value)
		if err := k.ledger.Mint(cacheCtx, types.AssetWithdrawalShare, destination, withdrawalShares); err != nil {
			return hdmath.Zero(), hdmath.Zero(), err
		}
	}

	if !paidShares.IsZero() {
		newShareReserves := state.ShareReserves.Sub(paidShares)
		state.BondReserves = state.BondReserves.MulDivDown(newShareReserves, state.ShareReserves)
		state.ShareReserves = newShareReserves
	}
	if err := validateMarketState(cfg, state); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}

	baseProceeds = hdmath.Zero()
	if !paidShares.IsZero() {
		baseProceeds, err = k.vault.Withdraw(cacheCtx, destination, paidShares, asUnderlying)
		if err != nil {
			return hdmath.Zero(), hdmath.Zero(), err
		}
	}
	if baseProceeds.LT(minOutput) {
		return hdmath.Zero(), hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"proceeds %s below minimum %s", baseProceeds, minOutput)
	}

	k.SetMarketState(cacheCtx, state)
	writeCache()

	k.logger.Info("removed liquidity",
		"provider", provider,
		"lp_shares", lpShares.String(),
		"base_proceeds", baseProceeds.String(),
		"withdrawal_shares", withdrawalShares.String(),
	)
	metrics.RecordLiquidity("remove", baseProceeds)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeRemoveLiquidity,
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyLPShares, lpShares.String()),
		sdk.NewAttribute(types.AttributeKeyProceeds, baseProceeds.String()),
		sdk.NewAttribute(types.AttributeKeyWithdrawalShares, withdrawalShares.String()),
	))
	return baseProceeds, withdrawalShares, nil
}

// RedeemWithdrawalShares burns withdrawal shares against the capital the
// withdraw pool has accumulated. Redemption is partial when less capital is
// ready than the holder asks for.
func (k *Keeper) RedeemWithdrawalShares(
	ctx sdk.Context,
	provider string,
	shares, minOutputPerShare hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (baseProceeds, sharesRedeemed hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}
	if shares.IsZero() {
		return hdmath.Zero(), hdmath.Zero(), types.ErrInvalidAmount.Wrap("shares must be positive")
	}

	cacheCtx, writeCache := ctx.CacheContext()

	bucket := latestCheckpoint(cacheCtx, cfg)
	if _, _, _, err := k.applyCheckpoint(cacheCtx, cfg, bucket); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}

	// Pull in any capital freed since the last operation.
	state := k.GetMarketState(cacheCtx)
	pool := k.GetWithdrawPool(cacheCtx)
	sharePrice := k.vault.PricePerShare(cacheCtx)
	if err := k.distributeExcessIdle(cacheCtx, cfg, &state, &pool, sharePrice); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}

	sharesRedeemed = hdmath.Min(shares, pool.ReadyToWithdraw)
	if sharesRedeemed.IsZero() {
		return hdmath.Zero(), hdmath.Zero(), types.ErrNoWithdrawalCapacity
	}
	proceedsShares := pool.Proceeds.MulDivDown(sharesRedeemed, pool.ReadyToWithdraw)
	pool.Proceeds = pool.Proceeds.Sub(proceedsShares)
	pool.ReadyToWithdraw = pool.ReadyToWithdraw.Sub(sharesRedeemed)

	if err := k.ledger.Burn(cacheCtx, types.AssetWithdrawalShare, provider, sharesRedeemed); err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}
	baseProceeds, err = k.vault.Withdraw(cacheCtx, destination, proceedsShares, asUnderlying)
	if err != nil {
		return hdmath.Zero(), hdmath.Zero(), err
	}
	if baseProceeds.LT(sharesRedeemed.MulDown(minOutputPerShare)) {
		return hdmath.Zero(), hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"proceeds %s below %s per share", baseProceeds, minOutputPerShare)
	}

	k.SetMarketState(cacheCtx, state)
	k.SetWithdrawPool(cacheCtx, pool)
	writeCache()

	k.logger.Info("redeemed withdrawal shares",
		"provider", provider,
		"shares_redeemed", sharesRedeemed.String(),
		"base_proceeds", baseProceeds.String(),
	)
	metrics.RecordLiquidity("redeem", baseProceeds)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeRedeemWithdrawalShares,
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyWithdrawalShares, sharesRedeemed.String()),
		sdk.NewAttribute(types.AttributeKeyProceeds, baseProceeds.String()),
	))
	return baseProceeds, sharesRedeemed, nil
}

// distributeExcessIdle moves idle capital into the withdraw pool, marking
// unredeemed withdrawal shares ready at the current LP share price. The
// matching liquidity leaves the reserves without moving the spot price.
func (k *Keeper) distributeExcessIdle(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	pool *types.WithdrawPool,
	sharePrice hdmath.FixedPoint,
) error {
	withdrawalSupply := k.ledger.TotalSupply(ctx, types.AssetWithdrawalShare)
	unredeemed := withdrawalSupply.SubOrZero(pool.ReadyToWithdraw)
	if unredeemed.IsZero() {
		return nil
	}

	lpPrice, err := k.lpSharePrice(ctx, cfg, *state, *pool, sharePrice)
	if err != nil {
		return err
	}
	target := unredeemed.MulDown(lpPrice)
	idle := idleCapital(cfg, *state, sharePrice)
	amount := hdmath.Min(idle, target)
	if amount.IsZero() {
		return nil
	}

	var sharesReady hdmath.FixedPoint
	if amount.Equal(target) {
		sharesReady = unredeemed
	} else {
		sharesReady = amount.DivDown(lpPrice)
	}
	pool.ReadyToWithdraw = hdmath.Min(pool.ReadyToWithdraw.Add(sharesReady), withdrawalSupply)
	pool.Proceeds = pool.Proceeds.Add(amount)

	newShareReserves := state.ShareReserves.Sub(amount)
	state.BondReserves = state.BondReserves.MulDivDown(newShareReserves, state.ShareReserves)
	state.ShareReserves = newShareReserves
	return nil
}

// CollectGovernanceFees pays the accrued governance fees to the configured
// fee collector. Anyone can trigger the collection.
func (k *Keeper) CollectGovernanceFees(ctx sdk.Context) (proceeds hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), err
	}
	state := k.GetMarketState(ctx)
	if state.GovernanceFeesAccrued.IsZero() {
		return hdmath.Zero(), types.ErrNothingToCollect
	}

	cacheCtx, writeCache := ctx.CacheContext()
	feeShares := state.GovernanceFeesAccrued
	state.GovernanceFeesAccrued = hdmath.Zero()

	proceeds, err = k.vault.Withdraw(cacheCtx, cfg.FeeCollector, feeShares, true)
	if err != nil {
		return hdmath.Zero(), err
	}
	k.SetMarketState(cacheCtx, state)
	writeCache()

	k.logger.Info("collected governance fees",
		"collector", cfg.FeeCollector,
		"fee_shares", feeShares.String(),
		"proceeds", proceeds.String(),
	)
	metrics.RecordGovernanceCollection(proceeds)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeCollectGovernanceFees,
		sdk.NewAttribute(types.AttributeKeyCollector, cfg.FeeCollector),
		sdk.NewAttribute(types.AttributeKeyProceeds, proceeds.String()),
	))
	return proceeds, nil
}
