package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/hyperdrive/metrics"
	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// OpenLong buys bonds with base. The trader's deposit enters the share
// reserves, the bond payout is priced on the curve and the position matures
// one position duration after the current checkpoint.
func (k *Keeper) OpenLong(
	ctx sdk.Context,
	trader string,
	baseAmount, minOutput hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (maturityTime uint64, bondProceeds hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return 0, hdmath.Zero(), err
	}
	if baseAmount.LT(cfg.MinimumTransactionAmount) {
		return 0, hdmath.Zero(), types.ErrBelowMinimumTransaction
	}

	cacheCtx, writeCache := ctx.CacheContext()

	bucket := latestCheckpoint(cacheCtx, cfg)
	if _, _, _, err := k.applyCheckpoint(cacheCtx, cfg, bucket); err != nil {
		return 0, hdmath.Zero(), err
	}
	maturityTime = bucket + cfg.PositionDuration

	state := k.GetMarketState(cacheCtx)
	if state.ShareReserves.IsZero() {
		return 0, hdmath.Zero(), types.ErrPoolNotInitialized
	}

	shares, sharePrice, err := k.vault.Deposit(cacheCtx, trader, baseAmount, asUnderlying)
	if err != nil {
		return 0, hdmath.Zero(), err
	}

	spot := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)
	bondsBought, err := hdmath.BondsOutGivenSharesIn(
		state.ShareReserves, state.BondReserves, sharePrice, cfg.InitialSharePrice,
		cfg.TimeStretch, shares,
	)
	if err != nil {
		return 0, hdmath.Zero(), mapCurveErr(err)
	}

	curveFeeBonds := hdmath.OpenLongCurveFee(baseAmount, spot, cfg.Fees.Curve)
	govFeeShares := hdmath.OpenLongGovernanceFee(curveFeeBonds, spot, cfg.Fees.GovernanceLP, sharePrice)
	if bondsBought.LT(curveFeeBonds) {
		return 0, hdmath.Zero(), types.ErrInvalidAmount.Wrap("curve fee exceeds the bond payout")
	}
	bondProceeds = bondsBought.Sub(curveFeeBonds)
	if bondProceeds.LT(minOutput) {
		return 0, hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"bond proceeds %s below minimum %s", bondProceeds, minOutput)
	}

	// The deposit enters the reserves minus the governance slice; the pool
	// keeps the rest of the curve fee as bonds it never paid out.
	longsBefore := state.LongsOutstanding
	state.ShareReserves = state.ShareReserves.Add(shares).Sub(govFeeShares)
	state.BondReserves = state.BondReserves.Sub(bondProceeds)
	state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(govFeeShares)
	state.LongsOutstanding = longsBefore.Add(bondProceeds)
	state.LongAverageMaturityTime = hdmath.UpdateWeightedAverage(
		state.LongAverageMaturityTime, longsBefore,
		hdmath.FromUint(maturityTime), bondProceeds, true,
	)
	state.LongOpenSharePrice = hdmath.UpdateWeightedAverage(
		state.LongOpenSharePrice, longsBefore,
		sharePrice, bondProceeds, true,
	)

	// The ending spot price must stay under the fee-adjusted ceiling, or the
	// buyer would be lending at a negative rate after fees.
	endingSpot := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)
	if endingSpot.GT(hdmath.MaxOpenLongSpotPrice(spot, cfg.Fees.Curve, cfg.Fees.Flat)) {
		return 0, hdmath.Zero(), types.ErrNegativeInterest.Wrapf(
			"ending spot price %s exceeds the fee adjusted ceiling", endingSpot)
	}
	if err := validateMarketState(cfg, state); err != nil {
		return 0, hdmath.Zero(), err
	}

	cp, _ := k.GetCheckpoint(cacheCtx, bucket)
	cp.LongBaseVolume = cp.LongBaseVolume.Add(baseAmount)
	if err := k.SetCheckpoint(cacheCtx, bucket, cp); err != nil {
		return 0, hdmath.Zero(), err
	}

	if err := k.ledger.Mint(cacheCtx, types.LongAssetID(maturityTime), destination, bondProceeds); err != nil {
		return 0, hdmath.Zero(), err
	}
	k.addOpenMaturity(cacheCtx, maturityTime)
	k.SetMarketState(cacheCtx, state)
	writeCache()

	tradeID := uuid.New().String()
	k.logger.Info("opened long",
		"trade_id", tradeID,
		"trader", trader,
		"base_amount", baseAmount.String(),
		"bond_proceeds", bondProceeds.String(),
		"maturity_time", maturityTime,
	)
	metrics.RecordTrade("long", "open", baseAmount)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeOpenLong,
		sdk.NewAttribute(types.AttributeKeyTradeID, tradeID),
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyDestination, destination),
		sdk.NewAttribute(types.AttributeKeyBaseAmount, baseAmount.String()),
		sdk.NewAttribute(types.AttributeKeyBondAmount, bondProceeds.String()),
		sdk.NewAttribute(types.AttributeKeyMaturityTime, strconv.FormatUint(maturityTime, 10)),
	))
	return maturityTime, bondProceeds, nil
}

// CloseLong sells bonds back to the pool. Before maturity the close splits
// into a curve trade on the remaining time and a par settlement on the
// elapsed time; after maturity the position redeems against the capital set
// aside when its bucket was settled.
func (k *Keeper) CloseLong(
	ctx sdk.Context,
	trader string,
	maturityTime uint64,
	bondAmount, minOutput hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (baseProceeds hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return hdmath.Zero(), err
	}
	if bondAmount.LT(cfg.MinimumTransactionAmount) {
		return hdmath.Zero(), types.ErrBelowMinimumTransaction
	}

	cacheCtx, writeCache := ctx.CacheContext()

	bucket := latestCheckpoint(cacheCtx, cfg)
	if _, _, _, err := k.applyCheckpoint(cacheCtx, cfg, bucket); err != nil {
		return hdmath.Zero(), err
	}

	state := k.GetMarketState(cacheCtx)
	pool := k.GetWithdrawPool(cacheCtx)
	sharePrice := k.vault.PricePerShare(cacheCtx)
	timeRemaining := cfg.NormalizedTimeRemaining(maturityTime, bucket)

	var shareProceeds hdmath.FixedPoint
	if !timeRemaining.IsZero() {
		shareProceeds, err = k.closeOpenLong(cacheCtx, cfg, &state, maturityTime, bondAmount, timeRemaining, sharePrice)
	} else {
		shareProceeds, err = k.closeMaturedLong(cacheCtx, cfg, &state, maturityTime, bondAmount, sharePrice)
	}
	if err != nil {
		return hdmath.Zero(), err
	}
	if err := validateMarketState(cfg, state); err != nil {
		return hdmath.Zero(), err
	}
	if err := k.distributeExcessIdle(cacheCtx, cfg, &state, &pool, sharePrice); err != nil {
		return hdmath.Zero(), err
	}

	if err := k.ledger.Burn(cacheCtx, types.LongAssetID(maturityTime), trader, bondAmount); err != nil {
		return hdmath.Zero(), err
	}
	baseProceeds, err = k.vault.Withdraw(cacheCtx, destination, shareProceeds, asUnderlying)
	if err != nil {
		return hdmath.Zero(), err
	}
	if baseProceeds.LT(minOutput) {
		return hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"proceeds %s below minimum %s", baseProceeds, minOutput)
	}

	k.SetMarketState(cacheCtx, state)
	k.SetWithdrawPool(cacheCtx, pool)
	writeCache()

	tradeID := uuid.New().String()
	k.logger.Info("closed long",
		"trade_id", tradeID,
		"trader", trader,
		"bond_amount", bondAmount.String(),
		"base_proceeds", baseProceeds.String(),
		"maturity_time", maturityTime,
	)
	metrics.RecordTrade("long", "close", baseProceeds)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeCloseLong,
		sdk.NewAttribute(types.AttributeKeyTradeID, tradeID),
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyBondAmount, bondAmount.String()),
		sdk.NewAttribute(types.AttributeKeyProceeds, baseProceeds.String()),
		sdk.NewAttribute(types.AttributeKeyMaturityTime, strconv.FormatUint(maturityTime, 10)),
	))
	return baseProceeds, nil
}

// closeOpenLong prices an early close: the matured fraction settles at par
// and the rest is sold on the curve, with fees carved out of both legs.
func (k *Keeper) closeOpenLong(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount, timeRemaining, sharePrice hdmath.FixedPoint,
) (hdmath.FixedPoint, error) {
	spot := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)

	flatShares := bondAmount.MulDivDown(hdmath.One().Sub(timeRemaining), sharePrice)
	curveBonds := bondAmount.MulDown(timeRemaining)
	curveShares := hdmath.Zero()
	if !curveBonds.IsZero() {
		var err error
		curveShares, err = hdmath.SharesOutGivenBondsIn(
			state.ShareReserves, state.BondReserves, sharePrice, cfg.InitialSharePrice,
			cfg.TimeStretch, curveBonds,
		)
		if err != nil {
			return hdmath.Zero(), mapCurveErr(err)
		}
	}

	curveFee := hdmath.CloseLongCurveFee(bondAmount, timeRemaining, spot, cfg.Fees.Curve, sharePrice)
	flatFee := hdmath.CloseLongFlatFee(bondAmount, timeRemaining, cfg.Fees.Flat, sharePrice)
	govFee := cfg.Fees.GovernanceLP.MulDown(curveFee.Add(flatFee))

	gross := flatShares.Add(curveShares)
	totalFee := curveFee.Add(flatFee)
	if gross.LT(totalFee) {
		totalFee = gross
	}
	shareProceeds := gross.Sub(totalFee)

	// The payout leaves the share reserves; the pool keeps the fees minus
	// the governance slice.
	state.ShareReserves = state.ShareReserves.
		Sub(gross).
		Add(totalFee.SubOrZero(govFee))
	state.BondReserves = state.BondReserves.Add(curveBonds)
	state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(hdmath.Min(govFee, totalFee))

	k.applyCloseLongAccounting(ctx, cfg, state, maturityTime, bondAmount)
	return shareProceeds, nil
}

// closeMaturedLong redeems a long after its bucket settled. The reserves were
// already reduced at maturation, so only the flat fee and the zombie interest
// accrued past maturity touch the pool.
func (k *Keeper) closeMaturedLong(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount, sharePrice hdmath.FixedPoint,
) (hdmath.FixedPoint, error) {
	maturityPrice, err := k.maturityCheckpointPrice(ctx, maturityTime, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}

	// Par value in current shares.
	shareProceeds := bondAmount.DivDown(sharePrice)

	// Interest the set-aside capital earned after maturity belongs to the
	// pool, minus the governance zombie slice.
	if sharePrice.GT(maturityPrice) && !maturityPrice.IsZero() {
		zombieInterest := bondAmount.DivDown(maturityPrice).Sub(bondAmount.DivDown(sharePrice))
		govZombie := cfg.Fees.GovernanceZombie.MulDown(zombieInterest)
		state.ShareReserves = state.ShareReserves.Add(zombieInterest.Sub(govZombie))
		state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(govZombie)
	}

	flatFee := hdmath.CloseLongFlatFee(bondAmount, hdmath.Zero(), cfg.Fees.Flat, sharePrice)
	govFee := cfg.Fees.GovernanceLP.MulDown(flatFee)
	if flatFee.GT(shareProceeds) {
		flatFee = shareProceeds
	}
	shareProceeds = shareProceeds.Sub(flatFee)
	state.ShareReserves = state.ShareReserves.Add(flatFee.SubOrZero(govFee))
	state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(hdmath.Min(govFee, flatFee))
	return shareProceeds, nil
}

// applyCloseLongAccounting unwinds the aggregate long exposure and the
// opening bucket's base volume in lock step with the closed amount.
func (k *Keeper) applyCloseLongAccounting(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount hdmath.FixedPoint,
) {
	openTime := maturityTime - cfg.PositionDuration
	openCp, found := k.GetCheckpoint(ctx, openTime)

	cohort := k.ledger.TotalSupply(ctx, types.LongAssetID(maturityTime))
	if found && !cohort.IsZero() {
		volumeDelta := openCp.LongBaseVolume.MulDivDown(bondAmount, cohort)
		openCp.LongBaseVolume = openCp.LongBaseVolume.SubOrZero(volumeDelta)
		if err := k.SetCheckpoint(ctx, openTime, openCp); err != nil {
			panic(err)
		}
	}

	state.LongAverageMaturityTime = hdmath.UpdateWeightedAverage(
		state.LongAverageMaturityTime, state.LongsOutstanding,
		hdmath.FromUint(maturityTime), bondAmount, false,
	)
	if found && openCp.IsSet() {
		state.LongOpenSharePrice = hdmath.UpdateWeightedAverage(
			state.LongOpenSharePrice, state.LongsOutstanding,
			openCp.SharePrice, bondAmount, false,
		)
	}
	state.LongsOutstanding = state.LongsOutstanding.Sub(bondAmount)
}
