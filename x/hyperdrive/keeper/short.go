package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/hyperdrive/metrics"
	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// OpenShort sells bonds the trader does not own into the curve. The trader
// deposits the max loss: the bond's face value plus fees minus the proceeds
// of the curve sale. The deposit backs the position outside the reserves.
func (k *Keeper) OpenShort(
	ctx sdk.Context,
	trader string,
	bondAmount, maxDeposit hdmath.FixedPoint,
	destination string,
	asUnderlying bool,
) (maturityTime uint64, deposit hdmath.FixedPoint, err error) {
	defer k.recoverMathFault(&err)

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		return 0, hdmath.Zero(), err
	}
	if bondAmount.LT(cfg.MinimumTransactionAmount) {
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
	sharePrice := k.vault.PricePerShare(cacheCtx)
	openCp, _ := k.GetCheckpoint(cacheCtx, bucket)
	openSharePrice := openCp.SharePrice

	spot := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)
	principal, err := hdmath.SharesOutGivenBondsIn(
		state.ShareReserves, state.BondReserves, sharePrice, cfg.InitialSharePrice,
		cfg.TimeStretch, bondAmount,
	)
	if err != nil {
		return 0, hdmath.Zero(), mapCurveErr(err)
	}

	curveFeeBase := hdmath.OpenShortCurveFee(bondAmount, spot, cfg.Fees.Curve)
	govFeeShares := hdmath.OpenShortGovernanceFee(curveFeeBase, cfg.Fees.GovernanceLP, sharePrice)
	flatFeeBase := bondAmount.MulDown(cfg.Fees.Flat)

	// Max loss: face value grown since the checkpoint opened, plus fees,
	// minus the base the curve pays for the bonds.
	cost := bondAmount.MulDivDown(sharePrice, openSharePrice).Add(flatFeeBase).Add(curveFeeBase)
	proceeds := sharePrice.MulDown(principal)
	if cost.LT(proceeds) {
		return 0, hdmath.Zero(), types.ErrNegativeInterest.Wrap("short proceeds exceed the face value")
	}
	deposit = cost.Sub(proceeds)
	if deposit.GT(maxDeposit) {
		return 0, hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"deposit %s above maximum %s", deposit, maxDeposit)
	}

	if _, _, err := k.vault.Deposit(cacheCtx, trader, deposit, asUnderlying); err != nil {
		return 0, hdmath.Zero(), err
	}

	// The curve pays out the principal; the pool keeps the curve fee minus
	// the governance slice.
	curveFeeShares := curveFeeBase.DivDown(sharePrice)
	shortsBefore := state.ShortsOutstanding
	state.ShareReserves = state.ShareReserves.
		Sub(principal).
		Add(curveFeeShares.SubOrZero(govFeeShares))
	state.BondReserves = state.BondReserves.Add(bondAmount)
	state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(hdmath.Min(govFeeShares, curveFeeShares))
	state.ShortsOutstanding = shortsBefore.Add(bondAmount)
	state.ShortAverageMaturityTime = hdmath.UpdateWeightedAverage(
		state.ShortAverageMaturityTime, shortsBefore,
		hdmath.FromUint(maturityTime), bondAmount, true,
	)
	baseVolume := principal.MulDown(sharePrice)
	state.ShortBaseVolume = state.ShortBaseVolume.Add(baseVolume)
	if err := validateMarketState(cfg, state); err != nil {
		return 0, hdmath.Zero(), err
	}

	openCp.ShortBaseVolume = openCp.ShortBaseVolume.Add(baseVolume)
	if err := k.SetCheckpoint(cacheCtx, bucket, openCp); err != nil {
		return 0, hdmath.Zero(), err
	}

	if err := k.ledger.Mint(cacheCtx, types.ShortAssetID(maturityTime), destination, bondAmount); err != nil {
		return 0, hdmath.Zero(), err
	}
	k.addOpenMaturity(cacheCtx, maturityTime)
	k.SetMarketState(cacheCtx, state)
	writeCache()

	tradeID := uuid.New().String()
	k.logger.Info("opened short",
		"trade_id", tradeID,
		"trader", trader,
		"bond_amount", bondAmount.String(),
		"deposit", deposit.String(),
		"maturity_time", maturityTime,
	)
	metrics.RecordTrade("short", "open", deposit)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeOpenShort,
		sdk.NewAttribute(types.AttributeKeyTradeID, tradeID),
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyDestination, destination),
		sdk.NewAttribute(types.AttributeKeyBondAmount, bondAmount.String()),
		sdk.NewAttribute(types.AttributeKeyBaseAmount, deposit.String()),
		sdk.NewAttribute(types.AttributeKeyMaturityTime, strconv.FormatUint(maturityTime, 10)),
	))
	return maturityTime, deposit, nil
}

// CloseShort buys back the bonds a short owes. Before maturity the buyback
// splits into a curve trade and a par settlement; afterwards the position
// redeems as the interest its backing earned over the term.
func (k *Keeper) CloseShort(
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
		shareProceeds, err = k.closeOpenShort(cacheCtx, cfg, &state, maturityTime, bondAmount, timeRemaining, sharePrice)
	} else {
		shareProceeds, err = k.closeMaturedShort(cacheCtx, cfg, &state, maturityTime, bondAmount, sharePrice)
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

	if err := k.ledger.Burn(cacheCtx, types.ShortAssetID(maturityTime), trader, bondAmount); err != nil {
		return hdmath.Zero(), err
	}
	baseProceeds = hdmath.Zero()
	if !shareProceeds.IsZero() {
		baseProceeds, err = k.vault.Withdraw(cacheCtx, destination, shareProceeds, asUnderlying)
		if err != nil {
			return hdmath.Zero(), err
		}
	}
	if baseProceeds.LT(minOutput) {
		return hdmath.Zero(), types.ErrSlippageExceeded.Wrapf(
			"proceeds %s below minimum %s", baseProceeds, minOutput)
	}

	k.SetMarketState(cacheCtx, state)
	k.SetWithdrawPool(cacheCtx, pool)
	writeCache()

	tradeID := uuid.New().String()
	k.logger.Info("closed short",
		"trade_id", tradeID,
		"trader", trader,
		"bond_amount", bondAmount.String(),
		"base_proceeds", baseProceeds.String(),
		"maturity_time", maturityTime,
	)
	metrics.RecordTrade("short", "close", baseProceeds)
	metrics.RecordPoolState(state)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeCloseShort,
		sdk.NewAttribute(types.AttributeKeyTradeID, tradeID),
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyBondAmount, bondAmount.String()),
		sdk.NewAttribute(types.AttributeKeyProceeds, baseProceeds.String()),
		sdk.NewAttribute(types.AttributeKeyMaturityTime, strconv.FormatUint(maturityTime, 10)),
	))
	return baseProceeds, nil
}

// closeOpenShort prices an early buyback. The trader pays the curve price on
// the remaining time plus par on the elapsed time; the proceeds are the
// position's backing minus that payment.
func (k *Keeper) closeOpenShort(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount, timeRemaining, sharePrice hdmath.FixedPoint,
) (hdmath.FixedPoint, error) {
	openTime := maturityTime - cfg.PositionDuration
	openSharePrice, err := k.maturityCheckpointPrice(ctx, openTime, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}
	spot := hdmath.SpotPrice(state.ShareReserves, state.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)

	curveBonds := bondAmount.MulDown(timeRemaining)
	curvePayment := hdmath.Zero()
	if !curveBonds.IsZero() {
		curvePayment, err = hdmath.SharesInGivenBondsOut(
			state.ShareReserves, state.BondReserves, sharePrice, cfg.InitialSharePrice,
			cfg.TimeStretch, curveBonds,
		)
		if err != nil {
			return hdmath.Zero(), mapCurveErr(err)
		}
	}
	flatPayment := bondAmount.MulDivDown(hdmath.One().Sub(timeRemaining), sharePrice)

	curveFee := hdmath.CloseShortCurveFee(bondAmount, timeRemaining, spot, cfg.Fees.Curve, sharePrice)
	flatFee := hdmath.CloseShortFlatFee(bondAmount, timeRemaining, cfg.Fees.Flat, sharePrice)
	govFee := cfg.Fees.GovernanceLP.MulDown(curveFee.Add(flatFee))
	totalPayment := flatPayment.Add(curvePayment).Add(curveFee).Add(flatFee)

	// The short's backing: face value with the vault interest accrued since
	// open, plus the flat fee prepaid at open.
	backing := bondAmount.DivDown(openSharePrice).
		Add(bondAmount.MulDivDown(cfg.Fees.Flat, sharePrice))
	shareProceeds := backing.SubOrZero(totalPayment)

	// The payment enters the reserves minus the governance slice; the curve
	// leg burns the bonds bought back.
	state.ShareReserves = state.ShareReserves.Add(totalPayment.SubOrZero(govFee))
	state.BondReserves = state.BondReserves.Sub(curveBonds)
	state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(hdmath.Min(govFee, totalPayment))

	k.applyCloseShortAccounting(ctx, cfg, state, maturityTime, bondAmount)
	return shareProceeds, nil
}

// closeMaturedShort redeems a short after its bucket settled at par. The
// proceeds are the interest the backing earned between open and maturity;
// interest accrued past maturity is shaved by the governance zombie fee.
func (k *Keeper) closeMaturedShort(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount, sharePrice hdmath.FixedPoint,
) (hdmath.FixedPoint, error) {
	openTime := maturityTime - cfg.PositionDuration
	openSharePrice, err := k.maturityCheckpointPrice(ctx, openTime, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}
	maturityPrice, err := k.maturityCheckpointPrice(ctx, maturityTime, sharePrice)
	if err != nil {
		return hdmath.Zero(), err
	}

	// Backing shares minus the par payment taken at maturation.
	shareProceeds := bondAmount.DivDown(openSharePrice).
		SubOrZero(bondAmount.DivUp(maturityPrice))
	if shareProceeds.IsZero() {
		return hdmath.Zero(), nil
	}

	if sharePrice.GT(maturityPrice) && !maturityPrice.IsZero() {
		// Zombie interest on the unredeemed proceeds since maturity.
		zombieInterest := shareProceeds.MulDown(
			hdmath.One().Sub(maturityPrice.DivUp(sharePrice)),
		)
		govZombie := cfg.Fees.GovernanceZombie.MulDown(zombieInterest)
		shareProceeds = shareProceeds.SubOrZero(govZombie)
		state.GovernanceFeesAccrued = state.GovernanceFeesAccrued.Add(govZombie)
	}
	return shareProceeds, nil
}

// applyCloseShortAccounting unwinds the aggregate short exposure and the
// base volume tracked for the opening bucket.
func (k *Keeper) applyCloseShortAccounting(
	ctx sdk.Context,
	cfg types.PoolConfig,
	state *types.MarketState,
	maturityTime uint64,
	bondAmount hdmath.FixedPoint,
) {
	openTime := maturityTime - cfg.PositionDuration
	openCp, found := k.GetCheckpoint(ctx, openTime)

	cohort := k.ledger.TotalSupply(ctx, types.ShortAssetID(maturityTime))
	if found && !cohort.IsZero() {
		volumeDelta := openCp.ShortBaseVolume.MulDivDown(bondAmount, cohort)
		openCp.ShortBaseVolume = openCp.ShortBaseVolume.SubOrZero(volumeDelta)
		state.ShortBaseVolume = state.ShortBaseVolume.SubOrZero(volumeDelta)
		if err := k.SetCheckpoint(ctx, openTime, openCp); err != nil {
			panic(err)
		}
	}

	state.ShortAverageMaturityTime = hdmath.UpdateWeightedAverage(
		state.ShortAverageMaturityTime, state.ShortsOutstanding,
		hdmath.FromUint(maturityTime), bondAmount, false,
	)
	state.ShortsOutstanding = state.ShortsOutstanding.Sub(bondAmount)
}
