package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// QueryServer defines the hyperdrive QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// PoolConfig returns the pool configuration
func (q *QueryServer) PoolConfig(ctx context.Context) (types.PoolConfig, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPoolConfig(sdkCtx)
}

// MarketState returns the current market state
func (q *QueryServer) MarketState(ctx context.Context) (types.MarketState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetMarketState(sdkCtx), nil
}

// WithdrawPool returns the withdraw pool aggregate
func (q *QueryServer) WithdrawPool(ctx context.Context) (types.WithdrawPool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetWithdrawPool(sdkCtx), nil
}

// Checkpoint returns the checkpoint for a bucket boundary
func (q *QueryServer) Checkpoint(ctx context.Context, checkpointTime uint64) (types.Checkpoint, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cp, found := q.keeper.GetCheckpoint(sdkCtx, checkpointTime)
	if !found {
		return types.Checkpoint{}, types.ErrInvalidCheckpointTime.Wrapf("checkpoint %d not found", checkpointTime)
	}
	return cp, nil
}

// SpotPrice returns the pool's current spot price of bonds in base
func (q *QueryServer) SpotPrice(ctx context.Context) (hdmath.FixedPoint, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg, err := q.keeper.GetPoolConfig(sdkCtx)
	if err != nil {
		return hdmath.Zero(), err
	}
	state := q.keeper.GetMarketState(sdkCtx)
	if state.ShareReserves.IsZero() {
		return hdmath.Zero(), types.ErrPoolNotInitialized
	}
	return hdmath.SpotPrice(
		state.ShareReserves, state.BondReserves,
		cfg.InitialSharePrice, cfg.TimeStretch,
	), nil
}

// SpotRate returns the pool's current fixed rate
func (q *QueryServer) SpotRate(ctx context.Context) (hdmath.FixedPoint, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg, err := q.keeper.GetPoolConfig(sdkCtx)
	if err != nil {
		return hdmath.Zero(), err
	}
	state := q.keeper.GetMarketState(sdkCtx)
	if state.ShareReserves.IsZero() {
		return hdmath.Zero(), types.ErrPoolNotInitialized
	}
	return spotRate(cfg, state), nil
}

// PresentValue returns the pool's capital in shares
func (q *QueryServer) PresentValue(ctx context.Context) (hdmath.FixedPoint, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg, err := q.keeper.GetPoolConfig(sdkCtx)
	if err != nil {
		return hdmath.Zero(), err
	}
	state := q.keeper.GetMarketState(sdkCtx)
	return q.keeper.presentValue(sdkCtx, cfg, state, q.keeper.vault.PricePerShare(sdkCtx))
}

// LPSharePrice returns the present value per active LP share
func (q *QueryServer) LPSharePrice(ctx context.Context) (hdmath.FixedPoint, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg, err := q.keeper.GetPoolConfig(sdkCtx)
	if err != nil {
		return hdmath.Zero(), err
	}
	state := q.keeper.GetMarketState(sdkCtx)
	pool := q.keeper.GetWithdrawPool(sdkCtx)
	return q.keeper.lpSharePrice(sdkCtx, cfg, state, pool, q.keeper.vault.PricePerShare(sdkCtx))
}

// PositionBalance returns an account's balance of a position asset
func (q *QueryServer) PositionBalance(ctx context.Context, assetID, account string) (hdmath.FixedPoint, error) {
	if _, _, err := types.ParseAssetID(assetID); err != nil {
		return hdmath.Zero(), types.ErrInvalidAmount.Wrap(err.Error())
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.ledger.BalanceOf(sdkCtx, assetID, account), nil
}
