package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

type msgServer struct {
	keeper *Keeper
}

var _ types.MsgServer = (*msgServer)(nil)

// NewMsgServerImpl returns the module message server
func NewMsgServerImpl(keeper *Keeper) *msgServer {
	return &msgServer{keeper: keeper}
}

// destinationOrSigner defaults the destination to the signer when empty.
func destinationOrSigner(destination, signer string) string {
	if destination == "" {
		return signer
	}
	return destination
}

// Initialize handles MsgInitialize
func (m *msgServer) Initialize(goCtx context.Context, msg *types.MsgInitialize) (*types.MsgInitializeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	contribution, err := types.ParseAmount("contribution", msg.Contribution)
	if err != nil {
		return nil, err
	}
	targetRate, err := types.ParseAmount("target_rate", msg.TargetRate)
	if err != nil {
		return nil, err
	}

	lpShares, err := m.keeper.Initialize(
		ctx, msg.Provider, contribution, targetRate,
		destinationOrSigner(msg.Destination, msg.Provider), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgInitializeResponse{LPShares: lpShares.String()}, nil
}

// AddLiquidity handles MsgAddLiquidity
func (m *msgServer) AddLiquidity(goCtx context.Context, msg *types.MsgAddLiquidity) (*types.MsgAddLiquidityResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	contribution, err := types.ParseAmount("contribution", msg.Contribution)
	if err != nil {
		return nil, err
	}
	minAPR, err := types.ParseAmount("min_apr", msg.MinAPR)
	if err != nil {
		return nil, err
	}
	maxAPR, err := types.ParseAmount("max_apr", msg.MaxAPR)
	if err != nil {
		return nil, err
	}

	lpShares, err := m.keeper.AddLiquidity(
		ctx, msg.Provider, contribution, minAPR, maxAPR,
		destinationOrSigner(msg.Destination, msg.Provider), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgAddLiquidityResponse{LPShares: lpShares.String()}, nil
}

// RemoveLiquidity handles MsgRemoveLiquidity
func (m *msgServer) RemoveLiquidity(goCtx context.Context, msg *types.MsgRemoveLiquidity) (*types.MsgRemoveLiquidityResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	shares, err := types.ParseAmount("shares", msg.Shares)
	if err != nil {
		return nil, err
	}
	minOutput, err := types.ParseAmount("min_output", msg.MinOutput)
	if err != nil {
		return nil, err
	}

	proceeds, withdrawalShares, err := m.keeper.RemoveLiquidity(
		ctx, msg.Provider, shares, minOutput,
		destinationOrSigner(msg.Destination, msg.Provider), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgRemoveLiquidityResponse{
		BaseProceeds:     proceeds.String(),
		WithdrawalShares: withdrawalShares.String(),
	}, nil
}

// RedeemWithdrawalShares handles MsgRedeemWithdrawalShares
func (m *msgServer) RedeemWithdrawalShares(goCtx context.Context, msg *types.MsgRedeemWithdrawalShares) (*types.MsgRedeemWithdrawalSharesResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	shares, err := types.ParseAmount("shares", msg.Shares)
	if err != nil {
		return nil, err
	}
	minOutputPerShare, err := types.ParseAmount("min_output_per_share", msg.MinOutputPerShare)
	if err != nil {
		return nil, err
	}

	proceeds, redeemed, err := m.keeper.RedeemWithdrawalShares(
		ctx, msg.Provider, shares, minOutputPerShare,
		destinationOrSigner(msg.Destination, msg.Provider), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgRedeemWithdrawalSharesResponse{
		BaseProceeds:   proceeds.String(),
		SharesRedeemed: redeemed.String(),
	}, nil
}

// OpenLong handles MsgOpenLong
func (m *msgServer) OpenLong(goCtx context.Context, msg *types.MsgOpenLong) (*types.MsgOpenLongResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	baseAmount, err := types.ParseAmount("base_amount", msg.BaseAmount)
	if err != nil {
		return nil, err
	}
	minOutput, err := types.ParseAmount("min_output", msg.MinOutput)
	if err != nil {
		return nil, err
	}

	maturityTime, bondProceeds, err := m.keeper.OpenLong(
		ctx, msg.Trader, baseAmount, minOutput,
		destinationOrSigner(msg.Destination, msg.Trader), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgOpenLongResponse{
		MaturityTime: maturityTime,
		BondProceeds: bondProceeds.String(),
	}, nil
}

// CloseLong handles MsgCloseLong
func (m *msgServer) CloseLong(goCtx context.Context, msg *types.MsgCloseLong) (*types.MsgCloseLongResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	bondAmount, err := types.ParseAmount("bond_amount", msg.BondAmount)
	if err != nil {
		return nil, err
	}
	minOutput, err := types.ParseAmount("min_output", msg.MinOutput)
	if err != nil {
		return nil, err
	}

	proceeds, err := m.keeper.CloseLong(
		ctx, msg.Trader, msg.MaturityTime, bondAmount, minOutput,
		destinationOrSigner(msg.Destination, msg.Trader), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgCloseLongResponse{BaseProceeds: proceeds.String()}, nil
}

// OpenShort handles MsgOpenShort
func (m *msgServer) OpenShort(goCtx context.Context, msg *types.MsgOpenShort) (*types.MsgOpenShortResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	bondAmount, err := types.ParseAmount("bond_amount", msg.BondAmount)
	if err != nil {
		return nil, err
	}
	maxDeposit, err := types.ParseAmount("max_deposit", msg.MaxDeposit)
	if err != nil {
		return nil, err
	}

	maturityTime, deposit, err := m.keeper.OpenShort(
		ctx, msg.Trader, bondAmount, maxDeposit,
		destinationOrSigner(msg.Destination, msg.Trader), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgOpenShortResponse{
		MaturityTime: maturityTime,
		Deposit:      deposit.String(),
	}, nil
}

// CloseShort handles MsgCloseShort
func (m *msgServer) CloseShort(goCtx context.Context, msg *types.MsgCloseShort) (*types.MsgCloseShortResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	bondAmount, err := types.ParseAmount("bond_amount", msg.BondAmount)
	if err != nil {
		return nil, err
	}
	minOutput, err := types.ParseAmount("min_output", msg.MinOutput)
	if err != nil {
		return nil, err
	}

	proceeds, err := m.keeper.CloseShort(
		ctx, msg.Trader, msg.MaturityTime, bondAmount, minOutput,
		destinationOrSigner(msg.Destination, msg.Trader), msg.AsUnderlying,
	)
	if err != nil {
		return nil, err
	}
	return &types.MsgCloseShortResponse{BaseProceeds: proceeds.String()}, nil
}

// Checkpoint handles MsgCheckpoint
func (m *msgServer) Checkpoint(goCtx context.Context, msg *types.MsgCheckpoint) (*types.MsgCheckpointResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	sharePrice, maturedLongs, maturedShorts, err := m.keeper.Checkpoint(ctx, msg.CheckpointTime)
	if err != nil {
		return nil, err
	}
	return &types.MsgCheckpointResponse{
		SharePrice:    sharePrice.String(),
		MaturedLongs:  maturedLongs.String(),
		MaturedShorts: maturedShorts.String(),
	}, nil
}

// CollectGovernanceFees handles MsgCollectGovernanceFees
func (m *msgServer) CollectGovernanceFees(goCtx context.Context, msg *types.MsgCollectGovernanceFees) (*types.MsgCollectGovernanceFeesResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	proceeds, err := m.keeper.CollectGovernanceFees(ctx)
	if err != nil {
		return nil, err
	}
	return &types.MsgCollectGovernanceFeesResponse{Proceeds: proceeds.String()}, nil
}
