package types

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgInitialize{},
		&MsgAddLiquidity{},
		&MsgRemoveLiquidity{},
		&MsgRedeemWithdrawalShares{},
		&MsgOpenLong{},
		&MsgCloseLong{},
		&MsgOpenShort{},
		&MsgCloseShort{},
		&MsgCheckpoint{},
		&MsgCollectGovernanceFees{},
	)
}

// Message types
const (
	TypeMsgInitialize              = "initialize"
	TypeMsgAddLiquidity            = "add_liquidity"
	TypeMsgRemoveLiquidity         = "remove_liquidity"
	TypeMsgRedeemWithdrawalShares  = "redeem_withdrawal_shares"
	TypeMsgOpenLong                = "open_long"
	TypeMsgCloseLong               = "close_long"
	TypeMsgOpenShort               = "open_short"
	TypeMsgCloseShort              = "close_short"
	TypeMsgCheckpoint              = "checkpoint"
	TypeMsgCollectGovernanceFees   = "collect_governance_fees"
)

// MsgServer defines the hyperdrive module's gRPC message service
type MsgServer interface {
	Initialize(context.Context, *MsgInitialize) (*MsgInitializeResponse, error)
	AddLiquidity(context.Context, *MsgAddLiquidity) (*MsgAddLiquidityResponse, error)
	RemoveLiquidity(context.Context, *MsgRemoveLiquidity) (*MsgRemoveLiquidityResponse, error)
	RedeemWithdrawalShares(context.Context, *MsgRedeemWithdrawalShares) (*MsgRedeemWithdrawalSharesResponse, error)
	OpenLong(context.Context, *MsgOpenLong) (*MsgOpenLongResponse, error)
	CloseLong(context.Context, *MsgCloseLong) (*MsgCloseLongResponse, error)
	OpenShort(context.Context, *MsgOpenShort) (*MsgOpenShortResponse, error)
	CloseShort(context.Context, *MsgCloseShort) (*MsgCloseShortResponse, error)
	Checkpoint(context.Context, *MsgCheckpoint) (*MsgCheckpointResponse, error)
	CollectGovernanceFees(context.Context, *MsgCollectGovernanceFees) (*MsgCollectGovernanceFeesResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// Messages are dispatched through the module handler until proto
	// generation supplies a gRPC service descriptor.
}

// parseAmount parses a positive decimal amount string into fixed point.
func parseAmount(field, value string) (hdmath.FixedPoint, error) {
	dec, err := sdkmath.LegacyNewDecFromStr(value)
	if err != nil {
		return hdmath.Zero(), ErrInvalidAmount.Wrapf("%s: %v", field, err)
	}
	if dec.IsNegative() {
		return hdmath.Zero(), ErrInvalidAmount.Wrapf("%s must not be negative", field)
	}
	return hdmath.FromDec(dec), nil
}

// ParseAmount parses a decimal amount string, rejecting negatives.
func ParseAmount(field, value string) (hdmath.FixedPoint, error) {
	return parseAmount(field, value)
}

func validateAmounts(fields map[string]string) error {
	for field, value := range fields {
		if _, err := parseAmount(field, value); err != nil {
			return err
		}
	}
	return nil
}

// MsgInitialize seeds an empty pool with its first liquidity at a target rate.
type MsgInitialize struct {
	Provider     string `json:"provider"`
	Contribution string `json:"contribution"`
	TargetRate   string `json:"target_rate"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgInitialize) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgInitialize) Type() string { return TypeMsgInitialize }

// ValidateBasic implements sdk.Msg
func (msg MsgInitialize) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"contribution": msg.Contribution,
		"target_rate":  msg.TargetRate,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgInitialize) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Provider)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgInitialize) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgInitialize
func (*MsgInitialize) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgInitialize"
}

// Reset implements proto.Message
func (msg *MsgInitialize) Reset() { *msg = MsgInitialize{} }

// String implements proto.Message
func (msg MsgInitialize) String() string {
	return fmt.Sprintf("MsgInitialize{Provider: %s, Contribution: %s, TargetRate: %s}",
		msg.Provider, msg.Contribution, msg.TargetRate)
}

// MsgInitializeResponse defines the Initialize response
type MsgInitializeResponse struct {
	LPShares string `json:"lp_shares"`
}

// MsgAddLiquidity adds liquidity to an initialized pool.
type MsgAddLiquidity struct {
	Provider     string `json:"provider"`
	Contribution string `json:"contribution"`
	MinAPR       string `json:"min_apr"`
	MaxAPR       string `json:"max_apr"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgAddLiquidity) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgAddLiquidity) Type() string { return TypeMsgAddLiquidity }

// ValidateBasic implements sdk.Msg
func (msg MsgAddLiquidity) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"contribution": msg.Contribution,
		"min_apr":      msg.MinAPR,
		"max_apr":      msg.MaxAPR,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgAddLiquidity) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Provider)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgAddLiquidity) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgAddLiquidity
func (*MsgAddLiquidity) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgAddLiquidity"
}

// Reset implements proto.Message
func (msg *MsgAddLiquidity) Reset() { *msg = MsgAddLiquidity{} }

// String implements proto.Message
func (msg MsgAddLiquidity) String() string {
	return fmt.Sprintf("MsgAddLiquidity{Provider: %s, Contribution: %s}", msg.Provider, msg.Contribution)
}

// MsgAddLiquidityResponse defines the AddLiquidity response
type MsgAddLiquidityResponse struct {
	LPShares string `json:"lp_shares"`
}

// MsgRemoveLiquidity burns LP shares for proceeds plus withdrawal shares.
type MsgRemoveLiquidity struct {
	Provider     string `json:"provider"`
	Shares       string `json:"shares"`
	MinOutput    string `json:"min_output"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgRemoveLiquidity) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRemoveLiquidity) Type() string { return TypeMsgRemoveLiquidity }

// ValidateBasic implements sdk.Msg
func (msg MsgRemoveLiquidity) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"shares":     msg.Shares,
		"min_output": msg.MinOutput,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgRemoveLiquidity) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Provider)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRemoveLiquidity) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgRemoveLiquidity
func (*MsgRemoveLiquidity) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgRemoveLiquidity"
}

// Reset implements proto.Message
func (msg *MsgRemoveLiquidity) Reset() { *msg = MsgRemoveLiquidity{} }

// String implements proto.Message
func (msg MsgRemoveLiquidity) String() string {
	return fmt.Sprintf("MsgRemoveLiquidity{Provider: %s, Shares: %s}", msg.Provider, msg.Shares)
}

// MsgRemoveLiquidityResponse defines the RemoveLiquidity response
type MsgRemoveLiquidityResponse struct {
	BaseProceeds     string `json:"base_proceeds"`
	WithdrawalShares string `json:"withdrawal_shares"`
}

// MsgRedeemWithdrawalShares redeems withdrawal shares against freed capital.
type MsgRedeemWithdrawalShares struct {
	Provider          string `json:"provider"`
	Shares            string `json:"shares"`
	MinOutputPerShare string `json:"min_output_per_share"`
	Destination       string `json:"destination"`
	AsUnderlying      bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgRedeemWithdrawalShares) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRedeemWithdrawalShares) Type() string { return TypeMsgRedeemWithdrawalShares }

// ValidateBasic implements sdk.Msg
func (msg MsgRedeemWithdrawalShares) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"shares":               msg.Shares,
		"min_output_per_share": msg.MinOutputPerShare,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgRedeemWithdrawalShares) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Provider)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRedeemWithdrawalShares) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgRedeemWithdrawalShares
func (*MsgRedeemWithdrawalShares) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgRedeemWithdrawalShares"
}

// Reset implements proto.Message
func (msg *MsgRedeemWithdrawalShares) Reset() { *msg = MsgRedeemWithdrawalShares{} }

// String implements proto.Message
func (msg MsgRedeemWithdrawalShares) String() string {
	return fmt.Sprintf("MsgRedeemWithdrawalShares{Provider: %s, Shares: %s}", msg.Provider, msg.Shares)
}

// MsgRedeemWithdrawalSharesResponse defines the RedeemWithdrawalShares response
type MsgRedeemWithdrawalSharesResponse struct {
	BaseProceeds   string `json:"base_proceeds"`
	SharesRedeemed string `json:"shares_redeemed"`
}

// MsgOpenLong opens a fixed rate long position.
type MsgOpenLong struct {
	Trader       string `json:"trader"`
	BaseAmount   string `json:"base_amount"`
	MinOutput    string `json:"min_output"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgOpenLong) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgOpenLong) Type() string { return TypeMsgOpenLong }

// ValidateBasic implements sdk.Msg
func (msg MsgOpenLong) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Trader); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"base_amount": msg.BaseAmount,
		"min_output":  msg.MinOutput,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgOpenLong) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Trader)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgOpenLong) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgOpenLong
func (*MsgOpenLong) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgOpenLong"
}

// Reset implements proto.Message
func (msg *MsgOpenLong) Reset() { *msg = MsgOpenLong{} }

// String implements proto.Message
func (msg MsgOpenLong) String() string {
	return fmt.Sprintf("MsgOpenLong{Trader: %s, BaseAmount: %s}", msg.Trader, msg.BaseAmount)
}

// MsgOpenLongResponse defines the OpenLong response
type MsgOpenLongResponse struct {
	MaturityTime uint64 `json:"maturity_time"`
	BondProceeds string `json:"bond_proceeds"`
}

// MsgCloseLong closes all or part of a long position.
type MsgCloseLong struct {
	Trader       string `json:"trader"`
	MaturityTime uint64 `json:"maturity_time"`
	BondAmount   string `json:"bond_amount"`
	MinOutput    string `json:"min_output"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgCloseLong) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCloseLong) Type() string { return TypeMsgCloseLong }

// ValidateBasic implements sdk.Msg
func (msg MsgCloseLong) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Trader); err != nil {
		return err
	}
	if msg.MaturityTime == 0 {
		return ErrInvalidAmount.Wrap("maturity_time must be positive")
	}
	return validateAmounts(map[string]string{
		"bond_amount": msg.BondAmount,
		"min_output":  msg.MinOutput,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgCloseLong) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Trader)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCloseLong) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCloseLong
func (*MsgCloseLong) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgCloseLong"
}

// Reset implements proto.Message
func (msg *MsgCloseLong) Reset() { *msg = MsgCloseLong{} }

// String implements proto.Message
func (msg MsgCloseLong) String() string {
	return fmt.Sprintf("MsgCloseLong{Trader: %s, MaturityTime: %d, BondAmount: %s}",
		msg.Trader, msg.MaturityTime, msg.BondAmount)
}

// MsgCloseLongResponse defines the CloseLong response
type MsgCloseLongResponse struct {
	BaseProceeds string `json:"base_proceeds"`
}

// MsgOpenShort opens a fixed rate short position.
type MsgOpenShort struct {
	Trader       string `json:"trader"`
	BondAmount   string `json:"bond_amount"`
	MaxDeposit   string `json:"max_deposit"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgOpenShort) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgOpenShort) Type() string { return TypeMsgOpenShort }

// ValidateBasic implements sdk.Msg
func (msg MsgOpenShort) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Trader); err != nil {
		return err
	}
	return validateAmounts(map[string]string{
		"bond_amount": msg.BondAmount,
		"max_deposit": msg.MaxDeposit,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgOpenShort) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Trader)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgOpenShort) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgOpenShort
func (*MsgOpenShort) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgOpenShort"
}

// Reset implements proto.Message
func (msg *MsgOpenShort) Reset() { *msg = MsgOpenShort{} }

// String implements proto.Message
func (msg MsgOpenShort) String() string {
	return fmt.Sprintf("MsgOpenShort{Trader: %s, BondAmount: %s}", msg.Trader, msg.BondAmount)
}

// MsgOpenShortResponse defines the OpenShort response
type MsgOpenShortResponse struct {
	MaturityTime uint64 `json:"maturity_time"`
	Deposit      string `json:"deposit"`
}

// MsgCloseShort closes all or part of a short position.
type MsgCloseShort struct {
	Trader       string `json:"trader"`
	MaturityTime uint64 `json:"maturity_time"`
	BondAmount   string `json:"bond_amount"`
	MinOutput    string `json:"min_output"`
	Destination  string `json:"destination"`
	AsUnderlying bool   `json:"as_underlying"`
}

// Route implements sdk.Msg
func (msg MsgCloseShort) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCloseShort) Type() string { return TypeMsgCloseShort }

// ValidateBasic implements sdk.Msg
func (msg MsgCloseShort) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Trader); err != nil {
		return err
	}
	if msg.MaturityTime == 0 {
		return ErrInvalidAmount.Wrap("maturity_time must be positive")
	}
	return validateAmounts(map[string]string{
		"bond_amount": msg.BondAmount,
		"min_output":  msg.MinOutput,
	})
}

// GetSigners implements sdk.Msg
func (msg MsgCloseShort) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Trader)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCloseShort) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCloseShort
func (*MsgCloseShort) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgCloseShort"
}

// Reset implements proto.Message
func (msg *MsgCloseShort) Reset() { *msg = MsgCloseShort{} }

// String implements proto.Message
func (msg MsgCloseShort) String() string {
	return fmt.Sprintf("MsgCloseShort{Trader: %s, MaturityTime: %d, BondAmount: %s}",
		msg.Trader, msg.MaturityTime, msg.BondAmount)
}

// MsgCloseShortResponse defines the CloseShort response
type MsgCloseShortResponse struct {
	BaseProceeds string `json:"base_proceeds"`
}

// MsgCheckpoint mints a checkpoint for a past bucket boundary. Anyone can
// submit it; the operation is idempotent.
type MsgCheckpoint struct {
	Sender         string `json:"sender"`
	CheckpointTime uint64 `json:"checkpoint_time"`
}

// Route implements sdk.Msg
func (msg MsgCheckpoint) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCheckpoint) Type() string { return TypeMsgCheckpoint }

// ValidateBasic implements sdk.Msg
func (msg MsgCheckpoint) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCheckpoint) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Sender)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCheckpoint) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCheckpoint
func (*MsgCheckpoint) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgCheckpoint"
}

// Reset implements proto.Message
func (msg *MsgCheckpoint) Reset() { *msg = MsgCheckpoint{} }

// String implements proto.Message
func (msg MsgCheckpoint) String() string {
	return fmt.Sprintf("MsgCheckpoint{Sender: %s, CheckpointTime: %d}", msg.Sender, msg.CheckpointTime)
}

// MsgCheckpointResponse defines the Checkpoint response
type MsgCheckpointResponse struct {
	SharePrice    string `json:"share_price"`
	MaturedLongs  string `json:"matured_longs"`
	MaturedShorts string `json:"matured_shorts"`
}

// MsgCollectGovernanceFees pays the accrued governance fees out to the
// configured fee collector.
type MsgCollectGovernanceFees struct {
	Sender string `json:"sender"`
}

// Route implements sdk.Msg
func (msg MsgCollectGovernanceFees) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCollectGovernanceFees) Type() string { return TypeMsgCollectGovernanceFees }

// ValidateBasic implements sdk.Msg
func (msg MsgCollectGovernanceFees) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCollectGovernanceFees) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Sender)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCollectGovernanceFees) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCollectGovernanceFees
func (*MsgCollectGovernanceFees) XXX_MessageName() string {
	return "openalpha.hyperdrive.v1.MsgCollectGovernanceFees"
}

// Reset implements proto.Message
func (msg *MsgCollectGovernanceFees) Reset() { *msg = MsgCollectGovernanceFees{} }

// String implements proto.Message
func (msg MsgCollectGovernanceFees) String() string {
	return fmt.Sprintf("MsgCollectGovernanceFees{Sender: %s}", msg.Sender)
}

// MsgCollectGovernanceFeesResponse defines the CollectGovernanceFees response
type MsgCollectGovernanceFeesResponse struct {
	Proceeds string `json:"proceeds"`
}
