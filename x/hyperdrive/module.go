package hyperdrive

import (
	"encoding/json"

	"cosmossdk.io/core/appmodule"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/grpc-ecosystem/grpc-gateway/runtime"

	"github.com/openalpha/hyperdrive/x/hyperdrive/keeper"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

const (
	ModuleName = types.ModuleName
)

var (
	_ module.AppModuleBasic = AppModuleBasic{}
	_ appmodule.AppModule   = AppModule{}
)

// AppModuleBasic defines the basic application module for hyperdrive
type AppModuleBasic struct{}

// Name returns the module's name
func (AppModuleBasic) Name() string {
	return ModuleName
}

// RegisterLegacyAminoCodec registers the module's types on the given LegacyAmino codec
func (AppModuleBasic) RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&types.MsgInitialize{}, "hyperdrive/MsgInitialize", nil)
	cdc.RegisterConcrete(&types.MsgAddLiquidity{}, "hyperdrive/MsgAddLiquidity", nil)
	cdc.RegisterConcrete(&types.MsgRemoveLiquidity{}, "hyperdrive/MsgRemoveLiquidity", nil)
	cdc.RegisterConcrete(&types.MsgRedeemWithdrawalShares{}, "hyperdrive/MsgRedeemWithdrawalShares", nil)
	cdc.RegisterConcrete(&types.MsgOpenLong{}, "hyperdrive/MsgOpenLong", nil)
	cdc.RegisterConcrete(&types.MsgCloseLong{}, "hyperdrive/MsgCloseLong", nil)
	cdc.RegisterConcrete(&types.MsgOpenShort{}, "hyperdrive/MsgOpenShort", nil)
	cdc.RegisterConcrete(&types.MsgCloseShort{}, "hyperdrive/MsgCloseShort", nil)
	cdc.RegisterConcrete(&types.MsgCheckpoint{}, "hyperdrive/MsgCheckpoint", nil)
	cdc.RegisterConcrete(&types.MsgCollectGovernanceFees{}, "hyperdrive/MsgCollectGovernanceFees", nil)
}

// RegisterInterfaces registers the module's interface types
func (AppModuleBasic) RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	types.RegisterInterfaces(registry)
}

// DefaultGenesis returns default genesis state as raw bytes
func (AppModuleBasic) DefaultGenesis(cdc codec.JSONCodec) json.RawMessage {
	return nil
}

// ValidateGenesis performs genesis state validation
func (AppModuleBasic) ValidateGenesis(cdc codec.JSONCodec, config client.TxEncodingConfig, bz json.RawMessage) error {
	return nil
}

// RegisterGRPCGatewayRoutes registers the gRPC Gateway routes for the module
func (AppModuleBasic) RegisterGRPCGatewayRoutes(clientCtx client.Context, mux *runtime.ServeMux) {
	// TODO: Register gRPC gateway routes when proto generation is set up
}

// AppModule implements an application module for the hyperdrive module
type AppModule struct {
	AppModuleBasic
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule object
func NewAppModule(k *keeper.Keeper) AppModule {
	return AppModule{
		AppModuleBasic: AppModuleBasic{},
		keeper:         k,
	}
}

// Name returns the module's name
func (am AppModule) Name() string {
	return ModuleName
}

// RegisterServices registers module services
func (am AppModule) RegisterServices(cfg module.Configurator) {
	types.RegisterMsgServer(cfg.MsgServer(), keeper.NewMsgServerImpl(am.keeper))
}

// IsOnePerModuleType implements the depinject.OnePerModuleType interface
func (am AppModule) IsOnePerModuleType() {}

// IsAppModule implements the appmodule.AppModule interface
func (am AppModule) IsAppModule() {}

// EndBlocker mints the checkpoint for the current block's bucket so matured
// positions settle without waiting for a trade.
func (am AppModule) EndBlocker(ctx sdk.Context) error {
	return am.keeper.EndBlocker(ctx)
}
