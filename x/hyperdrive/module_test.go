package hyperdrive

import (
	"testing"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"

	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// TestRegisterInterfaces tests that every message registers under its own
// type URL and resolves back to the right concrete type
func TestRegisterInterfaces(t *testing.T) {
	registry := cdctypes.NewInterfaceRegistry()
	AppModuleBasic{}.RegisterInterfaces(registry)

	urls := []string{
		"/openalpha.hyperdrive.v1.MsgInitialize",
		"/openalpha.hyperdrive.v1.MsgAddLiquidity",
		"/openalpha.hyperdrive.v1.MsgRemoveLiquidity",
		"/openalpha.hyperdrive.v1.MsgRedeemWithdrawalShares",
		"/openalpha.hyperdrive.v1.MsgOpenLong",
		"/openalpha.hyperdrive.v1.MsgCloseLong",
		"/openalpha.hyperdrive.v1.MsgOpenShort",
		"/openalpha.hyperdrive.v1.MsgCloseShort",
		"/openalpha.hyperdrive.v1.MsgCheckpoint",
		"/openalpha.hyperdrive.v1.MsgCollectGovernanceFees",
	}
	for _, url := range urls {
		msg, err := registry.Resolve(url)
		if err != nil {
			t.Errorf("failed to resolve %s: %v", url, err)
			continue
		}
		if msg == nil {
			t.Errorf("resolved %s to nil", url)
		}
	}

	if _, err := registry.Resolve("/openalpha.hyperdrive.v1.MsgUnknown"); err == nil {
		t.Error("expected an unknown type URL to fail to resolve")
	}

	msg, err := registry.Resolve("/openalpha.hyperdrive.v1.MsgOpenLong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := msg.(*types.MsgOpenLong); !ok {
		t.Errorf("expected MsgOpenLong, got %T", msg)
	}
}
