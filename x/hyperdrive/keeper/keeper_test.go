package keeper

import (
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// genesisTime is a checkpoint boundary so tests can reason about buckets.
const genesisTime = 1700006400

// mockVault is a yield source with a settable share price. Deposits and
// withdrawals convert at the current price without tracking balances.
type mockVault struct {
	price hdmath.FixedPoint
}

func (m *mockVault) PricePerShare(_ sdk.Context) hdmath.FixedPoint {
	return m.price
}

func (m *mockVault) Deposit(_ sdk.Context, _ string, baseAmount hdmath.FixedPoint, _ bool) (hdmath.FixedPoint, hdmath.FixedPoint, error) {
	return baseAmount.DivDown(m.price), m.price, nil
}

func (m *mockVault) Withdraw(_ sdk.Context, _ string, shares hdmath.FixedPoint, _ bool) (hdmath.FixedPoint, error) {
	return shares.MulDown(m.price), nil
}

// mockLedger is an in-memory multi-asset position ledger.
type mockLedger struct {
	balances map[string]map[string]hdmath.FixedPoint
	supply   map[string]hdmath.FixedPoint
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances: make(map[string]map[string]hdmath.FixedPoint),
		supply:   make(map[string]hdmath.FixedPoint),
	}
}

func (m *mockLedger) Mint(_ sdk.Context, assetID, to string, amount hdmath.FixedPoint) error {
	if m.balances[assetID] == nil {
		m.balances[assetID] = make(map[string]hdmath.FixedPoint)
	}
	m.balances[assetID][to] = m.balances[assetID][to].Add(amount)
	m.supply[assetID] = m.supply[assetID].Add(amount)
	return nil
}

func (m *mockLedger) Burn(_ sdk.Context, assetID, from string, amount hdmath.FixedPoint) error {
	bal := m.balances[assetID][from]
	if bal.LT(amount) {
		return fmt.Errorf("insufficient %s balance: %s < %s", assetID, bal.String(), amount.String())
	}
	m.balances[assetID][from] = bal.Sub(amount)
	m.supply[assetID] = m.supply[assetID].Sub(amount)
	return nil
}

func (m *mockLedger) BalanceOf(_ sdk.Context, assetID, account string) hdmath.FixedPoint {
	return m.balances[assetID][account]
}

func (m *mockLedger) TotalSupply(_ sdk.Context, assetID string) hdmath.FixedPoint {
	return m.supply[assetID]
}

// setupKeeper creates a test keeper backed by an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, sdk.Context, *mockVault, *mockLedger) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger()).
		WithBlockTime(time.Unix(genesisTime, 0))

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	vault := &mockVault{price: hdmath.One()}
	ledger := newMockLedger()
	k := NewKeeper(cdc, storeKey, vault, ledger, "authority", log.NewNopLogger())

	return k, ctx, vault, ledger
}

// testPoolConfig returns a one year pool with daily checkpoints and no fees
func testPoolConfig() types.PoolConfig {
	return types.PoolConfig{
		InitialSharePrice:        hdmath.One(),
		TimeStretch:              hdmath.MustFromString("0.1"),
		PositionDuration:         31536000,
		CheckpointDuration:       86400,
		MinimumShareReserves:     hdmath.FromUint(10),
		MinimumTransactionAmount: hdmath.MustFromString("0.001"),
		Fees: types.Fees{
			Curve:            hdmath.Zero(),
			Flat:             hdmath.Zero(),
			GovernanceLP:     hdmath.Zero(),
			GovernanceZombie: hdmath.Zero(),
		},
		FeeCollector: "collector",
	}
}

// feePoolConfig returns the test pool with realistic fee rates
func feePoolConfig() types.PoolConfig {
	cfg := testPoolConfig()
	cfg.Fees = types.Fees{
		Curve:            hdmath.MustFromString("0.1"),
		Flat:             hdmath.MustFromString("0.0005"),
		GovernanceLP:     hdmath.MustFromString("0.15"),
		GovernanceZombie: hdmath.MustFromString("0.03"),
	}
	return cfg
}

// initTestPool seeds the pool with 100000 base at a 5% target rate
func initTestPool(tb testing.TB, k *Keeper, ctx sdk.Context, cfg types.PoolConfig) hdmath.FixedPoint {
	tb.Helper()
	if err := k.SetPoolConfig(ctx, cfg); err != nil {
		tb.Fatalf("failed to set pool config: %v", err)
	}
	lpShares, err := k.Initialize(ctx, "alice", hdmath.FromUint(100000), hdmath.MustFromString("0.05"), "alice", true)
	if err != nil {
		tb.Fatalf("failed to initialize pool: %v", err)
	}
	return lpShares
}

func absDiff(a, b hdmath.FixedPoint) hdmath.FixedPoint {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// TestPoolConfigWriteOnce tests that the configuration is immutable
func TestPoolConfigWriteOnce(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	if _, err := k.GetPoolConfig(ctx); err == nil {
		t.Error("expected an error reading an unset config")
	}
	if err := k.SetPoolConfig(ctx, testPoolConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.SetPoolConfig(ctx, testPoolConfig()); err == nil {
		t.Error("expected the second config write to fail")
	}

	cfg, err := k.GetPoolConfig(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PositionDuration != 31536000 {
		t.Errorf("expected position duration 31536000, got %d", cfg.PositionDuration)
	}
}

// TestCheckpointSharePriceImmutable tests the write-once share price rule
func TestCheckpointSharePriceImmutable(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	cp := types.NewCheckpoint()
	cp.SharePrice = hdmath.One()
	if err := k.SetCheckpoint(ctx, genesisTime, cp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rewriting with the same price but updated volume is allowed
	cp.LongBaseVolume = hdmath.FromUint(500)
	if err := k.SetCheckpoint(ctx, genesisTime, cp); err != nil {
		t.Fatalf("unexpected error updating volume: %v", err)
	}

	// Changing the recorded price is not
	cp.SharePrice = hdmath.MustFromString("1.1")
	if err := k.SetCheckpoint(ctx, genesisTime, cp); err == nil {
		t.Error("expected rewriting the share price to fail")
	}

	got, found := k.GetCheckpoint(ctx, genesisTime)
	if !found {
		t.Fatal("expected the checkpoint to exist")
	}
	if !got.SharePrice.Equal(hdmath.One()) {
		t.Errorf("expected the original price to survive, got %s", got.SharePrice.String())
	}
	if !got.LongBaseVolume.Equal(hdmath.FromUint(500)) {
		t.Errorf("expected the volume update to survive, got %s", got.LongBaseVolume.String())
	}
}

// TestMaturityIndex tests the open maturity bucket index
func TestMaturityIndex(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	k.addOpenMaturity(ctx, 300)
	k.addOpenMaturity(ctx, 100)
	k.addOpenMaturity(ctx, 200)

	got := k.openMaturitiesUpTo(ctx, 200)
	if len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Errorf("expected [100 200], got %v", got)
	}

	k.removeOpenMaturity(ctx, 100)
	got = k.openMaturitiesUpTo(ctx, 500)
	if len(got) != 2 || got[0] != 200 || got[1] != 300 {
		t.Errorf("expected [200 300], got %v", got)
	}

	// A fresh keeper over the same store rebuilds the index lazily
	k2 := NewKeeper(k.cdc, k.storeKey, &mockVault{price: hdmath.One()}, newMockLedger(), "authority", log.NewNopLogger())
	got = k2.openMaturitiesUpTo(ctx, 500)
	if len(got) != 2 || got[0] != 200 || got[1] != 300 {
		t.Errorf("expected the rebuilt index to match, got %v", got)
	}
}

// TestMarketStateDefaults tests reads before initialization
func TestMarketStateDefaults(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	state := k.GetMarketState(ctx)
	if !state.ShareReserves.IsZero() || !state.BondReserves.IsZero() {
		t.Error("expected zeroed reserves before initialization")
	}

	pool := k.GetWithdrawPool(ctx)
	if !pool.Proceeds.IsZero() || !pool.ReadyToWithdraw.IsZero() {
		t.Error("expected an empty withdraw pool before initialization")
	}
}
