package keeper

import (
	"errors"
	"testing"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// TestInitialize tests seeding an empty pool
func TestInitialize(t *testing.T) {
	k, ctx, _, ledger := setupKeeper(t)
	cfg := testPoolConfig()
	lpShares := initTestPool(t, k, ctx, cfg)

	// The minimum share reserves are locked and excluded from the LP shares
	if !lpShares.Equal(hdmath.FromUint(99990)) {
		t.Errorf("expected 99990 lp shares, got %s", lpShares.String())
	}
	if !ledger.BalanceOf(ctx, types.AssetLP, "alice").Equal(lpShares) {
		t.Error("expected the lp shares to be minted to the destination")
	}

	state := k.GetMarketState(ctx)
	if !state.ShareReserves.Equal(hdmath.FromUint(100000)) {
		t.Errorf("expected 100000 share reserves, got %s", state.ShareReserves.String())
	}
	if !state.BondReserves.GT(state.ShareReserves) {
		t.Error("expected the bond reserves to price the pool below par")
	}

	// The bond reserves were solved so the pool opens at the target rate
	rate := spotRate(cfg, state)
	if absDiff(rate, hdmath.MustFromString("0.05")).GT(hdmath.MustFromString("0.000001")) {
		t.Errorf("expected a 5%% opening rate, got %s", rate.String())
	}

	// The initialization bucket carries a checkpoint
	cp, found := k.GetCheckpoint(ctx, genesisTime)
	if !found || !cp.IsSet() {
		t.Error("expected the opening checkpoint to be minted")
	}
}

// TestInitializeGuards tests the one-shot and sizing rules
func TestInitializeGuards(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, testPoolConfig())

	_, err := k.Initialize(ctx, "bob", hdmath.FromUint(1000), hdmath.MustFromString("0.05"), "bob", true)
	if !errors.Is(err, types.ErrPoolAlreadyInitialized) {
		t.Errorf("expected ErrPoolAlreadyInitialized, got %v", err)
	}
}

// TestInitializeSizing tests the minimum contribution rules
func TestInitializeSizing(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	if err := k.SetPoolConfig(ctx, testPoolConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := k.Initialize(ctx, "alice", hdmath.MustFromString("0.0001"), hdmath.MustFromString("0.05"), "alice", true)
	if !errors.Is(err, types.ErrBelowMinimumTransaction) {
		t.Errorf("expected ErrBelowMinimumTransaction, got %v", err)
	}

	// A contribution that does not clear the locked minimum is rejected
	_, err = k.Initialize(ctx, "alice", hdmath.FromUint(5), hdmath.MustFromString("0.05"), "alice", true)
	if !errors.Is(err, types.ErrInsufficientLiquidity) {
		t.Errorf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

// TestAddLiquidityPreservesSpotPrice tests that a deposit scales both reserves
func TestAddLiquidityPreservesSpotPrice(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	cfg := testPoolConfig()
	initTestPool(t, k, ctx, cfg)

	before := k.GetMarketState(ctx)
	spotBefore := hdmath.SpotPrice(before.ShareReserves, before.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)

	// With no open positions the pool's value per share is exactly one, so
	// 50000 base buys 50000 lp shares
	lpShares, err := k.AddLiquidity(ctx, "bob", hdmath.FromUint(50000), hdmath.Zero(), hdmath.One(), "bob", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lpShares.Equal(hdmath.FromUint(50000)) {
		t.Errorf("expected 50000 lp shares, got %s", lpShares.String())
	}

	after := k.GetMarketState(ctx)
	spotAfter := hdmath.SpotPrice(after.ShareReserves, after.BondReserves, cfg.InitialSharePrice, cfg.TimeStretch)
	if absDiff(spotBefore, spotAfter).GT(hdmath.MustFromString("0.000000001")) {
		t.Errorf("deposit moved the spot price from %s to %s", spotBefore.String(), spotAfter.String())
	}
}

// TestAddLiquidityRateBounds tests the APR guard
func TestAddLiquidityRateBounds(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, testPoolConfig())

	// The pool sits at ~5%; both a floor above and a cap below reject
	_, err := k.AddLiquidity(ctx, "bob", hdmath.FromUint(1000), hdmath.MustFromString("0.06"), hdmath.One(), "bob", true)
	if !errors.Is(err, types.ErrAprOutOfRange) {
		t.Errorf("expected ErrAprOutOfRange, got %v", err)
	}
	_, err = k.AddLiquidity(ctx, "bob", hdmath.FromUint(1000), hdmath.Zero(), hdmath.MustFromString("0.01"), "bob", true)
	if !errors.Is(err, types.ErrAprOutOfRange) {
		t.Errorf("expected ErrAprOutOfRange, got %v", err)
	}
}

// TestRemoveLiquidityFromIdle tests a withdrawal fully covered by idle capital
func TestRemoveLiquidityFromIdle(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, testPoolConfig())

	// Half the pool with no positions open is paid in full immediately
	proceeds, withdrawalShares, err := k.RemoveLiquidity(ctx, "alice", hdmath.FromUint(49995), hdmath.Zero(), "alice", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proceeds.Equal(hdmath.FromUint(49995)) {
		t.Errorf("expected 49995 base, got %s", proceeds.String())
	}
	if !withdrawalShares.IsZero() {
		t.Errorf("expected no withdrawal shares, got %s", withdrawalShares.String())
	}

	_, _, err = k.RemoveLiquidity(ctx, "alice", hdmath.FromUint(49995), hdmath.FromUint(60000), "alice", true)
	if !errors.Is(err, types.ErrSlippageExceeded) {
		t.Errorf("expected ErrSlippageExceeded, got %v", err)
	}
}

/// TestAddRemoveLiquidityRoundTrip tests that a provider who joins and leaves
// immediately gets their contribution back and leaves the reserves unmoved
func TestAddRemoveLiquidityRoundTrip(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, testPoolConfig())
	before := k.GetMarketState(ctx)

	lpShares, err := k.AddLiquidity(ctx, "bob", hdmath.FromUint(50000), hdmath.Zero(), hdmath.One(), "bob", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lpShares.Equal(hdmath.FromUint(50000)) {
		t.Errorf("expected 50000 LP shares, got %s", lpShares.String())
	}

	proceeds, withdrawalShares, err := k.RemoveLiquidity(ctx, "bob", lpShares, hdmath.Zero(), "bob", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proceeds.Equal(hdmath.FromUint(50000)) {
		t.Errorf("expected 50000 base back, got %s", proceeds.String())
	}
	if !withdrawalShares.IsZero() {
		t.Errorf("expected no withdrawal shares, got %s", withdrawalShares.String())
	}

	after := k.GetMarketState(ctx)
	if !after.ShareReserves.Equal(before.ShareReserves) {
		t.Errorf("expected share reserves %s, got %s", before.ShareReserves.String(), after.ShareReserves.String())
	}
	tolerance := hdmath.MustFromString("0.000000001")
	if absDiff(after.BondReserves, before.BondReserves).GT(tolerance) {
		t.Errorf("expected bond reserves near %s, got %s", before.BondReserves.String(), after.BondReserves.String())
	}
}

// TestWithdrawalShareLifecycle tests the deferred payout path: a withdrawal
// that exceeds idle capital mints withdrawal shares which redeem once the
// blocking position unwinds
func TestWithdrawalShareLifecycle(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	lpShares := initTestPool(t, k, ctx, testPoolConfig())

	maturity, bonds, err := k.OpenLong(ctx, "bob", hdmath.FromUint(25000), hdmath.Zero(), "bob", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The long's backing cannot leave the pool, so part of the withdrawal
	// converts into withdrawal shares
	proceeds, withdrawalShares, err := k.RemoveLiquidity(ctx, "alice", lpShares, hdmath.Zero(), "alice", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withdrawalShares.IsZero() {
		t.Fatal("expected withdrawal shares for the capital backing the long")
	}
	if proceeds.IsZero() || proceeds.GT(hdmath.FromUint(99990)) {
		t.Errorf("unexpected immediate proceeds %s", proceeds.String())
	}

	// Nothing is ready while the long still holds the capital
	_, _, err = k.RedeemWithdrawalShares(ctx, "alice", withdrawalShares, hdmath.Zero(), "alice", true)
	if !errors.Is(err, types.ErrNoWithdrawalCapacity) {
		t.Fatalf("expected ErrNoWithdrawalCapacity, got %v", err)
	}

	// Closing the long frees its backing into the withdraw pool
	if _, err := k.CloseLong(ctx, "bob", maturity, bonds, hdmath.Zero(), "bob", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	redeemed, sharesRedeemed, err := k.RedeemWithdrawalShares(ctx, "alice", withdrawalShares, hdmath.Zero(), "alice", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sharesRedeemed.IsZero() || sharesRedeemed.GT(withdrawalShares) {
		t.Errorf("unexpected shares redeemed %s of %s", sharesRedeemed.String(), withdrawalShares.String())
	}
	if redeemed.IsZero() {
		t.Error("expected the redemption to pay out")
	}
}

// TestRemoveLiquidityGuards tests the supply bound
func TestRemoveLiquidityGuards(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	lpShares := initTestPool(t, k, ctx, testPoolConfig())

	_, _, err := k.RemoveLiquidity(ctx, "alice", lpShares.Add(hdmath.One()), hdmath.Zero(), "alice", true)
	if !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

// TestCollectGovernanceFees tests fee accrual and collection
func TestCollectGovernanceFees(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, feePoolConfig())

	if _, _, err := k.OpenLong(ctx, "bob", hdmath.FromUint(1000), hdmath.Zero(), "bob", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := k.GetMarketState(ctx)
	if state.GovernanceFeesAccrued.IsZero() {
		t.Fatal("expected the trade to accrue governance fees")
	}

	proceeds, err := k.CollectGovernanceFees(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proceeds.IsZero() {
		t.Error("expected a payout to the collector")
	}
	if !k.GetMarketState(ctx).GovernanceFeesAccrued.IsZero() {
		t.Error("expected the accrual to reset after collection")
	}

	if _, err := k.CollectGovernanceFees(ctx); !errors.Is(err, types.ErrNothingToCollect) {
		t.Errorf("expected ErrNothingToCollect, got %v", err)
	}
}

// TestCollectWithoutAccrual tests collecting from a fee-free pool
func TestCollectWithoutAccrual(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)
	initTestPool(t, k, ctx, testPoolConfig())

	if _, err := k.CollectGovernanceFees(ctx); !errors.Is(err, types.ErrNothingToCollect) {
		t.Errorf("expected ErrNothingToCollect, got %v", err)
	}
}
