package math

import "testing"

func testPVParams() PresentValueParams {
	return PresentValueParams{
		ShareReserves:             FromUint(100000),
		BondReserves:              FromUint(105000),
		SharePrice:                One(),
		InitialSharePrice:         One(),
		TimeStretch:               fp("0.1"),
		MinimumShareReserves:      FromUint(10),
		LongsOutstanding:          Zero(),
		LongAverageTimeRemaining:  Zero(),
		ShortsOutstanding:         Zero(),
		ShortAverageTimeRemaining: Zero(),
	}
}

// TestPresentValueBalanced tests the valuation with no open positions
func TestPresentValueBalanced(t *testing.T) {
	p := testPVParams()

	delta, branch, err := NetCurveTrade(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != Balanced {
		t.Errorf("expected balanced branch, got %s", branch)
	}
	if !delta.IsZero() {
		t.Errorf("expected a zero curve delta, got %s", delta.String())
	}

	pv, err := CalculatePresentValue(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// With nothing open the pool is worth its reserves above the floor
	if !pv.Equal(FromUint(99990)) {
		t.Errorf("expected 99990, got %s", pv.String())
	}
}

// TestPresentValueNetLong tests the valuation when longs dominate
func TestPresentValueNetLong(t *testing.T) {
	p := testPVParams()
	p.LongsOutstanding = FromUint(1000)
	p.LongAverageTimeRemaining = One()

	delta, branch, err := NetCurveTrade(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != NetLong {
		t.Errorf("expected net long branch, got %s", branch)
	}
	// Unwinding sells the net long exposure into the curve
	if delta.String() != "-994164647864721898229" {
		t.Errorf("expected -994164647864721898229, got %s", delta.String())
	}

	pv, err := CalculatePresentValue(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pv.Int().String() != "98995835352135278101771" {
		t.Errorf("expected 98995835352135278101771, got %s", pv.Int().String())
	}
}

// TestPresentValueNetShort tests the valuation when shorts dominate
func TestPresentValueNetShort(t *testing.T) {
	p := testPVParams()
	p.ShortsOutstanding = FromUint(1000)
	p.ShortAverageTimeRemaining = One()

	delta, branch, err := NetCurveTrade(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != NetShort {
		t.Errorf("expected net short branch, got %s", branch)
	}
	if delta.String() != "996102710301347128867" {
		t.Errorf("expected 996102710301347128867, got %s", delta.String())
	}

	pv, err := CalculatePresentValue(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pv.Int().String() != "100986102710301347128867" {
		t.Errorf("expected 100986102710301347128867, got %s", pv.Int().String())
	}
}

// TestPresentValueClampsOversizedUnwind tests the boundary clamp when the net
// long exposure exceeds what the curve supports
func TestPresentValueClampsOversizedUnwind(t *testing.T) {
	p := testPVParams()
	p.LongsOutstanding = FromUint(200000)
	p.LongAverageTimeRemaining = One()

	delta, branch, err := NetCurveTrade(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != NetLong {
		t.Errorf("expected net long branch, got %s", branch)
	}
	// The unwind drains the reserves to the floor and stops there
	expected := FromUint(99990).Int().Neg()
	if !delta.Equal(expected) {
		t.Errorf("expected %s, got %s", expected.String(), delta.String())
	}

	pv, err := CalculatePresentValue(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pv.IsZero() {
		t.Errorf("expected a fully drained pool to value at zero, got %s", pv.String())
	}
}

// TestNetFlatTrade tests the par-settled leg of the valuation
func TestNetFlatTrade(t *testing.T) {
	p := testPVParams()
	p.ShortsOutstanding = FromUint(2000)
	p.ShortAverageTimeRemaining = fp("0.5")
	p.LongsOutstanding = FromUint(1000)
	p.LongAverageTimeRemaining = fp("0.5")

	// Shorts pay 2000 * 0.5 at par, longs draw 1000 * 0.5
	flat := NetFlatTrade(p)
	if !flat.Equal(FromUint(500).Int()) {
		t.Errorf("expected 500, got %s", flat.String())
	}

	// Fully matured longs settle entirely flat
	p.ShortsOutstanding = Zero()
	p.ShortAverageTimeRemaining = Zero()
	p.LongAverageTimeRemaining = Zero()
	flat = NetFlatTrade(p)
	if !flat.Equal(FromUint(1000).Int().Neg()) {
		t.Errorf("expected -1000, got %s", flat.String())
	}
}

// TestNetCurveBranchString tests the branch labels
func TestNetCurveBranchString(t *testing.T) {
	if Balanced.String() != "balanced" {
		t.Errorf("unexpected label %s", Balanced.String())
	}
	if NetLong.String() != "net_long" {
		t.Errorf("unexpected label %s", NetLong.String())
	}
	if NetShort.String() != "net_short" {
		t.Errorf("unexpected label %s", NetShort.String())
	}
}
