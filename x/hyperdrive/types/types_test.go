package types

import (
	"errors"
	"testing"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
)

func validConfig() PoolConfig {
	return PoolConfig{
		InitialSharePrice:        hdmath.One(),
		TimeStretch:              hdmath.MustFromString("0.1"),
		PositionDuration:         31536000,
		CheckpointDuration:       86400,
		MinimumShareReserves:     hdmath.FromUint(10),
		MinimumTransactionAmount: hdmath.MustFromString("0.001"),
		Fees: Fees{
			Curve:            hdmath.MustFromString("0.1"),
			Flat:             hdmath.MustFromString("0.0005"),
			GovernanceLP:     hdmath.MustFromString("0.15"),
			GovernanceZombie: hdmath.MustFromString("0.03"),
		},
		FeeCollector: "collector",
	}
}

// TestPoolConfigValidate tests the configuration invariants
func TestPoolConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected a valid config, got %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*PoolConfig)
	}{
		{"zero checkpoint duration", func(c *PoolConfig) { c.CheckpointDuration = 0 }},
		{"zero position duration", func(c *PoolConfig) { c.PositionDuration = 0 }},
		{"misaligned position duration", func(c *PoolConfig) { c.PositionDuration = 86401 }},
		{"zero initial share price", func(c *PoolConfig) { c.InitialSharePrice = hdmath.Zero() }},
		{"zero time stretch", func(c *PoolConfig) { c.TimeStretch = hdmath.Zero() }},
		{"curve fee above one", func(c *PoolConfig) { c.Fees.Curve = hdmath.MustFromString("1.1") }},
		{"governance fee above one", func(c *PoolConfig) { c.Fees.GovernanceLP = hdmath.MustFromString("2") }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

// TestToCheckpoint tests timestamp bucketing
func TestToCheckpoint(t *testing.T) {
	cfg := validConfig()

	if got := cfg.ToCheckpoint(1700006400); got != 1700006400 {
		t.Errorf("expected a boundary to map to itself, got %d", got)
	}
	if got := cfg.ToCheckpoint(1700006400 + 12345); got != 1700006400 {
		t.Errorf("expected 1700006400, got %d", got)
	}
	if got := cfg.ToCheckpoint(1700006400 + 86399); got != 1700006400 {
		t.Errorf("expected the bucket to cover its full width, got %d", got)
	}
}

// TestNormalizedTimeRemaining tests the maturity fraction calculation
func TestNormalizedTimeRemaining(t *testing.T) {
	cfg := validConfig()
	bucket := uint64(1700006400)

	// A freshly opened position has the full duration remaining
	full := cfg.NormalizedTimeRemaining(bucket+cfg.PositionDuration, bucket)
	if !full.Equal(hdmath.One()) {
		t.Errorf("expected 1, got %s", full.String())
	}

	// Halfway through the term
	half := cfg.NormalizedTimeRemaining(bucket+cfg.PositionDuration, bucket+cfg.PositionDuration/2)
	if !half.Equal(hdmath.MustFromString("0.5")) {
		t.Errorf("expected 0.5, got %s", half.String())
	}

	// Matured positions have nothing remaining
	if !cfg.NormalizedTimeRemaining(bucket, bucket).IsZero() {
		t.Error("expected zero at maturity")
	}
	if !cfg.NormalizedTimeRemaining(bucket, bucket+86400).IsZero() {
		t.Error("expected zero past maturity")
	}
}

// TestAnnualizedPositionDuration tests the year fraction
func TestAnnualizedPositionDuration(t *testing.T) {
	cfg := validConfig()
	if !cfg.AnnualizedPositionDuration().Equal(hdmath.One()) {
		t.Errorf("expected a one year term to annualize to 1, got %s",
			cfg.AnnualizedPositionDuration().String())
	}

	cfg.PositionDuration = 31536000 / 2
	if !cfg.AnnualizedPositionDuration().Equal(hdmath.MustFromString("0.5")) {
		t.Errorf("expected 0.5, got %s", cfg.AnnualizedPositionDuration().String())
	}
}

// TestAssetIDs tests position asset ID construction and parsing
func TestAssetIDs(t *testing.T) {
	longID := LongAssetID(1731542400)
	if longID != "hyperdrive/long/1731542400" {
		t.Errorf("unexpected long asset id %s", longID)
	}

	prefix, maturity, err := ParseAssetID(longID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix != "hyperdrive/long" || maturity != 1731542400 {
		t.Errorf("expected hyperdrive/long at 1731542400, got %s at %d", prefix, maturity)
	}

	prefix, maturity, err = ParseAssetID(ShortAssetID(86400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix != "hyperdrive/short" || maturity != 86400 {
		t.Errorf("expected hyperdrive/short at 86400, got %s at %d", prefix, maturity)
	}

	// LP and withdrawal share IDs carry no maturity
	if _, maturity, err = ParseAssetID(AssetLP); err != nil || maturity != 0 {
		t.Errorf("expected the LP asset to parse with zero maturity, got %d, %v", maturity, err)
	}

	for _, bad := range []string{"bonds", "hyperdrive/bond/123", "hyperdrive/long/abc"} {
		if _, _, err := ParseAssetID(bad); err == nil {
			t.Errorf("expected %q to fail parsing", bad)
		}
	}
}

// TestCheckpointIsSet tests the write-once marker
func TestCheckpointIsSet(t *testing.T) {
	cp := NewCheckpoint()
	if cp.IsSet() {
		t.Error("expected a fresh checkpoint to be unset")
	}
	cp.SharePrice = hdmath.One()
	if !cp.IsSet() {
		t.Error("expected a priced checkpoint to be set")
	}
}

// TestParseAmount tests amount string parsing
func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("contribution", "123.456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(hdmath.MustFromString("123.456")) {
		t.Errorf("expected 123.456, got %s", amount.String())
	}

	if _, err := ParseAmount("contribution", "-1"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for a negative amount, got %v", err)
	}
	if _, err := ParseAmount("contribution", "not-a-number"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for garbage input, got %v", err)
	}
}
