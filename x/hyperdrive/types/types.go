package types

import (
	"fmt"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
)

const (
	// ModuleName defines the module name
	ModuleName = "hyperdrive"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// SecondsPerYear is used to annualize position durations when quoting rates
	SecondsPerYear = 60 * 60 * 24 * 365
)

// Fees holds the pool's fee rates. All rates are 18-decimal fractions in [0, 1].
type Fees struct {
	Curve            hdmath.FixedPoint `json:"curve"`
	Flat             hdmath.FixedPoint `json:"flat"`
	GovernanceLP     hdmath.FixedPoint `json:"governance_lp"`
	GovernanceZombie hdmath.FixedPoint `json:"governance_zombie"`
}

// PoolConfig is the immutable configuration of a pool. It is written once at
// initialization and never mutated afterwards.
type PoolConfig struct {
	// InitialSharePrice is the vault share price at pool creation (mu).
	InitialSharePrice hdmath.FixedPoint `json:"initial_share_price"`
	// TimeStretch is the YieldSpace time stretch constant.
	TimeStretch hdmath.FixedPoint `json:"time_stretch"`
	// PositionDuration is the term of longs and shorts in seconds.
	PositionDuration uint64 `json:"position_duration"`
	// CheckpointDuration is the width of a checkpoint bucket in seconds.
	CheckpointDuration uint64 `json:"checkpoint_duration"`
	// MinimumShareReserves is the share reserve floor that can never be traded away.
	MinimumShareReserves hdmath.FixedPoint `json:"minimum_share_reserves"`
	// MinimumTransactionAmount is the smallest accepted trade or LP amount.
	MinimumTransactionAmount hdmath.FixedPoint `json:"minimum_transaction_amount"`
	Fees                     Fees              `json:"fees"`
	// FeeCollector receives collected governance fees.
	FeeCollector string `json:"fee_collector"`
}

// Validate checks the configuration invariants. Configuration errors are fatal
// at pool creation and are never recovered from.
func (c PoolConfig) Validate() error {
	if c.CheckpointDuration == 0 {
		return ErrInvalidConfiguration.Wrap("checkpoint duration must be positive")
	}
	if c.PositionDuration == 0 || c.PositionDuration%c.CheckpointDuration != 0 {
		return ErrInvalidConfiguration.Wrapf(
			"position duration %d must be a positive multiple of checkpoint duration %d",
			c.PositionDuration, c.CheckpointDuration,
		)
	}
	if c.InitialSharePrice.IsZero() {
		return ErrInvalidConfiguration.Wrap("initial share price must be positive")
	}
	if c.TimeStretch.IsZero() {
		return ErrInvalidConfiguration.Wrap("time stretch must be positive")
	}
	one := hdmath.One()
	for name, rate := range map[string]hdmath.FixedPoint{
		"curve":             c.Fees.Curve,
		"flat":              c.Fees.Flat,
		"governance_lp":     c.Fees.GovernanceLP,
		"governance_zombie": c.Fees.GovernanceZombie,
	} {
		if rate.GT(one) {
			return ErrInvalidConfiguration.Wrapf("%s fee rate exceeds one", name)
		}
	}
	return nil
}

// ToCheckpoint truncates a timestamp to its checkpoint bucket boundary.
func (c PoolConfig) ToCheckpoint(timestamp uint64) uint64 {
	return timestamp - timestamp%c.CheckpointDuration
}

// NormalizedTimeRemaining returns the fraction of the position duration left
// for a position maturing at maturityTime, as seen from the given checkpoint
// bucket. Matured positions have zero time remaining.
func (c PoolConfig) NormalizedTimeRemaining(maturityTime, bucket uint64) hdmath.FixedPoint {
	if maturityTime <= bucket {
		return hdmath.Zero()
	}
	// Round down to underestimate the time remaining.
	return hdmath.FromUint(maturityTime - bucket).DivDown(hdmath.FromUint(c.PositionDuration))
}

// AnnualizedPositionDuration returns the position duration as a fraction of a year.
func (c PoolConfig) AnnualizedPositionDuration() hdmath.FixedPoint {
	return hdmath.FromUint(c.PositionDuration).DivDown(hdmath.FromUint(SecondsPerYear))
}

// MarketState is the single mutable aggregate owned by the core. Every public
// operation stages a copy, validates the result, and commits it in one write.
type MarketState struct {
	// ShareReserves (z) and BondReserves (y) are the YieldSpace reserves.
	ShareReserves hdmath.FixedPoint `json:"share_reserves"`
	BondReserves  hdmath.FixedPoint `json:"bond_reserves"`
	// LongsOutstanding and ShortsOutstanding are aggregate open position sizes
	// in bonds.
	LongsOutstanding  hdmath.FixedPoint `json:"longs_outstanding"`
	ShortsOutstanding hdmath.FixedPoint `json:"shorts_outstanding"`
	// Average maturity times are weighted by position size and stored as
	// 18-decimal scaled seconds.
	LongAverageMaturityTime  hdmath.FixedPoint `json:"long_average_maturity_time"`
	ShortAverageMaturityTime hdmath.FixedPoint `json:"short_average_maturity_time"`
	// ShortBaseVolume tracks the base value the LPs locked to back open shorts.
	ShortBaseVolume hdmath.FixedPoint `json:"short_base_volume"`
	// LongOpenSharePrice is the weighted average vault share price at which the
	// outstanding longs were opened.
	LongOpenSharePrice hdmath.FixedPoint `json:"long_open_share_price"`
	// GovernanceFeesAccrued is the share-denominated governance fee balance
	// waiting to be collected.
	GovernanceFeesAccrued hdmath.FixedPoint `json:"governance_fees_accrued"`
}

// NewMarketState returns a zeroed market state.
func NewMarketState() MarketState {
	return MarketState{
		ShareReserves:            hdmath.Zero(),
		BondReserves:             hdmath.Zero(),
		LongsOutstanding:         hdmath.Zero(),
		ShortsOutstanding:        hdmath.Zero(),
		LongAverageMaturityTime:  hdmath.Zero(),
		ShortAverageMaturityTime: hdmath.Zero(),
		ShortBaseVolume:          hdmath.Zero(),
		LongOpenSharePrice:       hdmath.Zero(),
		GovernanceFeesAccrued:    hdmath.Zero(),
	}
}

// Checkpoint is a per-bucket snapshot. SharePrice is write-once: the first
// operation that touches a bucket records the vault share price and the field
// never changes afterwards. The volume fields track the base volume of the
// positions opened in this bucket and shrink as those positions close.
type Checkpoint struct {
	SharePrice     hdmath.FixedPoint `json:"share_price"`
	LongBaseVolume hdmath.FixedPoint `json:"long_base_volume"`
	ShortBaseVolume hdmath.FixedPoint `json:"short_base_volume"`
}

// NewCheckpoint returns an unset checkpoint.
func NewCheckpoint() Checkpoint {
	return Checkpoint{
		SharePrice:      hdmath.Zero(),
		LongBaseVolume:  hdmath.Zero(),
		ShortBaseVolume: hdmath.Zero(),
	}
}

// IsSet reports whether the checkpoint share price has been recorded.
func (c Checkpoint) IsSet() bool {
	return !c.SharePrice.IsZero()
}

// WithdrawPool tracks the capital queued for withdrawal share holders.
// Proceeds is share-denominated; ReadyToWithdraw never exceeds the total
// supply of withdrawal shares.
type WithdrawPool struct {
	Proceeds        hdmath.FixedPoint `json:"proceeds"`
	ReadyToWithdraw hdmath.FixedPoint `json:"ready_to_withdraw"`
}

// NewWithdrawPool returns an empty withdraw pool.
func NewWithdrawPool() WithdrawPool {
	return WithdrawPool{
		Proceeds:        hdmath.Zero(),
		ReadyToWithdraw: hdmath.Zero(),
	}
}

func (w WithdrawPool) String() string {
	return fmt.Sprintf("WithdrawPool{Proceeds: %s, ReadyToWithdraw: %s}",
		w.Proceeds.String(), w.ReadyToWithdraw.String())
}
