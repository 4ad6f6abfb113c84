package math

import (
	"errors"

	sdkmath "cosmossdk.io/math"
)

// ErrNegativePresentValue is returned when the pool's liabilities exceed its
// capital. This indicates corrupted state and is never expected in practice.
var ErrNegativePresentValue = errors.New("negative present value")

// NetCurveBranch identifies which side of the book dominates when the pool's
// open positions are netted against each other.
type NetCurveBranch int

const (
	// Balanced means longs and shorts exactly offset on the curve.
	Balanced NetCurveBranch = iota
	// NetLong means the pool is net long and must sell bonds to unwind.
	NetLong
	// NetShort means the pool is net short and must buy bonds to unwind.
	NetShort
)

func (b NetCurveBranch) String() string {
	switch b {
	case NetLong:
		return "net_long"
	case NetShort:
		return "net_short"
	default:
		return "balanced"
	}
}

// PresentValueParams carries the pool snapshot the valuation is computed
// over. Average time remaining values are normalized fractions of the
// position duration.
type PresentValueParams struct {
	ShareReserves            FixedPoint
	BondReserves             FixedPoint
	SharePrice               FixedPoint
	InitialSharePrice        FixedPoint
	TimeStretch              FixedPoint
	MinimumShareReserves     FixedPoint
	LongsOutstanding         FixedPoint
	LongAverageTimeRemaining FixedPoint
	ShortsOutstanding        FixedPoint
	ShortAverageTimeRemaining FixedPoint
}

// NetCurveTrade values the curve-priced portion of the open positions by
// simulating the unwind trade against the current reserves. The result is a
// signed share delta. When the unwind overruns what the curve supports, the
// delta is clamped to the boundary the max-trade solvers recover.
func NetCurveTrade(p PresentValueParams) (sdkmath.Int, NetCurveBranch, error) {
	longExposure := p.LongsOutstanding.MulDown(p.LongAverageTimeRemaining)
	shortExposure := p.ShortsOutstanding.MulDown(p.ShortAverageTimeRemaining)

	switch {
	case longExposure.GT(shortExposure):
		net := longExposure.Sub(shortExposure)
		maxIn, err := MaxSellBondsIn(
			p.ShareReserves, p.BondReserves, p.SharePrice, p.InitialSharePrice,
			p.TimeStretch, p.MinimumShareReserves,
		)
		if err == nil && maxIn.GTE(net) {
			out, err := SharesOutGivenBondsIn(
				p.ShareReserves, p.BondReserves, p.SharePrice, p.InitialSharePrice,
				p.TimeStretch, net,
			)
			if err != nil {
				return sdkmath.ZeroInt(), NetLong, err
			}
			return out.Int().Neg(), NetLong, nil
		}
		// The net long position overruns the curve. Selling the max trade
		// leaves the share reserves at the floor.
		return p.ShareReserves.SubOrZero(p.MinimumShareReserves).Int().Neg(), NetLong, nil

	case shortExposure.GT(longExposure):
		net := shortExposure.Sub(longExposure)
		maxOut, err := MaxBuyBondsOut(
			p.ShareReserves, p.BondReserves, p.SharePrice, p.InitialSharePrice, p.TimeStretch,
		)
		if err == nil && maxOut.GTE(net) {
			in, err := SharesInGivenBondsOut(
				p.ShareReserves, p.BondReserves, p.SharePrice, p.InitialSharePrice,
				p.TimeStretch, net,
			)
			if err != nil {
				return sdkmath.ZeroInt(), NetShort, err
			}
			return in.Int(), NetShort, nil
		}
		// Buy everything the curve offers and value the remainder at par.
		maxShares, err := MaxBuySharesIn(
			p.ShareReserves, p.BondReserves, p.SharePrice, p.InitialSharePrice, p.TimeStretch,
		)
		if err != nil {
			return sdkmath.ZeroInt(), NetShort, err
		}
		remainder := net.SubOrZero(maxOut).DivDown(p.SharePrice)
		return maxShares.Add(remainder).Int(), NetShort, nil

	default:
		return sdkmath.ZeroInt(), Balanced, nil
	}
}

// NetFlatTrade values the par-settled portion of the open positions as a
// signed share delta: shorts pay in at par and longs are paid out at par.
func NetFlatTrade(p PresentValueParams) sdkmath.Int {
	shortFlat := p.ShortsOutstanding.MulDivDown(One().Sub(p.ShortAverageTimeRemaining), p.SharePrice)
	longFlat := p.LongsOutstanding.MulDivUp(One().Sub(p.LongAverageTimeRemaining), p.SharePrice)
	return shortFlat.Int().Sub(longFlat.Int())
}

// CalculatePresentValue returns the pool's capital in shares: the share
// reserves above the minimum floor plus the signed value of unwinding every
// open position.
func CalculatePresentValue(p PresentValueParams) (FixedPoint, error) {
	curve, _, err := NetCurveTrade(p)
	if err != nil {
		return Zero(), err
	}
	flat := NetFlatTrade(p)

	pv := p.ShareReserves.Int().
		Sub(p.MinimumShareReserves.Int()).
		Add(curve).
		Add(flat)
	if pv.IsNegative() {
		return Zero(), ErrNegativePresentValue
	}
	return New(pv), nil
}
