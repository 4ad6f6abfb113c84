package math

import (
	"errors"
	"fmt"
)

// ErrInsufficientReserves is returned when a trade asks the curve for more
// than the reserves can provide.
var ErrInsufficientReserves = errors.New("insufficient reserves for trade")

// SpotPrice returns the pool's spot price of bonds in terms of base,
// ((mu * z) / y)^t.
func SpotPrice(z, y, mu, timeStretch FixedPoint) FixedPoint {
	return mu.MulDivDown(z, y).Pow(timeStretch)
}

// KUp computes the YieldSpace invariant k = (c / mu) * (mu * z)^(1 - t) +
// y^(1 - t), rounding intermediates up so the result is an overestimate.
func KUp(z, y, c, mu, t FixedPoint) FixedPoint {
	oneMinusT := One().Sub(t)
	return c.MulDivUp(mu.MulUp(z).Pow(oneMinusT), mu).Add(y.Pow(oneMinusT))
}

// KDown computes the invariant rounding intermediates down, an underestimate.
func KDown(z, y, c, mu, t FixedPoint) FixedPoint {
	oneMinusT := One().Sub(t)
	return c.MulDivDown(mu.MulDown(z).Pow(oneMinusT), mu).Add(y.Pow(oneMinusT))
}

// BondsOutGivenSharesIn returns the bonds a trader receives for depositing dz
// shares, rounded down.
func BondsOutGivenSharesIn(z, y, c, mu, t, dz FixedPoint) (FixedPoint, error) {
	k := KUp(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	zTerm := mu.MulDown(z.Add(dz)).Pow(oneMinusT)
	zTerm = c.MulDivDown(zTerm, mu)
	if k.LT(zTerm) {
		return Zero(), fmt.Errorf("%w: share deposit %s overruns the curve", ErrInsufficientReserves, dz)
	}

	// Rounding the exponent up when the base exceeds one (and down otherwise)
	// rounds the ending bond reserves up, which rounds the payout down.
	yTerm := k.Sub(zTerm)
	if yTerm.GTE(One()) {
		yTerm = yTerm.Pow(One().DivUp(oneMinusT))
	} else {
		yTerm = yTerm.Pow(One().DivDown(oneMinusT))
	}
	if y.LT(yTerm) {
		return Zero(), fmt.Errorf("%w: payout exceeds bond reserves", ErrInsufficientReserves)
	}
	return y.Sub(yTerm), nil
}

// SharesInGivenBondsOut returns the shares a trader must pay to receive dy
// bonds, rounded up.
func SharesInGivenBondsOut(z, y, c, mu, t, dy FixedPoint) (FixedPoint, error) {
	k := KUp(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	if y.LT(dy) {
		return Zero(), fmt.Errorf("%w: bond payout %s exceeds bond reserves %s", ErrInsufficientReserves, dy, y)
	}
	yTerm := y.Sub(dy).Pow(oneMinusT)
	if k.LT(yTerm) {
		return Zero(), fmt.Errorf("%w: invariant underruns bond term", ErrInsufficientReserves)
	}

	zTerm := k.Sub(yTerm).MulDivUp(mu, c)
	if zTerm.GTE(One()) {
		zTerm = zTerm.Pow(One().DivUp(oneMinusT))
	} else {
		zTerm = zTerm.Pow(One().DivDown(oneMinusT))
	}
	zTerm = zTerm.DivUp(mu)

	if zTerm.LT(z) {
		return Zero(), fmt.Errorf("%w: ending share reserves below starting reserves", ErrInsufficientReserves)
	}
	return zTerm.Sub(z), nil
}

// SharesOutGivenBondsIn returns the shares a trader receives for selling dy
// bonds into the curve, rounded down. The result floors at zero.
func SharesOutGivenBondsIn(z, y, c, mu, t, dy FixedPoint) (FixedPoint, error) {
	k := KUp(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	yTerm := y.Add(dy).Pow(oneMinusT)
	if k.LT(yTerm) {
		return Zero(), fmt.Errorf("%w: bond sale %s overruns the curve", ErrInsufficientReserves, dy)
	}

	zTerm := k.Sub(yTerm).MulDivUp(mu, c)
	if zTerm.GTE(One()) {
		zTerm = zTerm.Pow(One().DivUp(oneMinusT))
	} else {
		zTerm = zTerm.Pow(One().DivDown(oneMinusT))
	}
	zTerm = zTerm.DivUp(mu)

	if z.GT(zTerm) {
		return z.Sub(zTerm), nil
	}
	return Zero(), nil
}

// BondsInGivenSharesOut returns the bonds a trader must sell to withdraw dz
// shares from the curve, rounded up.
func BondsInGivenSharesOut(z, y, c, mu, t, dz FixedPoint) (FixedPoint, error) {
	if z.LT(dz) {
		return Zero(), fmt.Errorf("%w: share payout %s exceeds share reserves %s", ErrInsufficientReserves, dz, z)
	}
	k := KUp(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	zTerm := mu.MulDown(z.Sub(dz)).Pow(oneMinusT)
	zTerm = c.MulDivDown(zTerm, mu)
	if k.LT(zTerm) {
		return Zero(), fmt.Errorf("%w: invariant underruns share term", ErrInsufficientReserves)
	}

	yTerm := k.Sub(zTerm)
	if yTerm.GTE(One()) {
		yTerm = yTerm.Pow(One().DivUp(oneMinusT))
	} else {
		yTerm = yTerm.Pow(One().DivDown(oneMinusT))
	}
	if yTerm.LT(y) {
		return Zero(), fmt.Errorf("%w: ending bond reserves below starting reserves", ErrInsufficientReserves)
	}
	return yTerm.Sub(y), nil
}

// MaxBuySharesIn returns the share deposit that moves the spot price to one,
// the largest long the curve supports.
func MaxBuySharesIn(z, y, c, mu, t FixedPoint) (FixedPoint, error) {
	k := KDown(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	optimalZ := k.DivDown(c.DivUp(mu).Add(One()))
	if optimalZ.GTE(One()) {
		optimalZ = optimalZ.Pow(One().DivDown(oneMinusT))
	} else {
		optimalZ = optimalZ.Pow(One().DivUp(oneMinusT))
	}
	optimalZ = optimalZ.DivDown(mu)

	if optimalZ.LT(z) {
		return Zero(), fmt.Errorf("%w: spot price already at the maximum", ErrInsufficientReserves)
	}
	return optimalZ.Sub(z), nil
}

// MaxBuyBondsOut returns the bond payout corresponding to MaxBuySharesIn.
func MaxBuyBondsOut(z, y, c, mu, t FixedPoint) (FixedPoint, error) {
	k := KUp(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	optimalY := k.DivUp(c.DivDown(mu).Add(One()))
	if optimalY.GTE(One()) {
		optimalY = optimalY.Pow(One().DivUp(oneMinusT))
	} else {
		optimalY = optimalY.Pow(One().DivDown(oneMinusT))
	}

	if y.LT(optimalY) {
		return Zero(), fmt.Errorf("%w: spot price already at the maximum", ErrInsufficientReserves)
	}
	return y.Sub(optimalY), nil
}

// MaxSellBondsIn returns the largest bond sale the curve supports before the
// share reserves hit the zMin floor.
func MaxSellBondsIn(z, y, c, mu, t, zMin FixedPoint) (FixedPoint, error) {
	k := KDown(z, y, c, mu, t)
	oneMinusT := One().Sub(t)

	floorTerm := c.MulDivUp(mu.MulUp(zMin).Pow(oneMinusT), mu)
	if k.LT(floorTerm) {
		return Zero(), fmt.Errorf("%w: reserves below the minimum floor", ErrInsufficientReserves)
	}
	optimalY := k.Sub(floorTerm)
	if optimalY.GTE(One()) {
		optimalY = optimalY.Pow(One().DivDown(oneMinusT))
	} else {
		optimalY = optimalY.Pow(One().DivUp(oneMinusT))
	}

	if optimalY.LT(y) {
		return Zero(), fmt.Errorf("%w: bond reserves above the drained maximum", ErrInsufficientReserves)
	}
	return optimalY.Sub(y), nil
}
