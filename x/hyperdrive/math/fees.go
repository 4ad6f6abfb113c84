package math

// Trade fees. Curve fees apply to the portion of a trade priced on the curve
// and flat fees to the portion settled at par. Governance fees carve a slice
// of each fee out for the fee collector. All results round down so fees never
// overcharge past the stated rate.

// OpenLongCurveFee returns the curve fee in bonds for a long opened with
// baseAmount of base: phi_c * (1 / p - 1) * baseAmount.
func OpenLongCurveFee(baseAmount, spotPrice, curveFee FixedPoint) FixedPoint {
	return curveFee.MulDown(One().DivDown(spotPrice).Sub(One())).MulDown(baseAmount)
}

// OpenLongGovernanceFee converts the curve fee into its governance slice,
// denominated in shares: phi_g * p * curveFee / c.
func OpenLongGovernanceFee(curveFeeBonds, spotPrice, governanceFee, sharePrice FixedPoint) FixedPoint {
	return governanceFee.MulDown(spotPrice).MulDivDown(curveFeeBonds, sharePrice)
}

// CloseLongCurveFee returns the curve fee in shares for closing bondAmount of
// longs with normalized time t remaining:
// phi_c * (1 - p) * bondAmount * t / c.
func CloseLongCurveFee(bondAmount, t, spotPrice, curveFee, sharePrice FixedPoint) FixedPoint {
	return curveFee.MulDown(One().Sub(spotPrice)).MulDown(bondAmount.MulDivDown(t, sharePrice))
}

// CloseLongFlatFee returns the flat fee in shares on the matured portion of a
// long close: bondAmount * (1 - t) * phi_f / c.
func CloseLongFlatFee(bondAmount, t, flatFee, sharePrice FixedPoint) FixedPoint {
	return bondAmount.MulDivDown(One().Sub(t), sharePrice).MulDown(flatFee)
}

// OpenShortCurveFee returns the curve fee in base for opening a short of
// bondAmount bonds: phi_c * (1 - p) * bondAmount.
func OpenShortCurveFee(bondAmount, spotPrice, curveFee FixedPoint) FixedPoint {
	return curveFee.MulDown(One().Sub(spotPrice)).MulDown(bondAmount)
}

// OpenShortGovernanceFee returns the governance slice of the short curve fee,
// denominated in shares.
func OpenShortGovernanceFee(curveFeeBase, governanceFee, sharePrice FixedPoint) FixedPoint {
	return governanceFee.MulDivDown(curveFeeBase, sharePrice)
}

// CloseShortCurveFee returns the curve fee in shares for closing bondAmount
// of shorts with normalized time t remaining.
func CloseShortCurveFee(bondAmount, t, spotPrice, curveFee, sharePrice FixedPoint) FixedPoint {
	return curveFee.MulDown(One().Sub(spotPrice)).MulDown(bondAmount.MulDivDown(t, sharePrice))
}

// CloseShortFlatFee returns the flat fee in shares on the matured portion of
// a short close.
func CloseShortFlatFee(bondAmount, t, flatFee, sharePrice FixedPoint) FixedPoint {
	return bondAmount.MulDivDown(One().Sub(t), sharePrice).MulDown(flatFee)
}

// MaxOpenLongSpotPrice returns the highest spot price a long may leave the
// pool at. Past this ceiling the fees on an immediate close would exceed the
// bond discount, so the buyer would be lending at a negative rate:
// p_max = (1 - phi_f) / (1 + phi_c * (1/p - 1) * (1 - phi_f)).
// The ceiling rounds down so the guard errs against the trader.
func MaxOpenLongSpotPrice(spotPrice, curveFee, flatFee FixedPoint) FixedPoint {
	denom := One().Add(
		curveFee.MulUp(One().DivUp(spotPrice).Sub(One())).MulUp(One().Sub(flatFee)),
	)
	return One().Sub(flatFee).DivDown(denom)
}
