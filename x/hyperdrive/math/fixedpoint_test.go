package math

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func fp(s string) FixedPoint { return MustFromString(s) }

// TestBasicConstructors tests the fixed point constructors
func TestBasicConstructors(t *testing.T) {
	if !Zero().IsZero() {
		t.Error("expected Zero to be zero")
	}
	if One().String() != "1.000000000000000000" {
		t.Errorf("expected one, got %s", One().String())
	}
	if !FromUint(5).Equal(fp("5")) {
		t.Errorf("expected 5, got %s", FromUint(5).String())
	}
	if !fp("0.05").Equal(New(sdkmath.NewInt(50000000000000000))) {
		t.Errorf("expected 0.05, got %s", fp("0.05").String())
	}

	// The zero value must behave like Zero()
	var unset FixedPoint
	if !unset.IsZero() {
		t.Error("expected the zero value to be zero")
	}
	if !unset.Add(One()).Equal(One()) {
		t.Error("expected zero value + 1 == 1")
	}
}

// TestAddSub tests addition and subtraction
func TestAddSub(t *testing.T) {
	a := fp("1.5")
	b := fp("0.5")

	if !a.Add(b).Equal(fp("2")) {
		t.Errorf("expected 2, got %s", a.Add(b).String())
	}
	if !a.Sub(b).Equal(One()) {
		t.Errorf("expected 1, got %s", a.Sub(b).String())
	}

	// SubOrZero saturates instead of panicking
	if !b.SubOrZero(a).IsZero() {
		t.Errorf("expected zero, got %s", b.SubOrZero(a).String())
	}
	if !a.SubOrZero(b).Equal(One()) {
		t.Errorf("expected 1, got %s", a.SubOrZero(b).String())
	}
}

// TestSubUnderflowPanics tests that subtraction below zero panics
func TestSubUnderflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on underflow")
		}
	}()
	fp("0.5").Sub(One())
}

// TestDivisionByZeroPanics tests that division by zero panics
func TestDivisionByZeroPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on division by zero")
		}
	}()
	One().DivDown(Zero())
}

// TestMulDivRounding tests the rounding direction of the mul/div helpers
func TestMulDivRounding(t *testing.T) {
	three := FromUint(3)

	down := One().DivDown(three)
	up := One().DivUp(three)
	if down.String() != "0.333333333333333333" {
		t.Errorf("expected 1/3 rounded down, got %s", down.String())
	}
	if up.String() != "0.333333333333333334" {
		t.Errorf("expected 1/3 rounded up, got %s", up.String())
	}

	// Exact results are unaffected by the rounding direction
	half := fp("0.5")
	if !half.MulDown(half).Equal(fp("0.25")) {
		t.Errorf("expected 0.25, got %s", half.MulDown(half).String())
	}
	if !half.MulUp(half).Equal(fp("0.25")) {
		t.Errorf("expected 0.25, got %s", half.MulUp(half).String())
	}

	// MulDivUp exceeds MulDivDown by exactly one when there is a remainder
	a, b, d := FromUint(10), FromUint(10), three
	diff := a.MulDivUp(b, d).Sub(a.MulDivDown(b, d))
	if !diff.Equal(New(sdkmath.OneInt())) {
		t.Errorf("expected the rounded results to differ by 1, got %s", diff.Int().String())
	}
}

// TestMinMax tests the min and max helpers
func TestMinMax(t *testing.T) {
	a := fp("1.5")
	b := fp("2.5")
	if !Min(a, b).Equal(a) {
		t.Errorf("expected min %s, got %s", a.String(), Min(a, b).String())
	}
	if !Max(a, b).Equal(b) {
		t.Errorf("expected max %s, got %s", b.String(), Max(a, b).String())
	}
	if !Min(a, a).Equal(a) {
		t.Error("expected min of equal values to be the value")
	}
}

// TestExpInner tests the exponential against known values
func TestExpInner(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"exp(0)", "0", "1000000000000000000"},
		{"exp(1)", "1000000000000000000", "2718281828459045235"},
		{"exp(-1)", "-1000000000000000000", "367879441171442321"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			x, _ := new(big.Int).SetString(tc.input, 10)
			got := expInner(x)
			if got.String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got.String())
			}
		})
	}

	// Inputs below the underflow bound flush to zero
	tiny := new(big.Int).Neg(new(big.Int).Mul(big.NewInt(100), oneBig))
	if expInner(tiny).Sign() != 0 {
		t.Error("expected exp of a very negative input to be zero")
	}
}

// TestExpOverflowPanics tests that exp past the domain bound panics
func TestExpOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on exp overflow")
		}
	}()
	expInner(new(big.Int).Mul(big.NewInt(200), oneBig))
}

// TestLnInner tests the logarithm against known values
func TestLnInner(t *testing.T) {
	testCases := []struct {
		name     string
		input    int64
		expected string
	}{
		{"ln(1)", 1, "0"},
		{"ln(2)", 2, "693147180559945309"},
		{"ln(10)", 10, "2302585092994045683"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			x := new(big.Int).Mul(big.NewInt(tc.input), oneBig)
			got := lnInner(x)
			if got.String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got.String())
			}
		})
	}
}

// TestPow tests x^y against known values
func TestPow(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		exponent string
		expected string
	}{
		{"2^2", "2", "2", "3.999999999999999996"},
		{"4^0.5", "4", "0.5", "1.999999999999999999"},
		{"0.5^0.5", "0.5", "0.5", "0.707106781186547524"},
		{"0.9^0.1", "0.9", "0.1", "0.989519258206214392"},
		{"1.05^2", "1.05", "2", "1.102499999999999999"},
		{"x^0", "123.456", "0", "1.000000000000000000"},
		{"0^y", "0", "2.5", "0.000000000000000000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := fp(tc.base).Pow(fp(tc.exponent))
			if got.String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got.String())
			}
		})
	}
}

// TestUpdateWeightedAverage tests the running weighted average update
func TestUpdateWeightedAverage(t *testing.T) {
	// A zero delta weight leaves the average untouched
	avg := UpdateWeightedAverage(fp("1.5"), FromUint(100), FromUint(9), Zero(), true)
	if !avg.Equal(fp("1.5")) {
		t.Errorf("expected the average to be unchanged, got %s", avg.String())
	}

	// First add into an empty average takes the delta value
	avg = UpdateWeightedAverage(Zero(), Zero(), fp("1.5"), FromUint(100), true)
	if !avg.Equal(fp("1.5")) {
		t.Errorf("expected 1.5, got %s", avg.String())
	}

	// Adding equal weight averages the values
	avg = UpdateWeightedAverage(One(), FromUint(100), FromUint(2), FromUint(100), true)
	if !avg.Equal(fp("1.5")) {
		t.Errorf("expected 1.5, got %s", avg.String())
	}

	// Removing one side restores the other
	avg = UpdateWeightedAverage(fp("1.5"), FromUint(200), FromUint(2), FromUint(100), false)
	if !avg.Equal(One()) {
		t.Errorf("expected 1, got %s", avg.String())
	}

	// Removing the entire weight resets the average to zero
	avg = UpdateWeightedAverage(fp("1.5"), FromUint(100), FromUint(9), FromUint(100), false)
	if !avg.IsZero() {
		t.Errorf("expected zero after full removal, got %s", avg.String())
	}
}

// TestJSONRejectsNegative tests that negative values fail to unmarshal
func TestJSONRejectsNegative(t *testing.T) {
	var f FixedPoint
	if err := f.UnmarshalJSON([]byte(`"-1"`)); err == nil {
		t.Error("expected an error unmarshaling a negative value")
	}

	bz, err := fp("1.25").MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := f.UnmarshalJSON(bz); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !f.Equal(fp("1.25")) {
		t.Errorf("expected 1.25, got %s", f.String())
	}
}
