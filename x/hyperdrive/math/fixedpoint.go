// Package math implements the 18-decimal fixed point arithmetic the pricing
// engine is built on. Values are non-negative and scaled by 1e18; every
// operation states its rounding direction so callers can always round in the
// pool's favor.
package math

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// DecimalPrecision is the number of decimal places carried by FixedPoint.
const DecimalPrecision = 18

// Arithmetic faults panic with these sentinels. Keeper entry points recover
// them at the operation boundary and translate them into module errors.
var (
	ErrOverflow        = errors.New("fixed point overflow")
	ErrUnderflow       = errors.New("fixed point underflow")
	ErrDivisionByZero  = errors.New("fixed point division by zero")
	ErrInvalidExponent = errors.New("fixed point exponent out of range")
	ErrLnDomain        = errors.New("fixed point ln of zero")
)

var (
	oneBig   = new(big.Int).Exp(big.NewInt(10), big.NewInt(DecimalPrecision), nil)
	maxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
)

// FixedPoint is a non-negative 18-decimal fixed point number backed by a
// sdkmath.Int. The zero value is usable and equal to Zero().
type FixedPoint struct {
	i sdkmath.Int
}

// Zero returns the fixed point zero.
func Zero() FixedPoint { return FixedPoint{sdkmath.ZeroInt()} }

// One returns the fixed point one (1e18).
func One() FixedPoint { return FixedPoint{sdkmath.NewIntFromBigInt(oneBig)} }

// New wraps a raw 18-decimal scaled integer. Negative inputs panic.
func New(i sdkmath.Int) FixedPoint {
	if i.IsNegative() {
		panic(ErrUnderflow)
	}
	return FixedPoint{i}
}

// FromUint converts a whole number of units into fixed point.
func FromUint(v uint64) FixedPoint {
	return fromBig(new(big.Int).Mul(new(big.Int).SetUint64(v), oneBig))
}

// FromDec converts a LegacyDec into fixed point. Negative inputs panic.
func FromDec(d sdkmath.LegacyDec) FixedPoint {
	if d.IsNegative() {
		panic(ErrUnderflow)
	}
	return FixedPoint{sdkmath.NewIntFromBigInt(d.BigInt())}
}

// MustFromString parses a decimal string such as "0.05" into fixed point.
func MustFromString(s string) FixedPoint {
	return FromDec(sdkmath.LegacyMustNewDecFromStr(s))
}

func fromBig(v *big.Int) FixedPoint {
	if v.Sign() < 0 {
		panic(ErrUnderflow)
	}
	if v.Cmp(maxValue) > 0 {
		panic(ErrOverflow)
	}
	return FixedPoint{sdkmath.NewIntFromBigInt(v)}
}

// Int returns the raw 18-decimal scaled integer.
func (f FixedPoint) Int() sdkmath.Int {
	if f.i.IsNil() {
		return sdkmath.ZeroInt()
	}
	return f.i
}

// BigInt returns a copy of the raw scaled value.
func (f FixedPoint) BigInt() *big.Int { return f.Int().BigInt() }

// Dec converts the value into a LegacyDec.
func (f FixedPoint) Dec() sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecFromBigIntWithPrec(f.BigInt(), DecimalPrecision)
}

func (f FixedPoint) String() string { return f.Dec().String() }

// MarshalJSON implements json.Marshaler.
func (f FixedPoint) MarshalJSON() ([]byte, error) { return f.Int().MarshalJSON() }

// UnmarshalJSON implements json.Unmarshaler.
func (f *FixedPoint) UnmarshalJSON(bz []byte) error {
	var i sdkmath.Int
	if err := i.UnmarshalJSON(bz); err != nil {
		return err
	}
	if i.IsNegative() {
		return ErrUnderflow
	}
	f.i = i
	return nil
}

func (f FixedPoint) IsZero() bool            { return f.Int().IsZero() }
func (f FixedPoint) Equal(g FixedPoint) bool { return f.Int().Equal(g.Int()) }
func (f FixedPoint) GT(g FixedPoint) bool    { return f.Int().GT(g.Int()) }
func (f FixedPoint) GTE(g FixedPoint) bool   { return f.Int().GTE(g.Int()) }
func (f FixedPoint) LT(g FixedPoint) bool    { return f.Int().LT(g.Int()) }
func (f FixedPoint) LTE(g FixedPoint) bool   { return f.Int().LTE(g.Int()) }

// Min returns the smaller of a and b.
func Min(a, b FixedPoint) FixedPoint {
	if a.LTE(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b FixedPoint) FixedPoint {
	if a.GTE(b) {
		return a
	}
	return b
}

// Add returns f + g, panicking with ErrOverflow past 2^255 - 1.
func (f FixedPoint) Add(g FixedPoint) FixedPoint {
	return fromBig(new(big.Int).Add(f.BigInt(), g.BigInt()))
}

// Sub returns f - g, panicking with ErrUnderflow if g exceeds f.
func (f FixedPoint) Sub(g FixedPoint) FixedPoint {
	if f.LT(g) {
		panic(ErrUnderflow)
	}
	return fromBig(new(big.Int).Sub(f.BigInt(), g.BigInt()))
}

// SubOrZero returns f - g, saturating at zero.
func (f FixedPoint) SubOrZero(g FixedPoint) FixedPoint {
	if f.LTE(g) {
		return Zero()
	}
	return f.Sub(g)
}

// MulDivDown returns f * g / d with the full-width product, rounding down.
func (f FixedPoint) MulDivDown(g, d FixedPoint) FixedPoint {
	if d.IsZero() {
		panic(ErrDivisionByZero)
	}
	r := new(big.Int).Mul(f.BigInt(), g.BigInt())
	return fromBig(r.Quo(r, d.BigInt()))
}

// MulDivUp returns f * g / d with the full-width product, rounding up.
func (f FixedPoint) MulDivUp(g, d FixedPoint) FixedPoint {
	if d.IsZero() {
		panic(ErrDivisionByZero)
	}
	num := new(big.Int).Mul(f.BigInt(), g.BigInt())
	quo, rem := new(big.Int).QuoRem(num, d.BigInt(), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return fromBig(quo)
}

// MulDown returns f * g rounded down.
func (f FixedPoint) MulDown(g FixedPoint) FixedPoint { return f.MulDivDown(g, One()) }

// MulUp returns f * g rounded up.
func (f FixedPoint) MulUp(g FixedPoint) FixedPoint { return f.MulDivUp(g, One()) }

// DivDown returns f / g rounded down.
func (f FixedPoint) DivDown(g FixedPoint) FixedPoint { return f.MulDivDown(One(), g) }

// DivUp returns f / g rounded up.
func (f FixedPoint) DivUp(g FixedPoint) FixedPoint { return f.MulDivUp(One(), g) }

// Pow returns f^y computed as exp(y * ln(f)). A zero exponent yields one and
// a zero base yields zero.
func (f FixedPoint) Pow(y FixedPoint) FixedPoint {
	if y.IsZero() {
		return One()
	}
	if f.IsZero() {
		return Zero()
	}
	lnx := lnInner(f.BigInt())
	ylnx := new(big.Int).Mul(y.BigInt(), lnx)
	ylnx.Quo(ylnx, oneBig)
	return fromBig(expInner(ylnx))
}

// UpdateWeightedAverage folds a delta into a running weighted average. Adding
// rounds the new average up and removing rounds it down, so the tracked
// exposure is never understated. Removing the entire weight resets the
// average to zero.
func UpdateWeightedAverage(average, totalWeight, delta, deltaWeight FixedPoint, isAdding bool) FixedPoint {
	if deltaWeight.IsZero() {
		return average
	}
	if isAdding {
		return totalWeight.MulDown(average).
			Add(deltaWeight.MulDown(delta)).
			DivUp(totalWeight.Add(deltaWeight))
	}
	if totalWeight.Equal(deltaWeight) {
		return Zero()
	}
	weighted := totalWeight.MulDown(average)
	removed := deltaWeight.MulDown(delta)
	if removed.GTE(weighted) {
		return Zero()
	}
	return weighted.Sub(removed).DivDown(totalWeight.Sub(deltaWeight))
}

var (
	// exp is only defined on (-42.14, 135.31) in 18-decimal terms.
	expMinInput = mustBig("-42139678854452767551")
	expMaxInput = mustBig("135305999368893231589")
	// 5^18, used to convert between the 1e18 and 2^96 bases.
	pow5to18 = mustBig("3814697265625")
	// ln(2) in 2^96 basis.
	ln2Basis96 = mustBig("54916777467707473351141471128")
	twoPow95   = new(big.Int).Lsh(big.NewInt(1), 95)

	expP0 = mustBig("1346386616545796478920950773328")
	expP1 = mustBig("57155421227552351082224309758442")
	expP2 = mustBig("94201549194550492254356042504812")
	expP3 = mustBig("28719021644029726153956944680412240")
	expP4 = new(big.Int).Lsh(mustBig("4385272521454847904659076985693276"), 96)

	expQ0 = mustBig("2855989394907223263936484059900")
	expQ1 = mustBig("50020603652535783019961831881945")
	expQ2 = mustBig("533845033583426703283633433725380")
	expQ3 = mustBig("3604857256930695427073651918091429")
	expQ4 = mustBig("14423608567350463180887372962807573")
	expQ5 = mustBig("26449188498355588339934803723976023")

	// Scale factor folding s ~= 6.0313671204, 1e18 / 2^96 and the 2^k range
	// reduction into a single 2^213 basis multiply.
	expScale = mustHex("0x29d9dc38563c32e5c2f6dc192ee70ef65f9978af3")

	lnP0 = mustBig("3273285459638523848632254066296")
	lnP1 = mustBig("24828157081833163892658089445524")
	lnP2 = mustBig("43456485725739037958740375743393")
	lnP3 = mustBig("11111509109440967052023855526967")
	lnP4 = mustBig("45023709667254063763336534515857")
	lnP5 = mustBig("14706773417378608786704636184526")
	lnP6 = new(big.Int).Lsh(mustBig("795164235651350426258249787498"), 96)

	lnQ0 = mustBig("5573035233440673466300451813936")
	lnQ1 = mustBig("71694874799317883764090561454958")
	lnQ2 = mustBig("283447036172924575727196451306956")
	lnQ3 = mustBig("401686690394027663651624208769553")
	lnQ4 = mustBig("204048457590392012362485061816622")
	lnQ5 = mustBig("31853899698501571402653359427138")
	lnQ6 = mustBig("909429971244387300277376558375")

	// s * 5e18 * 2^96
	lnScale = mustHex("0x1340daa0d5f769dba1915cef59f0815a5506")
	// ln(2) * 5e18 * 2^192, multiplied by k
	lnK = mustHex("0x267a36c0c95b3975ab3ee5b203a7614a3f75373f047d803ae7b6687f2b3")
	// ln(2^96 / 10^18) * 5e18 * 2^192
	lnBase = mustHex("0x57115e47018c7177eebf7cd370a3356a1b7863008a5ae8028c72b8864284")
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad constant: " + s)
	}
	return v
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic("bad constant: " + s)
	}
	return v
}

// sar96 is an arithmetic shift right by 96 bits. big.Int's Rsh already floors
// for negative values, matching two's complement behavior.
func sar96(v *big.Int) *big.Int { return v.Rsh(v, 96) }

// expInner computes e^x for x in 1e18 basis using a (6,7)-term rational
// approximation in 2^96 basis. Results below 0.5e-18 flush to zero; inputs
// above ~135e18 panic since the result would not fit in 255 bits.
func expInner(x *big.Int) *big.Int {
	if x.Cmp(expMinInput) <= 0 {
		return big.NewInt(0)
	}
	if x.Cmp(expMaxInput) >= 0 {
		panic(ErrInvalidExponent)
	}

	// Convert from 1e18 to 2^96 basis: multiply by 2^78 / 5^18.
	x = new(big.Int).Lsh(x, 78)
	x.Quo(x, pow5to18)

	// Factor out powers of two: exp(x) = exp(x') * 2^k with
	// k = round(x / ln 2) and x' = x - k * ln 2.
	k := new(big.Int).Lsh(x, 96)
	k.Quo(k, ln2Basis96)
	k.Add(k, twoPow95)
	sar96(k)
	x.Sub(x, new(big.Int).Mul(k, ln2Basis96))

	y := new(big.Int).Add(x, expP0)
	sar96(y.Mul(y, x)).Add(y, expP1)
	p := new(big.Int).Add(y, x)
	p.Sub(p, expP2)
	sar96(p.Mul(p, y)).Add(p, expP3)
	p.Mul(p, x).Add(p, expP4)

	q := new(big.Int).Sub(x, expQ0)
	sar96(q.Mul(q, x)).Add(q, expQ1)
	sar96(q.Mul(q, x)).Sub(q, expQ2)
	sar96(q.Mul(q, x)).Add(q, expQ3)
	sar96(q.Mul(q, x)).Sub(q, expQ4)
	sar96(q.Mul(q, x)).Add(q, expQ5)

	r := new(big.Int).Quo(p, q)

	// Fold in the scale factor, the 2^k range reduction and the base
	// conversion through a 2^213 basis intermediate.
	r.Mul(r, expScale)
	shift := uint(new(big.Int).Sub(big.NewInt(195), k).Uint64())
	return r.Rsh(r, shift)
}

// lnInner computes ln(x) for x > 0 in 1e18 basis using an (8,8)-term rational
// approximation in 2^96 basis.
func lnInner(x *big.Int) *big.Int {
	if x.Sign() <= 0 {
		panic(ErrLnDomain)
	}

	// k = floor(log2(x)) - 96, then normalize x into (1, 2) * 2^96.
	k := int64(x.BitLen() - 1 - 96)
	x = new(big.Int).Lsh(x, uint(159-k))
	x.Rsh(x, 159)

	p := new(big.Int).Add(x, lnP0)
	sar96(p.Mul(p, x)).Add(p, lnP1)
	sar96(p.Mul(p, x)).Add(p, lnP2)
	sar96(p.Mul(p, x)).Sub(p, lnP3)
	sar96(p.Mul(p, x)).Sub(p, lnP4)
	sar96(p.Mul(p, x)).Sub(p, lnP5)
	p.Mul(p, x).Sub(p, lnP6)

	q := new(big.Int).Add(x, lnQ0)
	sar96(q.Mul(q, x)).Add(q, lnQ1)
	sar96(q.Mul(q, x)).Add(q, lnQ2)
	sar96(q.Mul(q, x)).Add(q, lnQ3)
	sar96(q.Mul(q, x)).Add(q, lnQ4)
	sar96(q.Mul(q, x)).Add(q, lnQ5)
	sar96(q.Mul(q, x)).Add(q, lnQ6)

	r := new(big.Int).Quo(p, q)

	// Finalize: multiply by the scale factor, add k*ln(2) and the base
	// conversion constant, then shift back down to 1e18 basis.
	r.Mul(r, lnScale)
	r.Add(r, new(big.Int).Mul(lnK, big.NewInt(k)))
	r.Add(r, lnBase)
	return r.Rsh(r, 174)
}
