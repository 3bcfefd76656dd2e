package num

import "math/big"

// Price is a positive rational Num/Denom, both unsigned 256-bit integers,
// read as "units of quote per unit of base". Prices are never normalized by
// GCD: two Price values with different Num/Denom representations are
// distinct as stored, but compare equal via cross-multiplication if they
// represent the same ratio.
type Price struct {
	Num   *big.Int
	Denom *big.Int
}

// NewPrice constructs a Price from uint64 literals, primarily for tests and
// wire decoding of small values.
func NewPrice(num, denom uint64) Price {
	return Price{Num: FromUint64(num), Denom: FromUint64(denom)}
}

// Validate checks that the price is well-formed: both components positive
// and within 256 bits.
func (p Price) Validate() error {
	if p.Num == nil || p.Denom == nil {
		return ErrNegative
	}
	if p.Num.Sign() <= 0 || p.Denom.Sign() <= 0 {
		return ErrNegative
	}
	if err := CheckFits(p.Num); err != nil {
		return err
	}
	return CheckFits(p.Denom)
}

// Less reports whether p < o, computed by cross-multiplication
// (p.Num*o.Denom < o.Num*p.Denom) so no normalization or floating point is
// ever involved. The cross products can exceed 256 bits; that is fine, they
// are never stored, only compared.
func (p Price) Less(o Price) bool {
	lhs := new(big.Int).Mul(p.Num, o.Denom)
	rhs := new(big.Int).Mul(o.Num, p.Denom)
	return lhs.Cmp(rhs) < 0
}

// Greater reports whether p > o.
func (p Price) Greater(o Price) bool {
	return o.Less(p)
}

// Equal reports whether p and o represent the same ratio.
func (p Price) Equal(o Price) bool {
	lhs := new(big.Int).Mul(p.Num, o.Denom)
	rhs := new(big.Int).Mul(o.Num, p.Denom)
	return lhs.Cmp(rhs) == 0
}

// LessOrEqual reports whether p <= o.
func (p Price) LessOrEqual(o Price) bool {
	return p.Less(o) || p.Equal(o)
}

// GreaterOrEqual reports whether p >= o.
func (p Price) GreaterOrEqual(o Price) bool {
	return o.Less(p) || p.Equal(o)
}

// QuoteForSeller returns the quote amount a seller receives for delivering
// base units at this price, rounded down (mul_div_floor(base, Num, Denom)).
func (p Price) QuoteForSeller(base *Amount) (*Amount, error) {
	return MulDivFloor(base, p.Num, p.Denom)
}

// QuoteForBuyer returns the quote amount a buyer must pay to receive base
// units at this price, rounded up (mul_div_ceil(base, Num, Denom)).
func (p Price) QuoteForBuyer(base *Amount) (*Amount, error) {
	return MulDivCeil(base, p.Num, p.Denom)
}

// BaseForBuyer returns the base amount a buyer receives for spending quote
// units at this price, rounded down (mul_div_floor(quote, Denom, Num)).
func (p Price) BaseForBuyer(quote *Amount) (*Amount, error) {
	return MulDivFloor(quote, p.Denom, p.Num)
}

// BaseForSeller returns the base amount a seller must deliver to receive
// quote units at this price, rounded up (mul_div_ceil(quote, Denom, Num)).
func (p Price) BaseForSeller(quote *Amount) (*Amount, error) {
	return MulDivCeil(quote, p.Denom, p.Num)
}
