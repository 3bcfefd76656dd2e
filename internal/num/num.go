// Package num implements the engine's checked rational-arithmetic core.
//
// Amounts and price components are unsigned 256-bit integers per the spec.
// Go has no native 256-bit integer, so values are carried as *big.Int and
// bounds-checked against Max256 after every operation that could grow past
// it. big.Int itself never overflows internally (it grows as needed), which
// gives us the "512-bit intermediate" the cross-multiplication and mul-div
// rules require for free — we only need to reject results that don't fit
// back into 256 bits.
package num

import (
	"errors"
	"math/big"
)

var (
	// ErrOverflow is returned when a computed value does not fit in an
	// unsigned 256-bit integer.
	ErrOverflow = errors.New("num: overflow")
	// ErrDivideByZero is returned by mul_div_floor/mul_div_ceil when the
	// divisor is zero.
	ErrDivideByZero = errors.New("num: division by zero")
	// ErrNegative is returned when a value that must be non-negative is
	// negative. The engine never constructs negative amounts, but inputs
	// crossing the host boundary are validated defensively.
	ErrNegative = errors.New("num: negative value")
)

// Max256 is the largest representable unsigned 256-bit integer.
var Max256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Amount is an unsigned 256-bit integer in a token's smallest unit.
type Amount = big.Int

// Zero returns a fresh zero Amount. Each call allocates a distinct value;
// callers must never share a single Amount pointer across mutation sites.
func Zero() *Amount { return new(big.Int) }

// FromUint64 constructs an Amount from a uint64 literal.
func FromUint64(v uint64) *Amount { return new(big.Int).SetUint64(v) }

// CheckFits returns ErrOverflow if v does not fit in [0, Max256], and
// ErrNegative if v is negative.
func CheckFits(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegative
	}
	if v.Cmp(Max256) > 0 {
		return ErrOverflow
	}
	return nil
}

// MulDivFloor computes floor(a*b / c), failing with ErrOverflow if the
// result does not fit in 256 bits, or ErrDivideByZero if c == 0.
func MulDivFloor(a, b, c *big.Int) (*Amount, error) {
	if c.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	product := new(big.Int).Mul(a, b)
	result := new(big.Int).Div(product, c)
	if err := CheckFits(result); err != nil {
		return nil, err
	}
	return result, nil
}

// MulDivCeil computes ceil(a*b / c), failing with ErrOverflow if the result
// does not fit in 256 bits, or ErrDivideByZero if c == 0.
func MulDivCeil(a, b, c *big.Int) (*Amount, error) {
	if c.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	product := new(big.Int).Mul(a, b)
	result, rem := new(big.Int).QuoRem(product, c, new(big.Int))
	if rem.Sign() != 0 {
		result.Add(result, big.NewInt(1))
	}
	if err := CheckFits(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Add returns a+b, failing with ErrOverflow if the sum does not fit in 256
// bits.
func Add(a, b *big.Int) (*Amount, error) {
	result := new(big.Int).Add(a, b)
	if err := CheckFits(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Sub returns a-b, failing with ErrNegative if b > a.
func Sub(a, b *big.Int) (*Amount, error) {
	result := new(big.Int).Sub(a, b)
	if result.Sign() < 0 {
		return nil, ErrNegative
	}
	return result, nil
}
