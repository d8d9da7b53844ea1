// Package ratio provides an immutable exact rational number.
//
// Every unit conversion in portion runs through Ratio so that chains of
// conversions never accumulate rounding error. A Ratio is a value type: all
// operations return a new Ratio and never modify their operands, which makes
// Ratios safe to share between goroutines.
package ratio

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrZeroDenominator is returned when parsing a ratio with a zero denominator.
var ErrZeroDenominator = errors.New("zero denominator")

// Ratio is an exact rational number. The zero value is 0.
type Ratio struct {
	r *big.Rat
}

// Common values.
var (
	Zero = Ratio{}
	One  = Int(1)
)

// New returns num/den reduced to lowest terms. It panics if den is zero.
func New(num, den int64) Ratio {
	if den == 0 {
		panic("ratio: zero denominator")
	}
	return Ratio{r: big.NewRat(num, den)}
}

// Int returns the integer n as a Ratio.
func Int(n int64) Ratio {
	return Ratio{r: new(big.Rat).SetInt64(n)}
}

// FromBig copies r into a new Ratio.
func FromBig(r *big.Rat) Ratio {
	if r == nil {
		return Zero
	}
	return Ratio{r: new(big.Rat).Set(r)}
}

// Parse parses "n", "n/d" or "-n/d".
func Parse(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("invalid ratio %q", s)
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		d, okd := new(big.Int).SetString(strings.TrimSpace(den), 10)
		n, okn := new(big.Int).SetString(strings.TrimSpace(num), 10)
		if !okd || !okn {
			return Zero, fmt.Errorf("invalid ratio %q", s)
		}
		if d.Sign() == 0 {
			return Zero, fmt.Errorf("invalid ratio %q: %w", s, ErrZeroDenominator)
		}
		return Ratio{r: new(big.Rat).SetFrac(n, d)}, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("invalid ratio %q", s)
	}
	return Ratio{r: new(big.Rat).SetInt(n)}, nil
}

// MustParse is like Parse but panics on error. Intended for tables and tests.
func MustParse(s string) Ratio {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (a Ratio) rat() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}

// Big returns a copy of the value as a *big.Rat.
func (a Ratio) Big() *big.Rat {
	return new(big.Rat).Set(a.rat())
}

// Add returns a+b.
func (a Ratio) Add(b Ratio) Ratio {
	return Ratio{r: new(big.Rat).Add(a.rat(), b.rat())}
}

// Sub returns a-b.
func (a Ratio) Sub(b Ratio) Ratio {
	return Ratio{r: new(big.Rat).Sub(a.rat(), b.rat())}
}

// Mul returns a*b.
func (a Ratio) Mul(b Ratio) Ratio {
	return Ratio{r: new(big.Rat).Mul(a.rat(), b.rat())}
}

// Quo returns a/b. It panics if b is zero.
func (a Ratio) Quo(b Ratio) Ratio {
	if b.IsZero() {
		panic("ratio: division by zero")
	}
	return Ratio{r: new(big.Rat).Quo(a.rat(), b.rat())}
}

// Neg returns -a.
func (a Ratio) Neg() Ratio {
	return Ratio{r: new(big.Rat).Neg(a.rat())}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Ratio) Cmp(b Ratio) int {
	return a.rat().Cmp(b.rat())
}

// Equal reports whether a and b are the same number.
func (a Ratio) Equal(b Ratio) bool {
	return a.Cmp(b) == 0
}

// Sign returns -1, 0 or +1.
func (a Ratio) Sign() int {
	return a.rat().Sign()
}

// IsZero reports whether a == 0.
func (a Ratio) IsZero() bool {
	return a.Sign() == 0
}

// IsInt reports whether a has no fractional part.
func (a Ratio) IsInt() bool {
	return a.rat().IsInt()
}

// Trunc returns the integer part of a, rounding toward zero.
func (a Ratio) Trunc() Ratio {
	q := new(big.Int).Quo(a.rat().Num(), a.rat().Denom())
	return Ratio{r: new(big.Rat).SetInt(q)}
}

// Fract returns a - a.Trunc(). The result has the sign of a.
func (a Ratio) Fract() Ratio {
	return a.Sub(a.Trunc())
}

// Num returns the numerator of a in lowest terms.
func (a Ratio) Num() *big.Int {
	return new(big.Int).Set(a.rat().Num())
}

// Denom returns the (positive) denominator of a in lowest terms.
func (a Ratio) Denom() *big.Int {
	return new(big.Int).Set(a.rat().Denom())
}

// Float64 returns the nearest float64 value. Only for display and metrics.
func (a Ratio) Float64() float64 {
	f, _ := a.rat().Float64()
	return f
}

// String returns "n" for integers and "n/d" otherwise.
func (a Ratio) String() string {
	return a.rat().RatString()
}

// MarshalText implements encoding.TextMarshaler.
func (a Ratio) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Ratio) UnmarshalText(text []byte) error {
	r, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = r
	return nil
}
