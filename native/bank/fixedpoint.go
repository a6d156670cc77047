package bank

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// FixedDecimals is the number of fractional decimal digits carried by Fixed.
const FixedDecimals = 18

var (
	fixedScale   = uint256.NewInt(1_000_000_000_000_000_000)
	permillScale = uint256.NewInt(uint64(PermillOne))
	// permill values convert to Fixed by multiplying by 10^12.
	permillToFixed = uint256.NewInt(1_000_000_000_000)

	// MaxBalance is the largest value representable by the native balance
	// type (an unsigned 128-bit integer).
	MaxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	maxBalance256, _ = uint256.FromBig(MaxBalance)
)

// Fixed is an unsigned fixed-point decimal with FixedDecimals fractional
// digits backed by a 256-bit integer. Every operation is checked and returns
// an error instead of wrapping or saturating.
type Fixed struct {
	raw uint256.Int
}

// FixedOne returns 1.0.
func FixedOne() Fixed {
	var f Fixed
	f.raw.Set(fixedScale)
	return f
}

// FixedZero returns 0.0.
func FixedZero() Fixed { return Fixed{} }

// FixedFromUint64 converts an integer without loss.
func FixedFromUint64(n uint64) Fixed {
	var f Fixed
	f.raw.Mul(uint256.NewInt(n), fixedScale)
	return f
}

// FixedFromBalance converts a native balance into fixed-point form. Balances
// must lie in [0, MaxBalance].
func FixedFromBalance(b *big.Int) (Fixed, error) {
	v, err := balanceToUint256(b)
	if err != nil {
		return Fixed{}, err
	}
	var f Fixed
	if _, overflow := f.raw.MulOverflow(v, fixedScale); overflow {
		return Fixed{}, ErrArithmeticOverflow
	}
	return f, nil
}

// FixedFromPermill converts a parts-per-million ratio exactly.
func FixedFromPermill(p Permill) (Fixed, error) {
	if !p.Valid() {
		return Fixed{}, ErrRateOutOfRange
	}
	var f Fixed
	f.raw.Mul(uint256.NewInt(uint64(p)), permillToFixed)
	return f, nil
}

// FixedFromRatio returns num/den truncated to FixedDecimals digits.
func FixedFromRatio(num, den uint64) (Fixed, error) {
	if den == 0 {
		return Fixed{}, ErrDivisionByZero
	}
	var f Fixed
	f.raw.Mul(uint256.NewInt(num), fixedScale)
	f.raw.Div(&f.raw, uint256.NewInt(den))
	return f, nil
}

// IsZero reports whether the value is exactly zero.
func (f Fixed) IsZero() bool { return f.raw.IsZero() }

// Cmp compares two fixed-point values.
func (f Fixed) Cmp(g Fixed) int { return f.raw.Cmp(&g.raw) }

// Add returns f+g.
func (f Fixed) Add(g Fixed) (Fixed, error) {
	var out Fixed
	if _, overflow := out.raw.AddOverflow(&f.raw, &g.raw); overflow {
		return Fixed{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Sub returns f-g and fails when g > f.
func (f Fixed) Sub(g Fixed) (Fixed, error) {
	var out Fixed
	if _, underflow := out.raw.SubOverflow(&f.raw, &g.raw); underflow {
		return Fixed{}, ErrArithmeticUnderflow
	}
	return out, nil
}

// Mul returns f*g truncated to FixedDecimals digits. The product is formed in
// 512 bits so only a result that itself exceeds 256 bits overflows.
func (f Fixed) Mul(g Fixed) (Fixed, error) {
	var out Fixed
	if _, overflow := out.raw.MulDivOverflow(&f.raw, &g.raw, fixedScale); overflow {
		return Fixed{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Div returns f/g truncated to FixedDecimals digits.
func (f Fixed) Div(g Fixed) (Fixed, error) {
	if g.raw.IsZero() {
		return Fixed{}, ErrDivisionByZero
	}
	var out Fixed
	if _, overflow := out.raw.MulDivOverflow(&f.raw, fixedScale, &g.raw); overflow {
		return Fixed{}, ErrArithmeticOverflow
	}
	return out, nil
}

// DivUint64 divides by an integer, truncating.
func (f Fixed) DivUint64(n uint64) (Fixed, error) {
	if n == 0 {
		return Fixed{}, ErrDivisionByZero
	}
	var out Fixed
	out.raw.Div(&f.raw, uint256.NewInt(n))
	return out, nil
}

// Pow raises f to a non-negative integer power by repeated squaring. Only
// checked multiplication is used; the first overflow aborts the computation.
func (f Fixed) Pow(exp uint64) (Fixed, error) {
	result := FixedOne()
	base := f
	var err error
	for exp > 0 {
		if exp&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Fixed{}, err
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, err = base.Mul(base); err != nil {
				return Fixed{}, err
			}
		}
	}
	return result, nil
}

// MulBalance returns floor(f * b) as a native balance.
func (f Fixed) MulBalance(b *big.Int) (*big.Int, error) {
	fb, err := FixedFromBalance(b)
	if err != nil {
		return nil, err
	}
	product, err := fb.Mul(f)
	if err != nil {
		return nil, err
	}
	return product.ToBalance()
}

// ToBalance truncates the fraction and converts back to a native balance.
func (f Fixed) ToBalance() (*big.Int, error) {
	var whole uint256.Int
	whole.Div(&f.raw, fixedScale)
	if whole.Gt(maxBalance256) {
		return nil, ErrBalanceOverflow
	}
	return whole.ToBig(), nil
}

// String renders the value with all FixedDecimals fractional digits.
func (f Fixed) String() string {
	var whole, frac uint256.Int
	whole.Div(&f.raw, fixedScale)
	frac.Mod(&f.raw, fixedScale)
	fracStr := frac.Dec()
	if pad := FixedDecimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	return whole.Dec() + "." + fracStr
}

// Permill is a ratio expressed in parts per million, limited to [0, 1].
type Permill uint32

// PermillOne represents 100%.
const PermillOne Permill = 1_000_000

// PermillFromPercent converts a whole percentage. Values above 100 fail with
// ErrRateOutOfRange.
func PermillFromPercent(percent uint32) (Permill, error) {
	if percent > 100 {
		return 0, ErrRateOutOfRange
	}
	return Permill(percent * 10_000), nil
}

// Valid reports whether the ratio lies within [0, 100%].
func (p Permill) Valid() bool { return p <= PermillOne }

// MulFloor returns floor(b * p / 10^6).
func (p Permill) MulFloor(b *big.Int) (*big.Int, error) {
	if !p.Valid() {
		return nil, ErrRateOutOfRange
	}
	v, err := balanceToUint256(b)
	if err != nil {
		return nil, err
	}
	var out uint256.Int
	if _, overflow := out.MulDivOverflow(v, uint256.NewInt(uint64(p)), permillScale); overflow {
		return nil, ErrArithmeticOverflow
	}
	return out.ToBig(), nil
}

// String renders the ratio as a percentage, e.g. "0.5%".
func (p Permill) String() string {
	whole := uint32(p) / 10_000
	frac := uint32(p) % 10_000
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%04d", whole, frac), "0") + "%"
}

func balanceToUint256(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return new(uint256.Int), nil
	}
	if b.Sign() < 0 {
		return nil, ErrNegativeBalance
	}
	if b.Cmp(MaxBalance) > 0 {
		return nil, ErrBalanceOverflow
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return v, nil
}
