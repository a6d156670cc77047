package bank

import (
	"math/big"
	"math/bits"
)

// MinimumPenalty is charged when a premature close would otherwise cost
// nothing because principal * penaltyRate truncates to zero.
var MinimumPenalty = big.NewInt(1)

// CompoundInterest returns the interest earned by principal held for maturity
// blocks:
//
//	CI = floor(principal * ((1 + rate/n)^(n*t) - 1)),  t = floor(maturity / epochLength)
//
// where n is the compounding frequency per epoch. A zero rate, principal, or
// exponent yields zero interest.
func CompoundInterest(principal *big.Int, rate Permill, frequency uint32, epochLength, maturity uint64) (*big.Int, error) {
	if principal != nil && principal.Sign() < 0 {
		return nil, ErrNegativeBalance
	}
	if frequency == 0 || epochLength == 0 {
		return nil, ErrZeroParam
	}
	if !rate.Valid() {
		return nil, ErrRateOutOfRange
	}
	if principal == nil || principal.Sign() == 0 || rate == 0 {
		return big.NewInt(0), nil
	}
	periods := maturity / epochLength
	hi, exponent := bits.Mul64(uint64(frequency), periods)
	if hi != 0 {
		return nil, ErrArithmeticOverflow
	}
	if exponent == 0 {
		return big.NewInt(0), nil
	}

	annual, err := FixedFromPermill(rate)
	if err != nil {
		return nil, err
	}
	perPeriod, err := annual.DivUint64(uint64(frequency))
	if err != nil {
		return nil, err
	}
	base, err := FixedOne().Add(perPeriod)
	if err != nil {
		return nil, err
	}
	factor, err := base.Pow(exponent)
	if err != nil {
		return nil, err
	}
	growth, err := factor.Sub(FixedOne())
	if err != nil {
		return nil, err
	}
	return growth.MulBalance(principal)
}

// Penalty returns floor(principal * rate), raised to MinimumPenalty for any
// non-zero principal whose product truncates to zero.
func Penalty(principal *big.Int, rate Permill) (*big.Int, error) {
	if principal == nil || principal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	penalty, err := rate.MulFloor(principal)
	if err != nil {
		return nil, err
	}
	if penalty.Sign() == 0 {
		return new(big.Int).Set(MinimumPenalty), nil
	}
	return penalty, nil
}
