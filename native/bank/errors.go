package bank

import (
	"errors"

	"fdchain/state/currency"
)

var (
	errNilState    = errors.New("bank engine: state not configured")
	errNilCurrency = errors.New("bank engine: currency not configured")
)

// Validation errors.
var (
	ErrUnsignedOrigin       = errors.New("bank: signed origin required")
	ErrNotAdmin             = errors.New("bank: admin origin required")
	ErrZeroAmount           = errors.New("bank: amount must be positive")
	ErrAmountBelowMinimum   = errors.New("bank: amount below minimum deposit")
	ErrAmountAboveMaximum   = errors.New("bank: amount above maximum deposit")
	ErrMaturityBelowEpoch   = errors.New("bank: maturity period shorter than epoch length")
	ErrMaturityAboveMaximum = errors.New("bank: maturity period above maximum")
	ErrZeroParam            = errors.New("bank: parameter must be non-zero")
	ErrRateOutOfRange       = errors.New("bank: rate exceeds 100%")
	ErrInvalidDepositID     = errors.New("bank: deposit id must be positive")
	ErrInvalidMaturityFlag  = errors.New("bank: invalid maturity flag")
	ErrInvalidTreasury      = errors.New("bank: treasury address must be non-zero")
	ErrLockBelowMinimum     = errors.New("bank: lock amount below minimum")
	ErrLockAboveMaximum     = errors.New("bank: lock amount above maximum")
)

// Precondition errors.
var (
	ErrParamsNotSet       = errors.New("bank: deposit parameters not set")
	ErrTreasuryNotSet     = errors.New("bank: treasury not set")
	ErrDepositNotFound    = errors.New("bank: deposit not found")
	ErrDepositIDCollision = errors.New("bank: deposit id already in use")
	ErrNoDAOLock          = errors.New("bank: no DAO lock present")
)

// Funds errors.
var (
	ErrInsufficientTreasury          = errors.New("bank: insufficient treasury balance for interest")
	ErrInsufficientBalanceForPenalty = errors.New("bank: insufficient free balance for penalty")
)

// Arithmetic errors.
var (
	ErrArithmeticOverflow  = errors.New("bank: arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("bank: arithmetic underflow")
	ErrDivisionByZero      = errors.New("bank: division by zero")
	ErrBalanceOverflow     = errors.New("bank: balance exceeds native range")
	ErrNegativeBalance     = errors.New("bank: negative balance")
	ErrElapsedUnderflow    = errors.New("bank: current height precedes deposit opening")
)

// State-consistency errors.
var (
	ErrInvalidCloseCombination = errors.New("bank: claimed maturity does not match elapsed blocks")
)

// ErrorClass groups failures by how callers should react to them.
type ErrorClass string

const (
	ClassNone         ErrorClass = ""
	ClassValidation   ErrorClass = "validation"
	ClassAuth         ErrorClass = "auth"
	ClassPrecondition ErrorClass = "precondition"
	ClassNotFound     ErrorClass = "not_found"
	ClassFunds        ErrorClass = "funds"
	ClassArithmetic   ErrorClass = "arithmetic"
	ClassConsistency  ErrorClass = "consistency"
	ClassPaused       ErrorClass = "paused"
	ClassInternal     ErrorClass = "internal"
)

var errorClasses = []struct {
	class ErrorClass
	errs  []error
}{
	{ClassAuth, []error{ErrUnsignedOrigin, ErrNotAdmin}},
	{ClassValidation, []error{ErrZeroAmount, ErrAmountBelowMinimum, ErrAmountAboveMaximum, ErrMaturityBelowEpoch,
		ErrMaturityAboveMaximum, ErrZeroParam, ErrRateOutOfRange, ErrInvalidDepositID, ErrInvalidMaturityFlag,
		ErrInvalidTreasury, ErrLockBelowMinimum, ErrLockAboveMaximum}},
	{ClassNotFound, []error{ErrDepositNotFound, ErrNoDAOLock}},
	{ClassPrecondition, []error{ErrParamsNotSet, ErrTreasuryNotSet, ErrDepositIDCollision}},
	{ClassFunds, []error{ErrInsufficientTreasury, ErrInsufficientBalanceForPenalty, currency.ErrInsufficientBalance,
		currency.ErrInsufficientReserved, currency.ErrLiquidityRestricted}},
	{ClassArithmetic, []error{ErrArithmeticOverflow, ErrArithmeticUnderflow, ErrDivisionByZero, ErrBalanceOverflow,
		ErrNegativeBalance, ErrElapsedUnderflow}},
	{ClassConsistency, []error{ErrInvalidCloseCombination}},
}

// Classify maps an error returned by the engine to its class. Unknown errors
// are internal.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, errModulePaused) {
		return ClassPaused
	}
	for _, group := range errorClasses {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.class
			}
		}
	}
	return ClassInternal
}
