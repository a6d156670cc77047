package bank

import (
	"math/big"
	"strconv"

	"fdchain/core/types"
	"fdchain/crypto"
)

const (
	EventTypeParamsSet     = "bank.params.set"
	EventTypeTreasurySet   = "bank.treasury.set"
	EventTypeTreasuryReset = "bank.treasury.reset"
	EventTypeDepositOpened = "bank.deposit.opened"
	EventTypeDepositClosed = "bank.deposit.closed"
	EventTypeDAOLocked     = "bank.dao.locked"
	EventTypeDAOUnlocked   = "bank.dao.unlocked"
)

// NewParamsSetEvent returns the payload emitted when deposit parameters change.
func NewParamsSetEvent(p Params, height uint64) *types.Event {
	return &types.Event{Type: EventTypeParamsSet, Height: height, Attributes: map[string]string{
		"interestRate":         strconv.FormatUint(uint64(p.InterestRate), 10),
		"penaltyRate":          strconv.FormatUint(uint64(p.PenaltyRate), 10),
		"compoundingFrequency": strconv.FormatUint(uint64(p.CompoundingFrequency), 10),
		"epochLength":          strconv.FormatUint(p.EpochLength, 10),
	}}
}

// NewTreasurySetEvent returns the payload emitted when the treasury is bound.
func NewTreasurySetEvent(addr crypto.Address, height uint64) *types.Event {
	return &types.Event{Type: EventTypeTreasurySet, Height: height, Attributes: map[string]string{
		"treasury": addr.String(),
	}}
}

// NewTreasuryResetEvent returns the payload emitted when the treasury binding
// is cleared.
func NewTreasuryResetEvent(previous crypto.Address, height uint64) *types.Event {
	return &types.Event{Type: EventTypeTreasuryReset, Height: height, Attributes: map[string]string{
		"treasury": previous.String(),
	}}
}

// NewDepositOpenedEvent returns the payload for a newly opened deposit.
func NewDepositOpenedEvent(d *Deposit) *types.Event {
	attrs := depositAttributes(d)
	height := uint64(0)
	if d != nil {
		height = d.OpenedAt
	}
	return &types.Event{Type: EventTypeDepositOpened, Height: height, Attributes: attrs}
}

// NewDepositClosedEvent returns the payload for a settled deposit.
func NewDepositClosedEvent(s *Settlement) *types.Event {
	if s == nil {
		return &types.Event{Type: EventTypeDepositClosed, Attributes: map[string]string{}}
	}
	attrs := depositAttributes(s.Deposit)
	attrs["matured"] = strconv.FormatBool(s.Matured)
	attrs["interest"] = amountString(s.Interest)
	attrs["penalty"] = amountString(s.Penalty)
	attrs["elapsed"] = strconv.FormatUint(s.Elapsed, 10)
	return &types.Event{Type: EventTypeDepositClosed, Height: s.ClosedAt, Attributes: attrs}
}

// NewDAOLockedEvent returns the payload emitted when funds are locked for the
// DAO.
func NewDAOLockedEvent(user crypto.Address, amount *big.Int, height uint64) *types.Event {
	return &types.Event{Type: EventTypeDAOLocked, Height: height, Attributes: map[string]string{
		"user":   user.String(),
		"amount": amountString(amount),
		"block":  strconv.FormatUint(height, 10),
	}}
}

// NewDAOUnlockedEvent returns the payload emitted when a DAO lock is removed.
func NewDAOUnlockedEvent(user crypto.Address, amount *big.Int, height uint64) *types.Event {
	return &types.Event{Type: EventTypeDAOUnlocked, Height: height, Attributes: map[string]string{
		"user":   user.String(),
		"amount": amountString(amount),
		"block":  strconv.FormatUint(height, 10),
	}}
}

func depositAttributes(d *Deposit) map[string]string {
	attrs := make(map[string]string)
	if d == nil {
		return attrs
	}
	attrs["depositor"] = d.Depositor.String()
	attrs["id"] = strconv.FormatUint(d.ID, 10)
	attrs["principal"] = amountString(d.Principal)
	attrs["openedAt"] = strconv.FormatUint(d.OpenedAt, 10)
	attrs["maturityPeriod"] = strconv.FormatUint(d.MaturityPeriod, 10)
	return attrs
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
