package types

import "math/big"

// LockID names a balance lock. Identifiers are fixed-width so they encode
// compactly and compare cheaply.
type LockID [8]byte

// NewLockID pads or truncates the label to eight bytes.
func NewLockID(label string) LockID {
	var id LockID
	copy(id[:], label)
	for i := len(label); i < len(id); i++ {
		id[i] = ' '
	}
	return id
}

func (id LockID) String() string { return string(id[:]) }

// BalanceLock freezes up to Amount of the free balance. Locks overlap rather
// than stack: the spendable balance is reduced by the largest lock.
type BalanceLock struct {
	ID     LockID   `json:"id"`
	Amount *big.Int `json:"amount"`
}

// Account holds the balances tracked by the currency ledger.
type Account struct {
	Free     *big.Int      `json:"free"`
	Reserved *big.Int      `json:"reserved"`
	Locks    []BalanceLock `json:"locks,omitempty"`
}

// EnsureDefaults replaces nil balances with zero values.
func (a *Account) EnsureDefaults() *Account {
	if a == nil {
		return &Account{Free: big.NewInt(0), Reserved: big.NewInt(0)}
	}
	if a.Free == nil {
		a.Free = big.NewInt(0)
	}
	if a.Reserved == nil {
		a.Reserved = big.NewInt(0)
	}
	for i := range a.Locks {
		if a.Locks[i].Amount == nil {
			a.Locks[i].Amount = big.NewInt(0)
		}
	}
	return a
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Free: big.NewInt(0), Reserved: big.NewInt(0)}
	if a.Free != nil {
		clone.Free.Set(a.Free)
	}
	if a.Reserved != nil {
		clone.Reserved.Set(a.Reserved)
	}
	if len(a.Locks) > 0 {
		clone.Locks = make([]BalanceLock, len(a.Locks))
		for i, lock := range a.Locks {
			amount := big.NewInt(0)
			if lock.Amount != nil {
				amount.Set(lock.Amount)
			}
			clone.Locks[i] = BalanceLock{ID: lock.ID, Amount: amount}
		}
	}
	return clone
}

// Total returns free plus reserved balance.
func (a *Account) Total() *big.Int {
	total := big.NewInt(0)
	if a == nil {
		return total
	}
	if a.Free != nil {
		total.Add(total, a.Free)
	}
	if a.Reserved != nil {
		total.Add(total, a.Reserved)
	}
	return total
}

// MaxLock returns the largest lock amount, or zero without locks.
func (a *Account) MaxLock() *big.Int {
	max := big.NewInt(0)
	if a == nil {
		return max
	}
	for _, lock := range a.Locks {
		if lock.Amount != nil && lock.Amount.Cmp(max) > 0 {
			max.Set(lock.Amount)
		}
	}
	return max
}

// Lock returns the lock with the supplied identifier if present.
func (a *Account) Lock(id LockID) (*BalanceLock, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Locks {
		if a.Locks[i].ID == id {
			return &a.Locks[i], true
		}
	}
	return nil, false
}
