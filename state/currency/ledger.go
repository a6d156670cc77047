package currency

import (
	"errors"
	"fmt"
	"math/big"

	"fdchain/core/types"
	"fdchain/crypto"
)

var (
	ErrInvalidAmount        = errors.New("currency: amount must not be negative")
	ErrInsufficientBalance  = errors.New("currency: insufficient free balance")
	ErrInsufficientReserved = errors.New("currency: insufficient reserved balance")
	ErrLiquidityRestricted  = errors.New("currency: balance frozen by lock")
	ErrBalanceOverflow      = errors.New("currency: balance overflow")
)

// maxBalance bounds every balance to an unsigned 128-bit value.
var maxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// AccountStore persists accounts. Missing accounts load as nil.
type AccountStore interface {
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Ledger implements free/reserved balances with named locks on top of an
// AccountStore. Locks overlap: the free balance above the largest lock is
// spendable, and reservations count as spending.
type Ledger struct {
	store AccountStore
}

// NewLedger wraps the supplied store.
func NewLedger(store AccountStore) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) load(addr crypto.Address) (*types.Account, error) {
	if l == nil || l.store == nil {
		return nil, fmt.Errorf("currency: store not configured")
	}
	account, err := l.store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.EnsureDefaults(), nil
}

// Account returns a copy of the stored balances.
func (l *Ledger) Account(addr crypto.Address) (*types.Account, error) {
	account, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	return account.Clone(), nil
}

// FreeBalance returns the unreserved balance, locked funds included.
func (l *Ledger) FreeBalance(addr crypto.Address) (*big.Int, error) {
	account, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Free), nil
}

// ReservedBalance returns the reserved balance.
func (l *Ledger) ReservedBalance(addr crypto.Address) (*big.Int, error) {
	account, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Reserved), nil
}

// Spendable returns the free balance not frozen by any lock.
func (l *Ledger) Spendable(addr crypto.Address) (*big.Int, error) {
	account, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	return spendable(account), nil
}

func spendable(account *types.Account) *big.Int {
	out := new(big.Int).Sub(account.Free, account.MaxLock())
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Cmp(maxBalance) > 0 {
		return ErrBalanceOverflow
	}
	return nil
}

// ensureCanWithdraw distinguishes a plain shortfall from funds that exist but
// are frozen by a lock.
func ensureCanWithdraw(account *types.Account, amount *big.Int) error {
	if account.Free.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, account.Free, amount)
	}
	if spendable(account).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s locked", ErrLiquidityRestricted, account.MaxLock())
	}
	return nil
}

func credit(balance, amount *big.Int) error {
	next := new(big.Int).Add(balance, amount)
	if next.Cmp(maxBalance) > 0 {
		return ErrBalanceOverflow
	}
	balance.Set(next)
	return nil
}

// Mint credits newly issued funds to the free balance.
func (l *Ledger) Mint(addr crypto.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	account, err := l.load(addr)
	if err != nil {
		return err
	}
	if err := credit(account.Free, amount); err != nil {
		return err
	}
	return l.store.PutAccount(addr, account)
}

// Reserve moves amount from free to reserved. Locked funds cannot be reserved.
func (l *Ledger) Reserve(addr crypto.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	account, err := l.load(addr)
	if err != nil {
		return err
	}
	if err := ensureCanWithdraw(account, amount); err != nil {
		return err
	}
	if err := credit(account.Reserved, amount); err != nil {
		return err
	}
	account.Free.Sub(account.Free, amount)
	return l.store.PutAccount(addr, account)
}

// Unreserve moves amount from reserved back to free.
func (l *Ledger) Unreserve(addr crypto.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	account, err := l.load(addr)
	if err != nil {
		return err
	}
	if account.Reserved.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserved, account.Reserved, amount)
	}
	if err := credit(account.Free, amount); err != nil {
		return err
	}
	account.Reserved.Sub(account.Reserved, amount)
	return l.store.PutAccount(addr, account)
}

// Transfer moves spendable funds between free balances.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	sender, err := l.load(from)
	if err != nil {
		return err
	}
	if err := ensureCanWithdraw(sender, amount); err != nil {
		return err
	}
	if from.Equal(to) {
		return nil
	}
	recipient, err := l.load(to)
	if err != nil {
		return err
	}
	if err := credit(recipient.Free, amount); err != nil {
		return err
	}
	sender.Free.Sub(sender.Free, amount)
	if err := l.store.PutAccount(from, sender); err != nil {
		return err
	}
	return l.store.PutAccount(to, recipient)
}

// SetLock creates or replaces the lock identified by id. The amount may exceed
// the free balance; a zero amount removes the lock.
func (l *Ledger) SetLock(id types.LockID, addr crypto.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return l.RemoveLock(id, addr)
	}
	account, err := l.load(addr)
	if err != nil {
		return err
	}
	if lock, ok := account.Lock(id); ok {
		lock.Amount = new(big.Int).Set(amount)
	} else {
		account.Locks = append(account.Locks, types.BalanceLock{ID: id, Amount: new(big.Int).Set(amount)})
	}
	return l.store.PutAccount(addr, account)
}

// RemoveLock drops the lock identified by id. Removing a missing lock is a
// no-op.
func (l *Ledger) RemoveLock(id types.LockID, addr crypto.Address) error {
	account, err := l.load(addr)
	if err != nil {
		return err
	}
	kept := account.Locks[:0]
	removed := false
	for _, lock := range account.Locks {
		if lock.ID == id {
			removed = true
			continue
		}
		kept = append(kept, lock)
	}
	if !removed {
		return nil
	}
	if len(kept) == 0 {
		kept = nil
	}
	account.Locks = kept
	return l.store.PutAccount(addr, account)
}

// LockedBalance returns the amount held by the lock identified by id.
func (l *Ledger) LockedBalance(id types.LockID, addr crypto.Address) (*big.Int, bool, error) {
	account, err := l.load(addr)
	if err != nil {
		return nil, false, err
	}
	lock, ok := account.Lock(id)
	if !ok {
		return big.NewInt(0), false, nil
	}
	return new(big.Int).Set(lock.Amount), true, nil
}
