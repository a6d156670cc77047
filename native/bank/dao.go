package bank

import (
	"fmt"
	"math/big"

	"fdchain/core/types"
	"fdchain/crypto"
	nativecommon "fdchain/native/common"
)

// DAOLockID tags the balance lock placed by LockForDAO.
var DAOLockID = types.NewLockID("fdbank")

// LockForDAO freezes amount of the caller's balance under DAOLockID. A second
// call replaces the existing lock.
func (e *Engine) LockForDAO(origin Origin, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	user, err := requireSigned(origin)
	if err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Cmp(e.config.MinLockAmount) < 0 {
		return fmt.Errorf("%w: minimum %s", ErrLockBelowMinimum, e.config.MinLockAmount)
	}
	if amount.Cmp(e.config.MaxLockAmount) > 0 {
		return fmt.Errorf("%w: maximum %s", ErrLockAboveMaximum, e.config.MaxLockAmount)
	}
	if err := e.currency.SetLock(DAOLockID, user, amount); err != nil {
		return fmt.Errorf("bank: set dao lock: %w", err)
	}
	height := e.height()
	e.emit(NewDAOLockedEvent(user, amount, height))
	e.logger.Debug("dao lock set", "user", user.String(), "amount", amount.String(), "height", height)
	return nil
}

// UnlockDAO removes the caller's DAO lock.
func (e *Engine) UnlockDAO(origin Origin) error {
	if err := e.ready(); err != nil {
		return err
	}
	user, err := requireSigned(origin)
	if err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	amount, ok, err := e.currency.LockedBalance(DAOLockID, user)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoDAOLock
	}
	if err := e.currency.RemoveLock(DAOLockID, user); err != nil {
		return fmt.Errorf("bank: remove dao lock: %w", err)
	}
	height := e.height()
	e.emit(NewDAOUnlockedEvent(user, amount, height))
	e.logger.Debug("dao lock removed", "user", user.String(), "height", height)
	return nil
}

// DAOLock returns the caller's locked amount, if any.
func (e *Engine) DAOLock(user crypto.Address) (*big.Int, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	return e.currency.LockedBalance(DAOLockID, user)
}
