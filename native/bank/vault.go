package bank

import (
	"fmt"
	"math"

	"fdchain/crypto"
)

// nextID returns the id the depositor's next deposit will receive together
// with the counters it was derived from. Nothing is written.
func (e *Engine) nextID(depositor crypto.Address) (uint64, *DepositorState, error) {
	counters, err := e.state.GetDepositorState(depositor)
	if err != nil {
		return 0, nil, err
	}
	if counters == nil {
		counters = &DepositorState{}
	}
	if counters.LastDepositID == math.MaxUint64 {
		return 0, nil, ErrArithmeticOverflow
	}
	return counters.LastDepositID + 1, counters, nil
}

func (e *Engine) ensureVacant(depositor crypto.Address, id uint64) error {
	_, exists, err := e.state.GetDeposit(depositor, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s/%d", ErrDepositIDCollision, depositor, id)
	}
	return nil
}

func (e *Engine) insertDeposit(deposit *Deposit) error {
	if err := e.ensureVacant(deposit.Depositor, deposit.ID); err != nil {
		return err
	}
	return e.state.PutDeposit(deposit)
}

func (e *Engine) removeDeposit(depositor crypto.Address, id uint64) error {
	return e.state.DeleteDeposit(depositor, id)
}

func (e *Engine) loadDeposit(depositor crypto.Address, id uint64) (*Deposit, error) {
	deposit, ok, err := e.state.GetDeposit(depositor, id)
	if err != nil {
		return nil, err
	}
	if !ok || deposit == nil {
		return nil, ErrDepositNotFound
	}
	return deposit, nil
}

// Deposit returns a copy of an open deposit.
func (e *Engine) Deposit(depositor crypto.Address, id uint64) (*Deposit, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	deposit, err := e.loadDeposit(depositor, id)
	if err != nil {
		return nil, err
	}
	return deposit.Clone(), nil
}

// DepositorState returns the depositor counters. A depositor that never
// opened a deposit yields the zero value.
func (e *Engine) DepositorState(depositor crypto.Address) (DepositorState, error) {
	if e == nil || e.state == nil {
		return DepositorState{}, errNilState
	}
	counters, err := e.state.GetDepositorState(depositor)
	if err != nil || counters == nil {
		return DepositorState{}, err
	}
	return *counters, nil
}

// Deposits lists the depositor's open deposits in ascending id order.
func (e *Engine) Deposits(depositor crypto.Address) ([]*Deposit, error) {
	counters, err := e.DepositorState(depositor)
	if err != nil {
		return nil, err
	}
	out := make([]*Deposit, 0)
	for id := uint64(1); id <= counters.LastDepositID && id != 0; id++ {
		deposit, ok, err := e.state.GetDeposit(depositor, id)
		if err != nil {
			return nil, err
		}
		if ok && deposit != nil {
			out = append(out, deposit.Clone())
		}
	}
	return out, nil
}
