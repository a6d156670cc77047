package bank

import (
	"fmt"

	"fdchain/crypto"
)

// SetParams overwrites the deposit parameters. Root only.
func (e *Engine) SetParams(origin Origin, params Params) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := requireRoot(origin); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	stored := params
	if err := e.state.PutBankParams(&stored); err != nil {
		return fmt.Errorf("bank: persist params: %w", err)
	}
	height := e.height()
	e.emit(NewParamsSetEvent(params, height))
	e.logger.Debug("params set",
		"interestRate", params.InterestRate.String(),
		"penaltyRate", params.PenaltyRate.String(),
		"compoundingFrequency", params.CompoundingFrequency,
		"epochLength", params.EpochLength)
	return nil
}

// Params returns the stored parameters. The boolean is false until an admin
// has set them; there is no implicit default.
func (e *Engine) Params() (Params, bool, error) {
	if e == nil || e.state == nil {
		return Params{}, false, errNilState
	}
	params, ok, err := e.state.GetBankParams()
	if err != nil || !ok || params == nil {
		return Params{}, false, err
	}
	return *params, true, nil
}

func (e *Engine) requireParams() (*Params, error) {
	params, ok, err := e.Params()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParamsNotSet
	}
	return &params, nil
}

// SetTreasury binds the account that funds interest and receives penalties.
func (e *Engine) SetTreasury(origin Origin, addr crypto.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := requireRoot(origin); err != nil {
		return err
	}
	if addr.IsZero() {
		return ErrInvalidTreasury
	}
	if err := e.state.PutBankTreasury(addr); err != nil {
		return fmt.Errorf("bank: persist treasury: %w", err)
	}
	e.emit(NewTreasurySetEvent(addr, e.height()))
	e.logger.Debug("treasury set", "treasury", addr.String())
	return nil
}

// ResetTreasury clears the treasury binding.
func (e *Engine) ResetTreasury(origin Origin) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := requireRoot(origin); err != nil {
		return err
	}
	previous, err := e.requireTreasury()
	if err != nil {
		return err
	}
	if err := e.state.DeleteBankTreasury(); err != nil {
		return fmt.Errorf("bank: clear treasury: %w", err)
	}
	e.emit(NewTreasuryResetEvent(previous, e.height()))
	e.logger.Debug("treasury reset", "previous", previous.String())
	return nil
}

// Treasury returns the bound treasury account, if any.
func (e *Engine) Treasury() (crypto.Address, bool, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, false, errNilState
	}
	return e.state.GetBankTreasury()
}

func (e *Engine) requireTreasury() (crypto.Address, error) {
	addr, ok, err := e.Treasury()
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok || addr.IsZero() {
		return crypto.Address{}, ErrTreasuryNotSet
	}
	return addr, nil
}
