package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"fdchain/crypto"
	"fdchain/native/bank"
)

var (
	bankParamsKey         = ethcrypto.Keccak256([]byte("bank:params"))
	bankTreasuryKey       = ethcrypto.Keccak256([]byte("bank:treasury"))
	bankDepositorPrefix   = []byte("bank:depositor:")
	bankDepositPrefix     = []byte("bank:deposit:")
	errEmptyBankDepositor = fmt.Errorf("state: depositor must not be empty")
)

type bankParamsRecord struct {
	InterestRate         uint32
	PenaltyRate          uint32
	CompoundingFrequency uint32
	EpochLength          uint64
}

type depositorRecord struct {
	LastDepositID   uint64
	InvestmentScore uint64
}

type depositRecord struct {
	Depositor      []byte
	ID             uint64
	Principal      *big.Int
	OpenedAt       uint64
	MaturityPeriod uint64
}

// BankDepositorKey derives the storage key of a depositor's counters.
func BankDepositorKey(depositor crypto.Address) []byte {
	return prefixedKey(bankDepositorPrefix, depositor.Bytes())
}

// BankDepositKey derives the storage key of a single deposit.
func BankDepositKey(depositor crypto.Address, id uint64) []byte {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], id)
	return prefixedKey(bankDepositPrefix, depositor.Bytes(), idBytes[:])
}

// GetBankParams returns the deposit parameters if an admin has set them.
func (m *Manager) GetBankParams() (*bank.Params, bool, error) {
	var record bankParamsRecord
	ok, err := m.loadRLP(bankParamsKey, &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &bank.Params{
		InterestRate:         bank.Permill(record.InterestRate),
		PenaltyRate:          bank.Permill(record.PenaltyRate),
		CompoundingFrequency: record.CompoundingFrequency,
		EpochLength:          record.EpochLength,
	}, true, nil
}

// PutBankParams overwrites the deposit parameters.
func (m *Manager) PutBankParams(params *bank.Params) error {
	if params == nil {
		return fmt.Errorf("state: nil bank params")
	}
	return m.writeRLP(bankParamsKey, &bankParamsRecord{
		InterestRate:         uint32(params.InterestRate),
		PenaltyRate:          uint32(params.PenaltyRate),
		CompoundingFrequency: params.CompoundingFrequency,
		EpochLength:          params.EpochLength,
	})
}

// GetBankTreasury returns the bound treasury account.
func (m *Manager) GetBankTreasury() (crypto.Address, bool, error) {
	var raw []byte
	ok, err := m.loadRLP(bankTreasuryKey, &raw)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	if len(raw) != crypto.AddressLength {
		return crypto.Address{}, false, fmt.Errorf("state: treasury record has %d bytes", len(raw))
	}
	return crypto.NewAddress(crypto.FDPrefix, raw), true, nil
}

// PutBankTreasury binds the treasury account.
func (m *Manager) PutBankTreasury(addr crypto.Address) error {
	return m.writeRLP(bankTreasuryKey, addr.Bytes())
}

// DeleteBankTreasury clears the treasury binding.
func (m *Manager) DeleteBankTreasury() error {
	return m.delete(bankTreasuryKey)
}

// GetDepositorState returns the counters for depositor, zero-valued when the
// depositor never opened a deposit.
func (m *Manager) GetDepositorState(depositor crypto.Address) (*bank.DepositorState, error) {
	if depositor.IsZero() {
		return nil, errEmptyBankDepositor
	}
	var record depositorRecord
	if _, err := m.loadRLP(BankDepositorKey(depositor), &record); err != nil {
		return nil, err
	}
	return &bank.DepositorState{
		LastDepositID:   record.LastDepositID,
		InvestmentScore: record.InvestmentScore,
	}, nil
}

// PutDepositorState persists the counters for depositor.
func (m *Manager) PutDepositorState(depositor crypto.Address, counters *bank.DepositorState) error {
	if depositor.IsZero() {
		return errEmptyBankDepositor
	}
	if counters == nil {
		counters = &bank.DepositorState{}
	}
	return m.writeRLP(BankDepositorKey(depositor), &depositorRecord{
		LastDepositID:   counters.LastDepositID,
		InvestmentScore: counters.InvestmentScore,
	})
}

// GetDeposit loads a single open deposit.
func (m *Manager) GetDeposit(depositor crypto.Address, id uint64) (*bank.Deposit, bool, error) {
	var record depositRecord
	ok, err := m.loadRLP(BankDepositKey(depositor, id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(record.Depositor) != crypto.AddressLength {
		return nil, false, fmt.Errorf("state: deposit record has %d byte depositor", len(record.Depositor))
	}
	principal := record.Principal
	if principal == nil {
		principal = big.NewInt(0)
	}
	return &bank.Deposit{
		Depositor:      crypto.NewAddress(crypto.FDPrefix, record.Depositor),
		ID:             record.ID,
		Principal:      principal,
		OpenedAt:       record.OpenedAt,
		MaturityPeriod: record.MaturityPeriod,
	}, true, nil
}

// PutDeposit stores deposit under its depositor and id.
func (m *Manager) PutDeposit(deposit *bank.Deposit) error {
	if deposit == nil {
		return fmt.Errorf("state: nil deposit")
	}
	if deposit.Depositor.IsZero() {
		return errEmptyBankDepositor
	}
	principal := deposit.Principal
	if principal == nil {
		principal = big.NewInt(0)
	}
	return m.writeRLP(BankDepositKey(deposit.Depositor, deposit.ID), &depositRecord{
		Depositor:      deposit.Depositor.Bytes(),
		ID:             deposit.ID,
		Principal:      principal,
		OpenedAt:       deposit.OpenedAt,
		MaturityPeriod: deposit.MaturityPeriod,
	})
}

// DeleteDeposit removes a deposit record. Missing records are ignored.
func (m *Manager) DeleteDeposit(depositor crypto.Address, id uint64) error {
	return m.delete(BankDepositKey(depositor, id))
}
