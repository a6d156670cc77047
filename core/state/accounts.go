package state

import (
	"math/big"

	"fdchain/core/types"
	"fdchain/crypto"
)

var accountPrefix = []byte("account:")

type lockRecord struct {
	ID     []byte
	Amount *big.Int
}

type accountRecord struct {
	Free     *big.Int
	Reserved *big.Int
	Locks    []lockRecord
}

func accountKey(addr crypto.Address) []byte {
	return prefixedKey(accountPrefix, addr.Bytes())
}

// GetAccount loads the balances stored for addr. Unknown accounts return nil
// so callers can distinguish them from zero balances.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	var record accountRecord
	ok, err := m.loadRLP(accountKey(addr), &record)
	if err != nil || !ok {
		return nil, err
	}
	account := &types.Account{Free: record.Free, Reserved: record.Reserved}
	for _, lock := range record.Locks {
		var id types.LockID
		copy(id[:], lock.ID)
		account.Locks = append(account.Locks, types.BalanceLock{ID: id, Amount: lock.Amount})
	}
	return account.EnsureDefaults(), nil
}

// PutAccount persists the balances for addr.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	account = account.Clone().EnsureDefaults()
	record := accountRecord{Free: account.Free, Reserved: account.Reserved}
	for _, lock := range account.Locks {
		id := lock.ID
		record.Locks = append(record.Locks, lockRecord{ID: id[:], Amount: lock.Amount})
	}
	return m.writeRLP(accountKey(addr), &record)
}
