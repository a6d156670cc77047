package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"fdchain/storage"
)

// Manager provides typed access to the persisted chain state. Records are RLP
// encoded and stored under keccak hashes of their logical keys.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database. Pass
// a storage.Overlay to stage writes for a single call.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	heightKey      = ethcrypto.Keccak256([]byte("chain:height"))
	paramKeyPrefix = []byte("params:")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) getRaw(key []byte) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state: database not configured")
	}
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

func (m *Manager) loadRLP(key []byte, out interface{}) (bool, error) {
	data, ok, err := m.getRaw(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) writeRLP(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) delete(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	return m.db.Delete(key)
}

// Height returns the current block height. A fresh database starts at zero.
func (m *Manager) Height() (uint64, error) {
	var height uint64
	if _, err := m.loadRLP(heightKey, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SetHeight stores the current block height.
func (m *Manager) SetHeight(height uint64) error {
	return m.writeRLP(heightKey, height)
}

// ParamStoreSet writes a raw governance parameter blob.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("state: parameter name must not be empty")
	}
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	return m.db.Put(prefixedKey(paramKeyPrefix, []byte(name)), append([]byte(nil), value...))
}

// ParamStoreGet reads a raw governance parameter blob.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("state: parameter name must not be empty")
	}
	return m.getRaw(prefixedKey(paramKeyPrefix, []byte(name)))
}
