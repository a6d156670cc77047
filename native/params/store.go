package params

import (
	"bytes"
	"encoding/json"
	"fmt"

	nativecommon "fdchain/native/common"
)

// StoreState captures the subset of state manager capabilities required by the
// parameter helpers.
type StoreState interface {
	ParamStoreSet(name string, value []byte) error
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Store provides typed accessors for operator-controlled parameters.
type Store struct {
	state StoreState
}

// NewStore constructs a parameter store wrapper using the supplied state
// backend.
func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

// SetPauses persists the supplied pause configuration under the canonical
// parameter store key. Values are marshalled as JSON objects keyed by module.
func (s *Store) SetPauses(pauses nativecommon.PauseSet) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if pauses == nil {
		pauses = nativecommon.PauseSet{}
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return state.ParamStoreSet(ParamsKeyPauses, encoded)
}

// Pauses loads the persisted pause configuration. When unset, an empty set is
// returned.
func (s *Store) Pauses() (nativecommon.PauseSet, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	raw, ok, err := state.ParamStoreGet(ParamsKeyPauses)
	if err != nil {
		return nil, err
	}
	pauses := nativecommon.PauseSet{}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return pauses, nil
	}
	var decoded map[string]bool
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("params: decode pauses: %w", err)
	}
	for module, paused := range decoded {
		pauses.Set(module, paused)
	}
	return pauses, nil
}

// SetPaused toggles a single module and persists the result.
func (s *Store) SetPaused(module string, paused bool) (nativecommon.PauseSet, error) {
	pauses, err := s.Pauses()
	if err != nil {
		return nil, err
	}
	pauses.Set(module, paused)
	if err := s.SetPauses(pauses); err != nil {
		return nil, err
	}
	return pauses, nil
}
