package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type memParams map[string][]byte

func (m memParams) ParamStoreSet(name string, value []byte) error {
	m[name] = append([]byte(nil), value...)
	return nil
}

func (m memParams) ParamStoreGet(name string) ([]byte, bool, error) {
	value, ok := m[name]
	return value, ok, nil
}

func TestPausesRoundTrip(t *testing.T) {
	store := NewStore(memParams{})

	pauses, err := store.Pauses()
	require.NoError(t, err)
	require.Empty(t, pauses.Modules())

	pauses, err = store.SetPaused("Bank", true)
	require.NoError(t, err)
	require.True(t, pauses.IsPaused("bank"))

	loaded, err := store.Pauses()
	require.NoError(t, err)
	require.Equal(t, []string{"bank"}, loaded.Modules())

	_, err = store.SetPaused("bank", false)
	require.NoError(t, err)
	loaded, err = store.Pauses()
	require.NoError(t, err)
	require.False(t, loaded.IsPaused("bank"))
}

func TestStoreRequiresState(t *testing.T) {
	var store *Store
	_, err := store.Pauses()
	require.Error(t, err)
	require.Error(t, NewStore(nil).SetPauses(nil))
}
