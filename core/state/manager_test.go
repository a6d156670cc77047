package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"fdchain/core/types"
	"fdchain/crypto"
	"fdchain/native/bank"
	"fdchain/storage"
)

func testAddress(fill byte) crypto.Address {
	var raw [20]byte
	for i := range raw {
		raw[i] = fill
	}
	return crypto.MustNewAddress(raw)
}

func TestHeightDefaultsToZero(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	height, err := manager.Height()
	require.NoError(t, err)
	require.Zero(t, height)

	require.NoError(t, manager.SetHeight(12))
	height, err = manager.Height()
	require.NoError(t, err)
	require.Equal(t, uint64(12), height)
}

func TestAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x11)

	missing, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Nil(t, missing)

	account := &types.Account{
		Free:     big.NewInt(900),
		Reserved: big.NewInt(100),
		Locks:    []types.BalanceLock{{ID: types.NewLockID("fdbank"), Amount: big.NewInt(50)}},
	}
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, "900", loaded.Free.String())
	require.Equal(t, "100", loaded.Reserved.String())
	require.Len(t, loaded.Locks, 1)
	require.Equal(t, types.NewLockID("fdbank"), loaded.Locks[0].ID)
	require.Equal(t, "50", loaded.Locks[0].Amount.String())
}

func TestBankParamsAndTreasury(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	_, ok, err := manager.GetBankParams()
	require.NoError(t, err)
	require.False(t, ok)

	params := &bank.Params{InterestRate: 80_000, PenaltyRate: 5_000, CompoundingFrequency: 12, EpochLength: bank.BlocksPerYear}
	require.NoError(t, manager.PutBankParams(params))
	loaded, ok, err := manager.GetBankParams()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, *params, *loaded)

	_, ok, err = manager.GetBankTreasury()
	require.NoError(t, err)
	require.False(t, ok)

	treasury := testAddress(0xEE)
	require.NoError(t, manager.PutBankTreasury(treasury))
	bound, ok, err := manager.GetBankTreasury()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, bound.Equal(treasury))

	require.NoError(t, manager.DeleteBankTreasury())
	_, ok, err = manager.GetBankTreasury()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDepositRecords(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	depositor := testAddress(0x01)

	counters, err := manager.GetDepositorState(depositor)
	require.NoError(t, err)
	require.Equal(t, bank.DepositorState{}, *counters)

	require.NoError(t, manager.PutDepositorState(depositor, &bank.DepositorState{LastDepositID: 3}))
	counters, err = manager.GetDepositorState(depositor)
	require.NoError(t, err)
	require.Equal(t, uint64(3), counters.LastDepositID)

	deposit := &bank.Deposit{Depositor: depositor, ID: 3, Principal: big.NewInt(1_000), OpenedAt: 7, MaturityPeriod: 100}
	require.NoError(t, manager.PutDeposit(deposit))

	loaded, ok, err := manager.GetDeposit(depositor, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Depositor.Equal(depositor))
	require.Equal(t, "1000", loaded.Principal.String())
	require.Equal(t, uint64(7), loaded.OpenedAt)
	require.Equal(t, uint64(100), loaded.MaturityPeriod)

	_, ok, err = manager.GetDeposit(testAddress(0x02), 3)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.DeleteDeposit(depositor, 3))
	_, ok, err = manager.GetDeposit(depositor, 3)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, manager.PutDepositorState(crypto.Address{}, &bank.DepositorState{}))
}

func TestDepositKeysDistinct(t *testing.T) {
	a := testAddress(0x01)
	require.NotEqual(t, BankDepositKey(a, 1), BankDepositKey(a, 2))
	require.NotEqual(t, BankDepositKey(a, 1), BankDepositKey(testAddress(0x02), 1))
	require.NotEqual(t, BankDepositorKey(a), BankDepositKey(a, 0))
}

func TestOverlayIsolatesWrites(t *testing.T) {
	db := storage.NewMemDB()
	overlay := storage.NewOverlay(db)
	staged := NewManager(overlay)
	require.NoError(t, staged.SetHeight(5))

	height, err := NewManager(db).Height()
	require.NoError(t, err)
	require.Zero(t, height)

	require.NoError(t, overlay.Commit())
	height, err = NewManager(db).Height()
	require.NoError(t, err)
	require.Equal(t, uint64(5), height)
}

func TestParamStore(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	_, ok, err := manager.ParamStoreGet("system/pauses")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.ParamStoreSet("system/pauses", []byte(`{"bank":true}`)))
	raw, ok, err := manager.ParamStoreGet("system/pauses")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"bank":true}`, string(raw))

	require.Error(t, manager.ParamStoreSet("", nil))
}
