package bank

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"fdchain/state/currency"
)

func TestLockForDAOBounds(t *testing.T) {
	cases := []struct {
		amount  *big.Int
		wantErr error
	}{
		{amount: big.NewInt(0), wantErr: ErrLockBelowMinimum},
		{amount: big.NewInt(19), wantErr: ErrLockBelowMinimum},
		{amount: big.NewInt(100_001), wantErr: ErrLockAboveMaximum},
		{amount: new(big.Int).Set(MaxBalance), wantErr: ErrLockAboveMaximum},
		{amount: big.NewInt(20)},
		{amount: big.NewInt(21)},
		{amount: big.NewInt(100_000)},
	}
	for _, tc := range cases {
		h := newHarness(t)
		err := h.engine.LockForDAO(Signed(alice), tc.amount)
		if tc.wantErr != nil {
			require.ErrorIs(t, err, tc.wantErr, tc.amount.String())
			_, ok, err := h.engine.DAOLock(alice)
			require.NoError(t, err)
			require.False(t, ok)
			continue
		}
		require.NoError(t, err, tc.amount.String())
		locked, ok, err := h.engine.DAOLock(alice)
		require.NoError(t, err)
		require.True(t, ok)
		require.Zero(t, locked.Cmp(tc.amount))
	}
}

func TestDAOLockRestrictsTransfers(t *testing.T) {
	h := newHarness(t)
	h.height = 7
	require.NoError(t, h.engine.LockForDAO(Signed(alice), big.NewInt(9_990)))

	err := h.ledger.Transfer(alice, bob, big.NewInt(11))
	require.ErrorIs(t, err, currency.ErrLiquidityRestricted)
	require.NoError(t, h.ledger.Transfer(alice, bob, big.NewInt(10)))

	evts := h.events.Events()
	require.Len(t, evts, 1)
	locked := evts[0].Event()
	require.Equal(t, EventTypeDAOLocked, locked.Type)
	require.Equal(t, alice.String(), locked.Attr("user"))
	require.Equal(t, "9990", locked.Attr("amount"))
	require.Equal(t, "7", locked.Attr("block"))

	require.NoError(t, h.engine.UnlockDAO(Signed(alice)))
	require.NoError(t, h.ledger.Transfer(alice, bob, big.NewInt(9_990)))
	require.Equal(t, []string{EventTypeDAOLocked, EventTypeDAOUnlocked}, h.eventTypes())

	require.ErrorIs(t, h.engine.UnlockDAO(Signed(alice)), ErrNoDAOLock)
}

func TestDAOLockBlocksPenaltyTransfer(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)
	require.NoError(t, h.engine.LockForDAO(Signed(alice), big.NewInt(9_900)))

	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.ErrorIs(t, err, currency.ErrLiquidityRestricted)
	require.Equal(t, ClassFunds, Classify(err))
	h.requireBalances(t, alice, 9_900, 100)
}

func TestLockForDAORequiresSignedOrigin(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.engine.LockForDAO(RootOrigin(), big.NewInt(50)), ErrUnsignedOrigin)
	require.ErrorIs(t, h.engine.UnlockDAO(Origin{}), ErrUnsignedOrigin)
}
