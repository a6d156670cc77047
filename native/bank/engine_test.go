package bank

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"fdchain/core/events"
	"fdchain/core/types"
	"fdchain/crypto"
	nativecommon "fdchain/native/common"
	"fdchain/state/currency"
)

type depositKey struct {
	depositor [20]byte
	id        uint64
}

type mockState struct {
	params     *Params
	treasury   *crypto.Address
	depositors map[[20]byte]*DepositorState
	deposits   map[depositKey]*Deposit
	accounts   map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		depositors: make(map[[20]byte]*DepositorState),
		deposits:   make(map[depositKey]*Deposit),
		accounts:   make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) GetBankParams() (*Params, bool, error) {
	if m.params == nil {
		return nil, false, nil
	}
	clone := *m.params
	return &clone, true, nil
}

func (m *mockState) PutBankParams(p *Params) error {
	clone := *p
	m.params = &clone
	return nil
}

func (m *mockState) GetBankTreasury() (crypto.Address, bool, error) {
	if m.treasury == nil {
		return crypto.Address{}, false, nil
	}
	return *m.treasury, true, nil
}

func (m *mockState) PutBankTreasury(addr crypto.Address) error {
	m.treasury = &addr
	return nil
}

func (m *mockState) DeleteBankTreasury() error {
	m.treasury = nil
	return nil
}

func (m *mockState) GetDepositorState(depositor crypto.Address) (*DepositorState, error) {
	counters, ok := m.depositors[depositor.Raw()]
	if !ok {
		return &DepositorState{}, nil
	}
	clone := *counters
	return &clone, nil
}

func (m *mockState) PutDepositorState(depositor crypto.Address, counters *DepositorState) error {
	clone := *counters
	m.depositors[depositor.Raw()] = &clone
	return nil
}

func (m *mockState) GetDeposit(depositor crypto.Address, id uint64) (*Deposit, bool, error) {
	deposit, ok := m.deposits[depositKey{depositor.Raw(), id}]
	if !ok {
		return nil, false, nil
	}
	return deposit.Clone(), true, nil
}

func (m *mockState) PutDeposit(deposit *Deposit) error {
	m.deposits[depositKey{deposit.Depositor.Raw(), deposit.ID}] = deposit.Clone()
	return nil
}

func (m *mockState) DeleteDeposit(depositor crypto.Address, id uint64) error {
	delete(m.deposits, depositKey{depositor.Raw(), id})
	return nil
}

func (m *mockState) GetAccount(addr crypto.Address) (*types.Account, error) {
	account, ok := m.accounts[addr.Raw()]
	if !ok {
		return nil, nil
	}
	return account.Clone(), nil
}

func (m *mockState) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[addr.Raw()] = account.Clone()
	return nil
}

func newTestAddress(fill byte) crypto.Address {
	var raw [20]byte
	copy(raw[:], bytes.Repeat([]byte{fill}, 20))
	return crypto.MustNewAddress(raw)
}

var (
	alice        = newTestAddress(0x01)
	bob          = newTestAddress(0x02)
	charlie      = newTestAddress(0x03)
	dave         = newTestAddress(0x04)
	treasuryAddr = newTestAddress(0xEE)
)

func defaultTestParams() Params {
	return Params{
		InterestRate:         80_000,
		PenaltyRate:          5_000,
		CompoundingFrequency: 1,
		EpochLength:          BlocksPerYear,
	}
}

type harness struct {
	engine *Engine
	state  *mockState
	ledger *currency.Ledger
	events *events.Buffer
	height uint64
}

// newHarness returns an unconfigured engine at height 1 with the genesis
// balances of the reference runtime.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{state: newMockState(), events: &events.Buffer{}, height: 1}
	h.ledger = currency.NewLedger(h.state)
	h.engine = NewEngine(DefaultConfig())
	h.engine.SetState(h.state)
	h.engine.SetCurrency(h.ledger)
	h.engine.SetEmitter(h.events)
	h.engine.SetHeightFunc(func() uint64 { return h.height })
	for addr, amount := range map[crypto.Address]int64{
		alice:        10_000,
		bob:          20_000,
		charlie:      30_000,
		dave:         40_000,
		treasuryAddr: 1_000_000,
	} {
		require.NoError(t, h.ledger.Mint(addr, big.NewInt(amount)))
	}
	return h
}

// newConfiguredHarness additionally sets the default parameters and binds the
// treasury.
func newConfiguredHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	require.NoError(t, h.engine.SetParams(RootOrigin(), defaultTestParams()))
	require.NoError(t, h.engine.SetTreasury(RootOrigin(), treasuryAddr))
	h.events.Reset()
	return h
}

func (h *harness) requireBalances(t *testing.T, who crypto.Address, free, reserved int64) {
	t.Helper()
	gotFree, err := h.ledger.FreeBalance(who)
	require.NoError(t, err)
	gotReserved, err := h.ledger.ReservedBalance(who)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(free).String(), gotFree.String(), "free balance")
	require.Equal(t, big.NewInt(reserved).String(), gotReserved.String(), "reserved balance")
}

func (h *harness) eventTypes() []string {
	var out []string
	for _, evt := range h.events.Events() {
		out = append(out, evt.EventType())
	}
	return out
}

func TestOpenDepositValidationOrder(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(t *testing.T, h *harness)
		origin   Origin
		amount   *big.Int
		maturity uint64
		wantErr  error
	}{
		{
			name:     "root origin cannot open",
			origin:   RootOrigin(),
			amount:   big.NewInt(100),
			maturity: BlocksPerYear,
			wantErr:  ErrUnsignedOrigin,
		},
		{
			name:     "zero caller",
			origin:   Origin{},
			amount:   big.NewInt(100),
			maturity: BlocksPerYear,
			wantErr:  ErrUnsignedOrigin,
		},
		{
			name: "paused before amount checks",
			setup: func(t *testing.T, h *harness) {
				h.engine.SetPauses(nativecommon.PauseSet{"bank": true})
			},
			origin:   Signed(alice),
			amount:   big.NewInt(0),
			maturity: BlocksPerYear,
			wantErr:  nativecommon.ErrModulePaused,
		},
		{
			name:     "zero amount before configuration",
			origin:   Signed(alice),
			amount:   big.NewInt(0),
			maturity: BlocksPerYear,
			wantErr:  ErrZeroAmount,
		},
		{
			name:     "below minimum",
			origin:   Signed(alice),
			amount:   big.NewInt(49),
			maturity: BlocksPerYear,
			wantErr:  ErrAmountBelowMinimum,
		},
		{
			name:     "above maximum",
			origin:   Signed(alice),
			amount:   big.NewInt(200_001),
			maturity: BlocksPerYear,
			wantErr:  ErrAmountAboveMaximum,
		},
		{
			name:     "treasury checked before params",
			origin:   Signed(alice),
			amount:   big.NewInt(100),
			maturity: BlocksPerYear,
			wantErr:  ErrTreasuryNotSet,
		},
		{
			name: "params not set",
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.engine.SetTreasury(RootOrigin(), treasuryAddr))
			},
			origin:   Signed(alice),
			amount:   big.NewInt(100),
			maturity: BlocksPerYear,
			wantErr:  ErrParamsNotSet,
		},
		{
			name:     "maturity shorter than epoch",
			setup:    configure,
			origin:   Signed(alice),
			amount:   big.NewInt(100),
			maturity: BlocksPerYear - 1,
			wantErr:  ErrMaturityBelowEpoch,
		},
		{
			name:     "maturity above maximum",
			setup:    configure,
			origin:   Signed(alice),
			amount:   big.NewInt(100),
			maturity: 5*BlocksPerYear + 1,
			wantErr:  ErrMaturityAboveMaximum,
		},
		{
			name:     "insufficient balance",
			setup:    configure,
			origin:   Signed(alice),
			amount:   big.NewInt(10_001),
			maturity: BlocksPerYear,
			wantErr:  currency.ErrInsufficientBalance,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.setup != nil {
				tc.setup(t, h)
			}
			h.events.Reset()
			id, err := h.engine.OpenDeposit(tc.origin, tc.amount, tc.maturity)
			require.ErrorIs(t, err, tc.wantErr)
			require.Zero(t, id)
			require.Empty(t, h.state.deposits)
			require.Empty(t, h.events.Events())
			h.requireBalances(t, alice, 10_000, 0)
		})
	}
}

func configure(t *testing.T, h *harness) {
	require.NoError(t, h.engine.SetParams(RootOrigin(), defaultTestParams()))
	require.NoError(t, h.engine.SetTreasury(RootOrigin(), treasuryAddr))
}

func TestOpenDepositReservesPrincipal(t *testing.T) {
	h := newConfiguredHarness(t)

	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	h.requireBalances(t, alice, 9_900, 100)

	deposit, err := h.engine.Deposit(alice, id)
	require.NoError(t, err)
	require.Equal(t, "100", deposit.Principal.String())
	require.Equal(t, uint64(1), deposit.OpenedAt)
	require.Equal(t, BlocksPerYear, deposit.MaturityPeriod)
	require.Equal(t, BlocksPerYear+1, deposit.MaturesAt())

	counters, err := h.engine.DepositorState(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1), counters.LastDepositID)
	require.Zero(t, counters.InvestmentScore)

	evts := h.events.Events()
	require.Len(t, evts, 1)
	opened := evts[0].Event()
	require.Equal(t, EventTypeDepositOpened, opened.Type)
	require.Equal(t, alice.String(), opened.Attr("depositor"))
	require.Equal(t, "1", opened.Attr("id"))
	require.Equal(t, "100", opened.Attr("principal"))

	h.height = 10
	second, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(50), 2*BlocksPerYear)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second)
	h.requireBalances(t, alice, 9_850, 150)

	// ids are per depositor
	first, err := h.engine.OpenDeposit(Signed(bob), big.NewInt(1_000), BlocksPerYear)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first)
}

func TestOpenDepositRejectsIDCollision(t *testing.T) {
	h := newConfiguredHarness(t)
	require.NoError(t, h.state.PutDeposit(&Deposit{Depositor: alice, ID: 1, Principal: big.NewInt(5), MaturityPeriod: 1}))

	_, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.ErrorIs(t, err, ErrDepositIDCollision)
	h.requireBalances(t, alice, 10_000, 0)
}

func TestCloseMaturedDepositPaysInterest(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)

	h.height = 5_184_001
	settlement, err := h.engine.CloseDeposit(Signed(alice), id, true)
	require.NoError(t, err)
	require.True(t, settlement.Matured)
	require.Equal(t, "8", settlement.Interest.String())
	require.Zero(t, settlement.Penalty.Sign())
	require.Equal(t, BlocksPerYear, settlement.Elapsed)

	h.requireBalances(t, alice, 10_008, 0)
	h.requireBalances(t, treasuryAddr, 999_992, 0)

	_, err = h.engine.Deposit(alice, id)
	require.ErrorIs(t, err, ErrDepositNotFound)

	require.Equal(t, []string{EventTypeDepositOpened, EventTypeDepositClosed}, h.eventTypes())
	closed := h.events.Events()[1].Event()
	require.Equal(t, "true", closed.Attr("matured"))
	require.Equal(t, "8", closed.Attr("interest"))
	require.Equal(t, "0", closed.Attr("penalty"))
	require.Equal(t, "100", closed.Attr("principal"))
	require.Equal(t, uint64(5_184_001), closed.Height)
}

func TestClosePrematureDepositChargesPenalty(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)

	h.height = 3_888_000
	settlement, err := h.engine.CloseDeposit(Signed(alice), id, false)
	require.NoError(t, err)
	require.False(t, settlement.Matured)
	// 100 * 0.5% truncates to zero and is raised to the minimum penalty.
	require.Equal(t, "1", settlement.Penalty.String())
	require.Zero(t, settlement.Interest.Sign())

	h.requireBalances(t, alice, 9_999, 0)
	h.requireBalances(t, treasuryAddr, 1_000_001, 0)
}

func TestOpenThenImmediateCloseRoundTrip(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(charlie), big.NewInt(20_000), BlocksPerYear)
	require.NoError(t, err)

	settlement, err := h.engine.CloseDeposit(Signed(charlie), id, false)
	require.NoError(t, err)
	require.Equal(t, "100", settlement.Penalty.String())
	require.Zero(t, settlement.Elapsed)
	h.requireBalances(t, charlie, 29_900, 0)
}

func TestCloseMismatchLeavesDepositIntact(t *testing.T) {
	cases := []struct {
		name    string
		height  uint64
		claimed bool
	}{
		{name: "claims matured too early", height: 1_000, claimed: true},
		{name: "claims matured one block early", height: BlocksPerYear, claimed: true},
		{name: "claims premature after maturity", height: BlocksPerYear + 1, claimed: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newConfiguredHarness(t)
			id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
			require.NoError(t, err)
			h.events.Reset()

			h.height = tc.height
			_, err = h.engine.CloseDeposit(Signed(alice), id, tc.claimed)
			require.ErrorIs(t, err, ErrInvalidCloseCombination)
			require.Equal(t, ClassConsistency, Classify(err))

			_, err = h.engine.Deposit(alice, id)
			require.NoError(t, err)
			h.requireBalances(t, alice, 9_900, 100)
			h.requireBalances(t, treasuryAddr, 1_000_000, 0)
			require.Empty(t, h.events.Events())
		})
	}
}

func TestCloseDepositErrors(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)

	_, err = h.engine.CloseDeposit(RootOrigin(), id, false)
	require.ErrorIs(t, err, ErrUnsignedOrigin)

	_, err = h.engine.CloseDeposit(Signed(alice), 0, false)
	require.ErrorIs(t, err, ErrInvalidDepositID)

	_, err = h.engine.CloseDeposit(Signed(alice), id+1, false)
	require.ErrorIs(t, err, ErrDepositNotFound)

	_, err = h.engine.CloseDeposit(Signed(bob), id, false)
	require.ErrorIs(t, err, ErrDepositNotFound)

	h.height = 0
	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.ErrorIs(t, err, ErrElapsedUnderflow)

	h.requireBalances(t, alice, 9_900, 100)
}

func TestCloseRequiresTreasury(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)
	require.NoError(t, h.engine.ResetTreasury(RootOrigin()))

	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.ErrorIs(t, err, ErrTreasuryNotSet)
	h.requireBalances(t, alice, 9_900, 100)
}

func TestCloseMaturedRequiresTreasuryAboveInterest(t *testing.T) {
	h := newConfiguredHarness(t)
	poor := newTestAddress(0xDD)
	require.NoError(t, h.ledger.Mint(poor, big.NewInt(8)))
	require.NoError(t, h.engine.SetTreasury(RootOrigin(), poor))

	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)

	h.height = BlocksPerYear + 1
	_, err = h.engine.CloseDeposit(Signed(alice), id, true)
	require.ErrorIs(t, err, ErrInsufficientTreasury)
	require.Equal(t, ClassFunds, Classify(err))
	h.requireBalances(t, alice, 9_900, 100)
	h.requireBalances(t, poor, 8, 0)

	require.NoError(t, h.ledger.Mint(poor, big.NewInt(1)))
	_, err = h.engine.CloseDeposit(Signed(alice), id, true)
	require.NoError(t, err)
	h.requireBalances(t, alice, 10_008, 0)
	h.requireBalances(t, poor, 1, 0)
}

func TestClosePrematureRequiresFreeBalanceAbovePenalty(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(10_000), BlocksPerYear)
	require.NoError(t, err)
	h.requireBalances(t, alice, 0, 10_000)

	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.ErrorIs(t, err, ErrInsufficientBalanceForPenalty)
	h.requireBalances(t, alice, 0, 10_000)

	require.NoError(t, h.ledger.Mint(alice, big.NewInt(51)))
	settlement, err := h.engine.CloseDeposit(Signed(alice), id, false)
	require.NoError(t, err)
	require.Equal(t, "50", settlement.Penalty.String())
	h.requireBalances(t, alice, 10_001, 0)
}

func TestQuoteCloseDoesNotMutate(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)
	h.events.Reset()

	quote, err := h.engine.QuoteClose(alice, id)
	require.NoError(t, err)
	require.False(t, quote.Matured)
	require.Equal(t, "1", quote.Penalty.String())

	h.height = BlocksPerYear + 1
	quote, err = h.engine.QuoteClose(alice, id)
	require.NoError(t, err)
	require.True(t, quote.Matured)
	require.Equal(t, "8", quote.Interest.String())

	h.requireBalances(t, alice, 9_900, 100)
	require.Empty(t, h.events.Events())
	_, err = h.engine.Deposit(alice, id)
	require.NoError(t, err)
}

func TestDepositsListsOpenDepositsInOrder(t *testing.T) {
	h := newConfiguredHarness(t)
	for i := 0; i < 3; i++ {
		_, err := h.engine.OpenDeposit(Signed(dave), big.NewInt(1_000), BlocksPerYear)
		require.NoError(t, err)
	}
	_, err := h.engine.CloseDeposit(Signed(dave), 2, false)
	require.NoError(t, err)

	deposits, err := h.engine.Deposits(dave)
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	require.Equal(t, uint64(1), deposits[0].ID)
	require.Equal(t, uint64(3), deposits[1].ID)

	// closed ids are never reused
	id, err := h.engine.OpenDeposit(Signed(dave), big.NewInt(1_000), BlocksPerYear)
	require.NoError(t, err)
	require.Equal(t, uint64(4), id)

	none, err := h.engine.Deposits(bob)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestAdminOperationsRequireRoot(t *testing.T) {
	h := newHarness(t)

	require.ErrorIs(t, h.engine.SetParams(Signed(alice), defaultTestParams()), ErrNotAdmin)
	require.ErrorIs(t, h.engine.SetTreasury(Signed(alice), treasuryAddr), ErrNotAdmin)
	require.ErrorIs(t, h.engine.ResetTreasury(Signed(alice)), ErrNotAdmin)

	_, ok, err := h.engine.Params()
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = h.engine.Treasury()
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, h.events.Events())
}

func TestSetParams(t *testing.T) {
	h := newHarness(t)
	h.height = 42

	bad := defaultTestParams()
	bad.CompoundingFrequency = 0
	require.ErrorIs(t, h.engine.SetParams(RootOrigin(), bad), ErrZeroParam)

	bad = defaultTestParams()
	bad.PenaltyRate = PermillOne + 1
	require.ErrorIs(t, h.engine.SetParams(RootOrigin(), bad), ErrRateOutOfRange)

	require.NoError(t, h.engine.SetParams(RootOrigin(), defaultTestParams()))
	stored, ok, err := h.engine.Params()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, defaultTestParams(), stored)

	updated := defaultTestParams()
	updated.InterestRate = percent(t, 5)
	require.NoError(t, h.engine.SetParams(RootOrigin(), updated))
	stored, _, err = h.engine.Params()
	require.NoError(t, err)
	require.Equal(t, percent(t, 5), stored.InterestRate)

	evts := h.events.Events()
	require.Len(t, evts, 2)
	require.Equal(t, EventTypeParamsSet, evts[0].EventType())
	require.Equal(t, "80000", evts[0].Event().Attr("interestRate"))
	require.Equal(t, uint64(42), evts[0].Event().Height)
}

func TestTreasuryBinding(t *testing.T) {
	h := newHarness(t)

	require.ErrorIs(t, h.engine.SetTreasury(RootOrigin(), crypto.Address{}), ErrInvalidTreasury)
	require.ErrorIs(t, h.engine.ResetTreasury(RootOrigin()), ErrTreasuryNotSet)

	require.NoError(t, h.engine.SetTreasury(RootOrigin(), treasuryAddr))
	bound, ok, err := h.engine.Treasury()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, bound.Equal(treasuryAddr))

	require.NoError(t, h.engine.ResetTreasury(RootOrigin()))
	_, ok, err = h.engine.Treasury()
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, []string{EventTypeTreasurySet, EventTypeTreasuryReset}, h.eventTypes())
	require.Equal(t, treasuryAddr.String(), h.events.Events()[1].Event().Attr("treasury"))
}

func TestPauseBlocksLifecycleOnly(t *testing.T) {
	h := newConfiguredHarness(t)
	id, err := h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.NoError(t, err)

	pauses := nativecommon.PauseSet{}
	pauses.Set("Bank", true)
	h.engine.SetPauses(pauses)

	_, err = h.engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
	require.Equal(t, ClassPaused, Classify(err))

	require.NoError(t, h.engine.SetParams(RootOrigin(), defaultTestParams()))

	pauses.Set("bank", false)
	_, err = h.engine.CloseDeposit(Signed(alice), id, false)
	require.NoError(t, err)
}

func TestEngineRequiresState(t *testing.T) {
	engine := NewEngine(Config{})
	_, err := engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.True(t, errors.Is(err, errNilState))

	engine.SetState(newMockState())
	_, err = engine.OpenDeposit(Signed(alice), big.NewInt(100), BlocksPerYear)
	require.True(t, errors.Is(err, errNilCurrency))
	require.Equal(t, ClassInternal, Classify(err))

	cfg := engine.Config()
	require.Equal(t, "50", cfg.MinFDAmount.String())
}
