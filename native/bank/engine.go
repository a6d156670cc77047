package bank

import (
	"fmt"
	"log/slog"
	"math/big"

	"fdchain/core/events"
	"fdchain/core/types"
	"fdchain/crypto"
	nativecommon "fdchain/native/common"
)

const moduleName = "bank"

var errModulePaused = nativecommon.ErrModulePaused

type engineState interface {
	GetBankParams() (*Params, bool, error)
	PutBankParams(params *Params) error
	GetBankTreasury() (crypto.Address, bool, error)
	PutBankTreasury(addr crypto.Address) error
	DeleteBankTreasury() error
	GetDepositorState(depositor crypto.Address) (*DepositorState, error)
	PutDepositorState(depositor crypto.Address, state *DepositorState) error
	GetDeposit(depositor crypto.Address, id uint64) (*Deposit, bool, error)
	PutDeposit(deposit *Deposit) error
	DeleteDeposit(depositor crypto.Address, id uint64) error
}

// Currency is the host ledger consumed by the engine. Reservations and locks
// are enforced by the implementation; the engine never touches raw balances.
type Currency interface {
	FreeBalance(addr crypto.Address) (*big.Int, error)
	Reserve(addr crypto.Address, amount *big.Int) error
	Unreserve(addr crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
	SetLock(id types.LockID, addr crypto.Address, amount *big.Int) error
	RemoveLock(id types.LockID, addr crypto.Address) error
	LockedBalance(id types.LockID, addr crypto.Address) (*big.Int, bool, error)
}

// Engine implements the fixed-deposit lifecycle on top of an external state
// backend, currency ledger and block clock.
type Engine struct {
	state    engineState
	currency Currency
	emitter  events.Emitter
	config   Config
	heightFn func() uint64
	pauses   nativecommon.PauseView
	logger   *slog.Logger
}

// NewEngine constructs an engine enforcing the supplied limits. Missing limits
// fall back to DefaultConfig.
func NewEngine(cfg Config) *Engine {
	cfg = cfg.Clone()
	cfg.EnsureDefaults()
	return &Engine{
		config:   cfg,
		emitter:  events.NoopEmitter{},
		heightFn: func() uint64 { return 0 },
		logger:   slog.Default(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCurrency wires the host ledger.
func (e *Engine) SetCurrency(c Currency) { e.currency = c }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetHeightFunc overrides the block clock.
func (e *Engine) SetHeightFunc(fn func() uint64) {
	if fn == nil {
		e.heightFn = func() uint64 { return 0 }
		return
	}
	e.heightFn = fn
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogger replaces the structured logger. Nil restores slog.Default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger.With("module", moduleName)
}

// Config returns a copy of the enforced limits.
func (e *Engine) Config() Config { return e.config.Clone() }

func (e *Engine) height() uint64 { return e.heightFn() }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Typed{Evt: evt})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.currency == nil {
		return errNilCurrency
	}
	return nil
}

func requireSigned(origin Origin) (crypto.Address, error) {
	if origin.Root || origin.Caller.IsZero() {
		return crypto.Address{}, ErrUnsignedOrigin
	}
	return origin.Caller, nil
}

func requireRoot(origin Origin) error {
	if !origin.Root {
		return ErrNotAdmin
	}
	return nil
}

// OpenDeposit reserves amount from the caller and records a new deposit
// maturing after maturityPeriod blocks. The new deposit id is returned.
func (e *Engine) OpenDeposit(origin Origin, amount *big.Int, maturityPeriod uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	depositor, err := requireSigned(origin)
	if err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrZeroAmount
	}
	if amount.Cmp(e.config.MinFDAmount) < 0 {
		return 0, fmt.Errorf("%w: %s < %s", ErrAmountBelowMinimum, amount, e.config.MinFDAmount)
	}
	if amount.Cmp(e.config.MaxFDAmount) > 0 {
		return 0, fmt.Errorf("%w: %s > %s", ErrAmountAboveMaximum, amount, e.config.MaxFDAmount)
	}
	if _, err := e.requireTreasury(); err != nil {
		return 0, err
	}
	params, err := e.requireParams()
	if err != nil {
		return 0, err
	}
	if maturityPeriod < params.EpochLength {
		return 0, fmt.Errorf("%w: %d < %d", ErrMaturityBelowEpoch, maturityPeriod, params.EpochLength)
	}
	if maturityPeriod > e.config.MaxFDMaturityPeriod {
		return 0, fmt.Errorf("%w: %d > %d", ErrMaturityAboveMaximum, maturityPeriod, e.config.MaxFDMaturityPeriod)
	}

	id, counters, err := e.nextID(depositor)
	if err != nil {
		return 0, err
	}
	if err := e.ensureVacant(depositor, id); err != nil {
		return 0, err
	}
	if err := e.currency.Reserve(depositor, amount); err != nil {
		return 0, fmt.Errorf("bank: reserve principal: %w", err)
	}
	deposit := &Deposit{
		Depositor:      depositor,
		ID:             id,
		Principal:      new(big.Int).Set(amount),
		OpenedAt:       e.height(),
		MaturityPeriod: maturityPeriod,
	}
	if err := e.insertDeposit(deposit); err != nil {
		return 0, err
	}
	counters.LastDepositID = id
	if err := e.state.PutDepositorState(depositor, counters); err != nil {
		return 0, err
	}
	e.emit(NewDepositOpenedEvent(deposit))
	e.logger.Debug("deposit opened",
		"depositor", depositor.String(),
		"id", id,
		"principal", amount.String(),
		"maturityPeriod", maturityPeriod,
		"height", deposit.OpenedAt)
	return id, nil
}

// CloseDeposit settles the caller's deposit. claimedMatured selects the
// settlement path and must agree with the elapsed blocks: matured closes pay
// compound interest from the treasury, premature closes pay a penalty to it.
// Any mismatch fails without touching state.
func (e *Engine) CloseDeposit(origin Origin, id uint64, claimedMatured bool) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	depositor, err := requireSigned(origin)
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, ErrInvalidDepositID
	}
	deposit, err := e.loadDeposit(depositor, id)
	if err != nil {
		return nil, err
	}
	treasury, err := e.requireTreasury()
	if err != nil {
		return nil, err
	}
	params, err := e.requireParams()
	if err != nil {
		return nil, err
	}
	settlement, err := computeSettlement(deposit, params, e.height(), claimedMatured)
	if err != nil {
		return nil, err
	}

	if settlement.Matured {
		available, err := e.currency.FreeBalance(treasury)
		if err != nil {
			return nil, err
		}
		if available.Cmp(settlement.Interest) <= 0 {
			return nil, fmt.Errorf("%w: have %s, need more than %s", ErrInsufficientTreasury, available, settlement.Interest)
		}
		if settlement.Interest.Sign() > 0 {
			if err := e.currency.Transfer(treasury, depositor, settlement.Interest); err != nil {
				return nil, fmt.Errorf("bank: pay interest: %w", err)
			}
		}
	} else {
		available, err := e.currency.FreeBalance(depositor)
		if err != nil {
			return nil, err
		}
		if available.Cmp(settlement.Penalty) <= 0 {
			return nil, fmt.Errorf("%w: have %s, need more than %s", ErrInsufficientBalanceForPenalty, available, settlement.Penalty)
		}
		if err := e.currency.Transfer(depositor, treasury, settlement.Penalty); err != nil {
			return nil, fmt.Errorf("bank: collect penalty: %w", err)
		}
	}
	if err := e.currency.Unreserve(depositor, deposit.Principal); err != nil {
		return nil, fmt.Errorf("bank: release principal: %w", err)
	}
	if err := e.removeDeposit(depositor, id); err != nil {
		return nil, err
	}
	e.emit(NewDepositClosedEvent(settlement))
	e.logger.Debug("deposit closed",
		"depositor", depositor.String(),
		"id", id,
		"matured", settlement.Matured,
		"principal", deposit.Principal.String(),
		"interest", settlement.Interest.String(),
		"penalty", settlement.Penalty.String(),
		"elapsed", settlement.Elapsed)
	return settlement, nil
}

// QuoteClose previews the settlement the depositor would receive at the
// current height on the path their elapsed time allows. No state changes.
func (e *Engine) QuoteClose(depositor crypto.Address, id uint64) (*Settlement, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if id == 0 {
		return nil, ErrInvalidDepositID
	}
	deposit, err := e.loadDeposit(depositor, id)
	if err != nil {
		return nil, err
	}
	params, err := e.requireParams()
	if err != nil {
		return nil, err
	}
	height := e.height()
	if height < deposit.OpenedAt {
		return nil, ErrElapsedUnderflow
	}
	matured := height-deposit.OpenedAt >= deposit.MaturityPeriod
	return computeSettlement(deposit, params, height, matured)
}

func computeSettlement(deposit *Deposit, params *Params, height uint64, claimedMatured bool) (*Settlement, error) {
	if height < deposit.OpenedAt {
		return nil, fmt.Errorf("%w: height %d, opened at %d", ErrElapsedUnderflow, height, deposit.OpenedAt)
	}
	elapsed := height - deposit.OpenedAt
	reached := elapsed >= deposit.MaturityPeriod
	settlement := &Settlement{
		Deposit:  deposit.Clone(),
		Matured:  claimedMatured,
		Elapsed:  elapsed,
		Interest: big.NewInt(0),
		Penalty:  big.NewInt(0),
		ClosedAt: height,
	}
	switch {
	case reached && claimedMatured:
		interest, err := CompoundInterest(deposit.Principal, params.InterestRate, params.CompoundingFrequency, params.EpochLength, deposit.MaturityPeriod)
		if err != nil {
			return nil, fmt.Errorf("bank: compute interest: %w", err)
		}
		settlement.Interest = interest
	case !reached && !claimedMatured:
		penalty, err := Penalty(deposit.Principal, params.PenaltyRate)
		if err != nil {
			return nil, fmt.Errorf("bank: compute penalty: %w", err)
		}
		settlement.Penalty = penalty
	default:
		return nil, fmt.Errorf("%w: elapsed %d, maturity %d, claimed matured=%t",
			ErrInvalidCloseCombination, elapsed, deposit.MaturityPeriod, claimedMatured)
	}
	return settlement, nil
}
