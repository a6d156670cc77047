package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sync"

	"fdchain/config"
	"fdchain/core/events"
	"fdchain/core/state"
	"fdchain/crypto"
	"fdchain/native/bank"
	nativecommon "fdchain/native/common"
	"fdchain/native/params"
	"fdchain/state/currency"
	"fdchain/storage"
)

const genesisMarkerKey = "chain/genesis"

var (
	// ErrGenesisApplied is returned when genesis is applied to a database
	// that already holds chain state.
	ErrGenesisApplied = errors.New("core: genesis already applied")
	// ErrZeroBlocks is returned when advancing the clock by zero blocks.
	ErrZeroBlocks = errors.New("core: block count must be positive")
	// ErrHeightOverflow is returned when the block clock would wrap.
	ErrHeightOverflow = errors.New("core: block height overflow")
)

// Runtime hosts the bank module on top of a key-value database. Every call
// runs against a staging overlay and only reaches the database, and the
// subscribers, when it succeeds.
type Runtime struct {
	db         storage.Database
	bankConfig bank.Config
	emitter    events.Emitter
	logger     *slog.Logger

	mu sync.RWMutex
}

// NewRuntime constructs a runtime over db using the supplied deposit limits.
func NewRuntime(db storage.Database, cfg bank.Config) *Runtime {
	cfg = cfg.Clone()
	cfg.EnsureDefaults()
	return &Runtime{
		db:         db,
		bankConfig: cfg,
		emitter:    events.NoopEmitter{},
		logger:     slog.Default(),
	}
}

// SetEmitter configures where committed events are delivered.
func (r *Runtime) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	r.emitter = emitter
}

// SetLogger configures the runtime and engine logger.
func (r *Runtime) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.logger = logger
}

// BankConfig returns the deposit limits enforced by the runtime.
func (r *Runtime) BankConfig() bank.Config { return r.bankConfig.Clone() }

// Call bundles the collaborators of a single execution. It is only valid
// inside the function passed to Execute or View.
type Call struct {
	Height uint64
	State  *state.Manager
	Ledger *currency.Ledger
	Bank   *bank.Engine
	Params *params.Store

	emitter events.Emitter
}

// Emit queues an event that is delivered only if the call commits.
func (c *Call) Emit(evt events.Event) {
	c.emitter.Emit(evt)
}

func (r *Runtime) newCall(db storage.Database, emitter events.Emitter) (*Call, error) {
	manager := state.NewManager(db)
	height, err := manager.Height()
	if err != nil {
		return nil, fmt.Errorf("core: load height: %w", err)
	}
	store := params.NewStore(manager)
	pauses, err := store.Pauses()
	if err != nil {
		return nil, fmt.Errorf("core: load pauses: %w", err)
	}
	call := &Call{
		Height:  height,
		State:   manager,
		Ledger:  currency.NewLedger(manager),
		Bank:    bank.NewEngine(r.bankConfig),
		Params:  store,
		emitter: emitter,
	}
	call.Bank.SetState(manager)
	call.Bank.SetCurrency(call.Ledger)
	call.Bank.SetEmitter(emitter)
	call.Bank.SetHeightFunc(func() uint64 { return call.Height })
	call.Bank.SetPauses(pauses)
	call.Bank.SetLogger(r.logger)
	return call, nil
}

// Execute runs fn atomically. State writes and events produced by fn are
// applied together on success and dropped together on error.
func (r *Runtime) Execute(fn func(*Call) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	overlay := storage.NewOverlay(r.db)
	buffer := &events.Buffer{}
	call, err := r.newCall(overlay, buffer)
	if err != nil {
		return err
	}
	if err := fn(call); err != nil {
		overlay.Discard()
		buffer.Reset()
		return err
	}
	if err := overlay.Commit(); err != nil {
		buffer.Reset()
		return fmt.Errorf("core: commit: %w", err)
	}
	buffer.Flush(r.emitter)
	return nil
}

// View runs fn against a read-only snapshot. Writes made by fn are discarded
// and its events are never delivered.
func (r *Runtime) View(fn func(*Call) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overlay := storage.NewOverlay(r.db)
	defer overlay.Discard()
	call, err := r.newCall(overlay, events.NoopEmitter{})
	if err != nil {
		return err
	}
	return fn(call)
}

// Height returns the current block height.
func (r *Runtime) Height() (uint64, error) {
	var height uint64
	err := r.View(func(call *Call) error {
		height = call.Height
		return nil
	})
	return height, err
}

// AdvanceBlocks moves the block clock forward by n and returns the new height.
func (r *Runtime) AdvanceBlocks(n uint64) (uint64, error) {
	if n == 0 {
		return 0, ErrZeroBlocks
	}
	var next uint64
	err := r.Execute(func(call *Call) error {
		if call.Height > math.MaxUint64-n {
			return ErrHeightOverflow
		}
		next = call.Height + n
		if err := call.State.SetHeight(next); err != nil {
			return err
		}
		call.Emit(events.BlockAdvanced{Height: next})
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug("block clock advanced", slog.Uint64("height", next), slog.Uint64("blocks", n))
	return next, nil
}

// Mint credits amount to addr outside any transfer.
func (r *Runtime) Mint(addr crypto.Address, amount *big.Int) error {
	return r.Execute(func(call *Call) error {
		if err := call.Ledger.Mint(addr, amount); err != nil {
			return err
		}
		call.Emit(events.Mint{To: addr, Amount: new(big.Int).Set(amount), Height: call.Height})
		return nil
	})
}

// SetPaused toggles the pause flag of module and returns the resulting set.
func (r *Runtime) SetPaused(module string, paused bool) (nativecommon.PauseSet, error) {
	var out nativecommon.PauseSet
	err := r.Execute(func(call *Call) error {
		updated, err := call.Params.SetPaused(module, paused)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("module pause updated", slog.String("module", module), slog.Bool("paused", paused))
	return out, nil
}

// Pauses returns the persisted pause flags.
func (r *Runtime) Pauses() (nativecommon.PauseSet, error) {
	var out nativecommon.PauseSet
	err := r.View(func(call *Call) error {
		pauses, err := call.Params.Pauses()
		out = pauses
		return err
	})
	return out, err
}

// ApplyGenesis seeds an empty database. Applying genesis twice fails with
// ErrGenesisApplied and leaves state untouched.
func (r *Runtime) ApplyGenesis(genesis *config.Genesis) error {
	if genesis == nil {
		return fmt.Errorf("core: nil genesis")
	}
	if err := genesis.Validate(); err != nil {
		return fmt.Errorf("core: invalid genesis: %w", err)
	}
	allocations, err := genesis.Allocations()
	if err != nil {
		return err
	}
	treasury, hasTreasury, err := genesis.TreasuryAddress()
	if err != nil {
		return err
	}
	bankParams, err := genesis.BankParams()
	if err != nil {
		return err
	}

	err = r.Execute(func(call *Call) error {
		if _, ok, err := call.State.ParamStoreGet(genesisMarkerKey); err != nil {
			return err
		} else if ok {
			return ErrGenesisApplied
		}
		if err := call.State.SetHeight(genesis.Height); err != nil {
			return err
		}
		call.Height = genesis.Height
		for _, alloc := range allocations {
			if alloc.Amount.Sign() == 0 {
				continue
			}
			if err := call.Ledger.Mint(alloc.Address, alloc.Amount); err != nil {
				return fmt.Errorf("core: genesis balance %s: %w", alloc.Address, err)
			}
			call.Emit(events.Mint{To: alloc.Address, Amount: alloc.Amount, Height: genesis.Height})
		}
		if hasTreasury {
			if err := call.Bank.SetTreasury(bank.RootOrigin(), treasury); err != nil {
				return err
			}
		}
		if bankParams != nil {
			if err := call.Bank.SetParams(bank.RootOrigin(), *bankParams); err != nil {
				return err
			}
		}
		if len(genesis.Paused) > 0 {
			pauses := nativecommon.PauseSet{}
			for _, module := range genesis.Paused {
				pauses.Set(module, true)
			}
			if err := call.Params.SetPauses(pauses); err != nil {
				return err
			}
		}
		return call.State.ParamStoreSet(genesisMarkerKey, []byte{1})
	})
	if err != nil {
		return err
	}
	r.logger.Info("genesis applied",
		slog.Uint64("height", genesis.Height),
		slog.Int("allocations", len(allocations)),
		slog.Bool("treasury", hasTreasury),
		slog.Bool("params", bankParams != nil))
	return nil
}

// GenesisApplied reports whether ApplyGenesis already ran on this database.
func (r *Runtime) GenesisApplied() (bool, error) {
	var applied bool
	err := r.View(func(call *Call) error {
		_, ok, err := call.State.ParamStoreGet(genesisMarkerKey)
		applied = ok
		return err
	})
	return applied, err
}
