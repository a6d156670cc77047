package bank

import (
	"math/big"

	"fdchain/crypto"
)

// Origin identifies who dispatched a call. The calling layer authenticates;
// the engine only inspects the result.
type Origin struct {
	Caller crypto.Address
	Root   bool
}

// Signed builds the origin of an authenticated account.
func Signed(caller crypto.Address) Origin { return Origin{Caller: caller} }

// RootOrigin builds the admin origin.
func RootOrigin() Origin { return Origin{Root: true} }

// DepositorState tracks per-depositor counters.
type DepositorState struct {
	// LastDepositID is the id of the most recently opened deposit; zero means
	// the depositor never opened one.
	LastDepositID uint64
	// InvestmentScore is reserved for a scoring curve and is always zero.
	InvestmentScore uint64
}

// Deposit is a single fixed deposit held in the vault.
type Deposit struct {
	Depositor      crypto.Address
	ID             uint64
	Principal      *big.Int
	OpenedAt       uint64
	MaturityPeriod uint64
}

// Clone returns a deep copy of the deposit.
func (d *Deposit) Clone() *Deposit {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Principal = cloneBigInt(d.Principal)
	return &clone
}

// MaturesAt returns the first height at which the deposit counts as matured.
func (d *Deposit) MaturesAt() uint64 {
	if d == nil {
		return 0
	}
	return d.OpenedAt + d.MaturityPeriod
}

// Settlement describes the outcome of closing (or quoting) a deposit.
type Settlement struct {
	Deposit  *Deposit
	Matured  bool
	Elapsed  uint64
	Interest *big.Int
	Penalty  *big.Int
	ClosedAt uint64
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
