package events

import (
	"math/big"
	"strconv"

	"fdchain/core/types"
	"fdchain/crypto"
)

const (
	// TypeBlockAdvanced is emitted each time the block clock moves forward.
	TypeBlockAdvanced = "chain.block.advanced"
	// TypeMint is emitted when native balance is credited outside a transfer,
	// for example from genesis allocations.
	TypeMint = "chain.mint"
)

// BlockAdvanced records the new chain height.
type BlockAdvanced struct {
	Height uint64
}

func (BlockAdvanced) EventType() string { return TypeBlockAdvanced }

func (e BlockAdvanced) Event() *types.Event {
	return &types.Event{Type: TypeBlockAdvanced, Height: e.Height, Attributes: map[string]string{
		"height": strconv.FormatUint(e.Height, 10),
	}}
}

// Mint captures a native balance credit.
type Mint struct {
	To     crypto.Address
	Amount *big.Int
	Height uint64
}

func (Mint) EventType() string { return TypeMint }

func (e Mint) Event() *types.Event {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	return &types.Event{Type: TypeMint, Height: e.Height, Attributes: map[string]string{
		"to":     e.To.String(),
		"amount": amount,
	}}
}
