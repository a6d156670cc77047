package config

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"fdchain/crypto"
	"fdchain/native/bank"
)

// Genesis describes the initial chain state.
type Genesis struct {
	Height   uint64            `yaml:"height"`
	Balances map[string]string `yaml:"balances"`
	Treasury string            `yaml:"treasury"`
	Params   *GenesisParams    `yaml:"params"`
	Paused   []string          `yaml:"paused"`
}

// GenesisParams holds the initial deposit parameters. Rates accept either raw
// parts per million or a percentage such as "0.5%".
type GenesisParams struct {
	InterestRate         string `yaml:"interestRate"`
	PenaltyRate          string `yaml:"penaltyRate"`
	CompoundingFrequency uint32 `yaml:"compoundingFrequency"`
	EpochLength          uint64 `yaml:"epochLength"`
}

// Allocation is a parsed genesis balance.
type Allocation struct {
	Address crypto.Address
	Amount  *big.Int
}

// LoadGenesis reads and validates a YAML genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis path must be provided")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis %q: %w", path, err)
	}
	defer file.Close()

	var genesis Genesis
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&genesis); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode genesis %q: %w", path, err)
	}
	if err := genesis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis %q: %w", path, err)
	}
	return &genesis, nil
}

// Validate checks every address, amount and parameter.
func (g *Genesis) Validate() error {
	if _, err := g.Allocations(); err != nil {
		return err
	}
	if _, _, err := g.TreasuryAddress(); err != nil {
		return err
	}
	if _, err := g.BankParams(); err != nil {
		return err
	}
	for i, module := range g.Paused {
		if strings.TrimSpace(module) == "" {
			return fmt.Errorf("paused[%d]: module must not be empty", i)
		}
	}
	return nil
}

// Allocations returns the genesis balances ordered by address.
func (g *Genesis) Allocations() ([]Allocation, error) {
	keys := make([]string, 0, len(g.Balances))
	for addr := range g.Balances {
		keys = append(keys, addr)
	}
	sort.Strings(keys)

	out := make([]Allocation, 0, len(keys))
	for _, key := range keys {
		addr, err := crypto.ParseAddress(key)
		if err != nil {
			return nil, fmt.Errorf("balances[%q]: %w", key, err)
		}
		raw := strings.TrimSpace(g.Balances[key])
		amount, ok := new(big.Int).SetString(raw, 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("balances[%q]: invalid amount %q", key, raw)
		}
		if amount.Cmp(bank.MaxBalance) > 0 {
			return nil, fmt.Errorf("balances[%q]: amount exceeds native balance range", key)
		}
		out = append(out, Allocation{Address: addr, Amount: amount})
	}
	return out, nil
}

// TreasuryAddress parses the optional treasury binding.
func (g *Genesis) TreasuryAddress() (crypto.Address, bool, error) {
	if strings.TrimSpace(g.Treasury) == "" {
		return crypto.Address{}, false, nil
	}
	addr, err := crypto.ParseAddress(g.Treasury)
	if err != nil {
		return crypto.Address{}, false, fmt.Errorf("treasury: %w", err)
	}
	if addr.IsZero() {
		return crypto.Address{}, false, fmt.Errorf("treasury: %w", bank.ErrInvalidTreasury)
	}
	return addr, true, nil
}

// BankParams parses the optional initial deposit parameters. Nil means unset.
func (g *Genesis) BankParams() (*bank.Params, error) {
	if g.Params == nil {
		return nil, nil
	}
	interest, err := bank.ParsePermill(g.Params.InterestRate)
	if err != nil {
		return nil, fmt.Errorf("params.interestRate: %w", err)
	}
	penalty, err := bank.ParsePermill(g.Params.PenaltyRate)
	if err != nil {
		return nil, fmt.Errorf("params.penaltyRate: %w", err)
	}
	params := &bank.Params{
		InterestRate:         interest,
		PenaltyRate:          penalty,
		CompoundingFrequency: g.Params.CompoundingFrequency,
		EpochLength:          g.Params.EpochLength,
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return params, nil
}
