package bank

import (
	"fmt"
	"strconv"
	"strings"
)

// BlocksPerYear is the nominal number of blocks in one year at the default
// block time, used as the conventional epoch length.
const BlocksPerYear uint64 = 5_184_000

// Params groups the admin-controlled deposit parameters. Once stored, every
// field is strictly positive.
type Params struct {
	// InterestRate is the nominal rate earned per epoch.
	InterestRate Permill `json:"interestRate"`
	// PenaltyRate is charged on principal for premature closes.
	PenaltyRate Permill `json:"penaltyRate"`
	// CompoundingFrequency counts compounding events per epoch.
	CompoundingFrequency uint32 `json:"compoundingFrequency"`
	// EpochLength is the rate period in blocks.
	EpochLength uint64 `json:"epochLength"`
}

// Validate rejects zero-valued fields and rates above 100%.
func (p Params) Validate() error {
	switch {
	case p.InterestRate == 0:
		return fmt.Errorf("%w: interest rate", ErrZeroParam)
	case p.PenaltyRate == 0:
		return fmt.Errorf("%w: penalty rate", ErrZeroParam)
	case p.CompoundingFrequency == 0:
		return fmt.Errorf("%w: compounding frequency", ErrZeroParam)
	case p.EpochLength == 0:
		return fmt.Errorf("%w: epoch length", ErrZeroParam)
	}
	if !p.InterestRate.Valid() {
		return fmt.Errorf("%w: interest rate %d", ErrRateOutOfRange, p.InterestRate)
	}
	if !p.PenaltyRate.Valid() {
		return fmt.Errorf("%w: penalty rate %d", ErrRateOutOfRange, p.PenaltyRate)
	}
	return nil
}

// ParseMaturityClaim decodes the textual maturity flag supplied by callers.
func ParseMaturityClaim(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "matured":
		return true, nil
	case "false", "0", "no", "premature":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidMaturityFlag, value)
	}
}

// ParsePermill accepts either raw parts-per-million ("5000") or a percentage
// with up to four decimals ("0.5%").
func ParsePermill(value string) (Permill, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("bank: empty rate")
	}
	if !strings.HasSuffix(trimmed, "%") {
		n, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("bank: invalid rate %q: %w", value, err)
		}
		p := Permill(n)
		if !p.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrRateOutOfRange, n)
		}
		return p, nil
	}
	number := strings.TrimSuffix(trimmed, "%")
	whole, frac, _ := strings.Cut(number, ".")
	if len(frac) > 4 {
		return 0, fmt.Errorf("bank: rate %q has more than four decimals", value)
	}
	frac += strings.Repeat("0", 4-len(frac))
	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bank: invalid rate %q: %w", value, err)
	}
	f, err := strconv.ParseUint(frac, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bank: invalid rate %q: %w", value, err)
	}
	if w > 100 {
		return 0, fmt.Errorf("%w: %s", ErrRateOutOfRange, value)
	}
	p := Permill(w*10_000 + f)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrRateOutOfRange, value)
	}
	return p, nil
}
