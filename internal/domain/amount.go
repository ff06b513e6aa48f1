package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// MinorUnits converts an exactly decoded amount into int64 minor units.
// Fractions, non-positive values and values beyond int64 are rejected rather
// than rounded.
func MinorUnits(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("MinorUnits: %s is not a whole number of minor units: %w", d, ErrInvalidAmount)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("MinorUnits: %s: %w", d, ErrInvalidAmount)
	}
	if d.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("MinorUnits: %s overflows: %w", d, ErrInvalidAmount)
	}
	return d.IntPart(), nil
}
