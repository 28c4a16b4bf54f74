// Package autocommit decides whether the top typed suggestion replaces the
// composing text without the user picking it.
package autocommit

import (
	"fmt"
	"strings"
)

// Tier is the configured auto-commit aggressiveness.
type Tier int

const (
	Conservative Tier = iota
	Moderate
	Aggressive
)

// Thresholds are the fixed limits of a tier.
type Thresholds struct {
	MinConfidence   float64
	MaxEditDistance int
	MinWordLength   int
}

var thresholds = [...]Thresholds{
	Conservative: {MinConfidence: 0.90, MaxEditDistance: 1, MinWordLength: 4},
	Moderate:     {MinConfidence: 0.80, MaxEditDistance: 1, MinWordLength: 3},
	Aggressive:   {MinConfidence: 0.70, MaxEditDistance: 2, MinWordLength: 2},
}

// Thresholds returns the limits of t. Unknown tiers behave as Conservative.
func (t Tier) Thresholds() Thresholds {
	if t < Conservative || t > Aggressive {
		return thresholds[Conservative]
	}
	return thresholds[t]
}

func (t Tier) String() string {
	switch t {
	case Conservative:
		return "conservative"
	case Moderate:
		return "moderate"
	case Aggressive:
		return "aggressive"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier reads a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative":
		return Conservative, nil
	case "moderate", "":
		return Moderate, nil
	case "aggressive":
		return Aggressive, nil
	}
	return Moderate, fmt.Errorf("unknown auto-commit tier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
