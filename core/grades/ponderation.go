package grades

import (
	"errors"
	"fmt"
	"math"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

// FinalWeight is the fixed percentage of the final exam (or qualifying
// remedial) in the final grade. Only the other five weights are adjustable.
const FinalWeight = 40.0

var (
	ErrUnknownWeight = errors.New("unknown ponderation field")
	ErrWeightSum     = fmt.Errorf("adjustable weights plus the fixed %v%% final exam must not exceed 100", FinalWeight)
)

// Ponderation is the set of adjustable percentage weights applied to the raw
// partial and lab scores.
type Ponderation struct {
	P1  float64 `json:"p1"`
	P2  float64 `json:"p2"`
	PL1 float64 `json:"pl1"`
	PL2 float64 `json:"pl2"`
	PL3 float64 `json:"pl3"`
}

func DefaultPonderation() Ponderation {
	return Ponderation{P1: 30, P2: 30}
}

// AdjustableSum sums the five adjustable weights.
func (p Ponderation) AdjustableSum() float64 {
	return p.P1 + p.P2 + p.PL1 + p.PL2 + p.PL3
}

// Validate enforces the apply-time invariant: adjustable sum + the fixed
// final weight must not exceed 100. Transient violations are fine mid-edit;
// they just cannot be applied.
func (p Ponderation) Validate() error {
	if p.AdjustableSum()+FinalWeight > 100 {
		return core.NewValidationError(ErrWeightSum, core.FieldError{Field: "ponderacion", Error: ErrWeightSum.Error()})
	}
	return nil
}

// SetWeight returns a copy with one adjustable weight replaced, clamped to
// [0,100]. Non-numeric input (NaN) is coerced to 0.
func (p Ponderation) SetWeight(field string, value float64) (Ponderation, error) {
	value = ClampWeight(value)
	switch field {
	case "p1":
		p.P1 = value
	case "p2":
		p.P2 = value
	case "pl1":
		p.PL1 = value
	case "pl2":
		p.PL2 = value
	case "pl3":
		p.PL3 = value
	default:
		return p, core.NewValidationError(ErrUnknownWeight, core.FieldError{Field: field, Error: ErrUnknownWeight.Error()})
	}
	return p, nil
}

// ClampWeight clamps a weight percentage to [0,100]; NaN becomes 0.
func ClampWeight(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
