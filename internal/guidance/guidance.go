// Package guidance turns a position, a target and a heading into a
// distance, a signed relative bearing and a turn instruction.
package guidance

import (
	"fmt"
	"math"

	"github.com/relabs-tech/compass_nav/internal/angle"
	"github.com/relabs-tech/compass_nav/internal/geo"
)

// DefaultDeadBandDeg is the half-width of the "ahead" cone. It keeps
// sensor jitter from flipping the instruction between left and right.
const DefaultDeadBandDeg = 6.0

// Turn is the discrete direction of an instruction.
type Turn int

const (
	Ahead Turn = iota
	Left
	Right
)

func (t Turn) String() string {
	switch t {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "ahead"
	}
}

// MarshalText encodes the turn as its name.
func (t Turn) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a turn name.
func (t *Turn) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ahead":
		*t = Ahead
	case "left":
		*t = Left
	case "right":
		*t = Right
	default:
		return fmt.Errorf("unknown turn %q", string(b))
	}
	return nil
}

// Instruction is what the user should do next. Degrees is the unsigned
// amount to turn and is zero for Ahead.
type Instruction struct {
	Turn    Turn    `json:"turn"`
	Degrees float64 `json:"degrees"`
}

func (i Instruction) String() string {
	if i.Turn == Ahead {
		return "ahead"
	}
	return fmt.Sprintf("turn %s %.0f°", i.Turn, math.Round(i.Degrees))
}

// Result is the outcome of Compute. When HasGuidance is false the other
// fields are zero and the caller shows a neutral "not ready" state.
type Result struct {
	HasGuidance     bool        `json:"has_guidance"`
	DistanceM       float64     `json:"distance_m"`
	BearingDeg      float64     `json:"bearing_deg"`
	RelativeBearing float64     `json:"relative_bearing_deg"`
	Instruction     Instruction `json:"instruction"`
}

// Compute derives guidance toward target. current and target may be nil
// when no fix or no target is known yet.
func Compute(current, target *geo.Point, heading, deadBand float64) Result {
	if current == nil || target == nil {
		return Result{}
	}

	bearing := geo.Bearing(*current, *target)
	relative := angle.Delta(heading, bearing)

	return Result{
		HasGuidance:     true,
		DistanceM:       geo.DistanceMeters(*current, *target),
		BearingDeg:      bearing,
		RelativeBearing: relative,
		Instruction:     Instruct(relative, deadBand),
	}
}

// Instruct maps a relative bearing (positive = right) to an instruction.
func Instruct(relative, deadBand float64) Instruction {
	switch {
	case math.Abs(relative) <= deadBand:
		return Instruction{Turn: Ahead}
	case relative < 0:
		return Instruction{Turn: Left, Degrees: -relative}
	default:
		return Instruction{Turn: Right, Degrees: relative}
	}
}

// FormatDistance renders meters for display: whole meters below one
// kilometer, kilometers with two decimals above, "--" when unknown.
func FormatDistance(meters float64) string {
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return "--"
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", math.Round(meters))
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}
