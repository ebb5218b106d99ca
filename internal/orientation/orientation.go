package orientation

import (
	"math"

	"github.com/relabs-tech/compass_nav/internal/angle"
)

// Event is a raw orientation event as delivered by the device. Only one
// of the two shapes is normally filled: a vendor compass heading that is
// already clockwise from true north, or the alpha/beta/gamma rotation
// triple plus the flag saying whether alpha is referenced to north.
type Event struct {
	CompassHeading *float64 `json:"compass_heading,omitempty"`
	Alpha          *float64 `json:"alpha,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	Gamma          *float64 `json:"gamma,omitempty"`
	Absolute       bool     `json:"absolute"`
}

// Reading is a decoded heading and whether it is north-referenced.
type Reading struct {
	Heading  float64 `json:"heading"`
	Absolute bool    `json:"absolute"`
}

// Source is anything that can provide orientation events over time:
// the mock source, a replay, or a bridge from a phone.
type Source interface {
	Next() (Event, error)
}

// Decode turns a raw event into a compass reading. ok is false when the
// event carries no usable field; such events are ignored, not errors.
// screenRotation is the current screen rotation in degrees (see
// ParseScreenRotation) and only applies to alpha-based events.
func Decode(ev Event, screenRotation float64) (Reading, bool) {
	if v, ok := finite(ev.CompassHeading); ok {
		return Reading{Heading: angle.Normalize(v), Absolute: true}, true
	}
	if alpha, ok := finite(ev.Alpha); ok {
		// alpha grows counter-clockwise; compass headings grow clockwise
		return Reading{
			Heading:  angle.Normalize(360 - alpha + screenRotation),
			Absolute: ev.Absolute,
		}, true
	}
	return Reading{}, false
}

func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// ParseScreenRotation maps a reported screen rotation to one of
// 0, 90, 180 or 270. Anything else counts as unknown and yields 0.
func ParseScreenRotation(deg float64) float64 {
	switch angle.Normalize(deg) {
	case 90:
		return 90
	case 180:
		return 180
	case 270:
		return 270
	default:
		return 0
	}
}
