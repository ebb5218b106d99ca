package gps

import (
	"math"

	"github.com/relabs-tech/compass_nav/internal/geo"
)

// Fix represents a single position fix suitable for JSON and MQTT.
// Course and speed are optional: plain lat/lon sources leave them out.
type Fix struct {
	Time      string   `json:"time,omitempty"`       // e.g. "12:34:56"
	Date      string   `json:"date,omitempty"`       // e.g. "06/12/25"
	Latitude  float64  `json:"lat"`                  // decimal degrees
	Longitude float64  `json:"lon"`                  // decimal degrees
	AccuracyM float64  `json:"accuracy_m,omitempty"` // horizontal accuracy radius
	CourseDeg *float64 `json:"course_deg,omitempty"` // course over ground
	SpeedMPS  *float64 `json:"speed_mps,omitempty"`  // speed over ground
	Validity  string   `json:"validity,omitempty"`   // "A" (valid) / "V" (void)
}

// Point returns the fix position.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// Valid reports whether the coordinates and accuracy are usable.
func (f Fix) Valid() bool {
	if !f.Point().Valid() {
		return false
	}
	return !math.IsNaN(f.AccuracyM) && f.AccuracyM >= 0
}

// Float returns a pointer to v, for filling the optional Fix fields.
func Float(v float64) *float64 {
	return &v
}
