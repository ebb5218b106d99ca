// Package heading arbitrates between the heading sources available to the
// navigator. Each automatic source is smoothed on its own and the active
// heading is chosen by a fixed priority.
package heading

import (
	"fmt"

	"github.com/relabs-tech/compass_nav/internal/angle"
)

// Default smoothing factors, tuned by hand. Higher values follow new
// readings faster.
const (
	DefaultSensorSmoothing = 0.30
	DefaultGPSSmoothing    = 0.35
)

// Source identifies where the active heading came from.
type Source int

const (
	Manual Source = iota
	SensorRelative
	GPSCourse
	SensorAbsolute
)

func (s Source) String() string {
	switch s {
	case SensorAbsolute:
		return "sensor_absolute"
	case GPSCourse:
		return "gps_course"
	case SensorRelative:
		return "sensor_relative"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Label is the human-readable name shown next to the heading.
func (s Source) Label() string {
	switch s {
	case SensorAbsolute:
		return "device sensor (absolute)"
	case GPSCourse:
		return "gps movement"
	case SensorRelative:
		return "device sensor (relative)"
	default:
		return "manual"
	}
}

// MarshalText lets Source travel as a string in JSON.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sensor_absolute":
		*s = SensorAbsolute
	case "gps_course":
		*s = GPSCourse
	case "sensor_relative":
		*s = SensorRelative
	case "manual":
		*s = Manual
	default:
		return fmt.Errorf("unknown heading source %q", string(b))
	}
	return nil
}

// Active is the heading currently in use and its origin.
type Active struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
}

// Options configures the smoothing of the automatic sources.
type Options struct {
	SensorSmoothing float64
	GPSSmoothing    float64
}

// DefaultOptions returns the stock smoothing factors.
func DefaultOptions() Options {
	return Options{
		SensorSmoothing: DefaultSensorSmoothing,
		GPSSmoothing:    DefaultGPSSmoothing,
	}
}

// Arbiter holds the latest smoothed value of every heading source.
// It is not safe for concurrent use.
type Arbiter struct {
	sensor         *angle.Smoothed
	sensorAbsolute bool
	gps            *angle.Smoothed
	manual         float64
}

// NewArbiter returns an arbiter with no readings and a manual heading of 0.
func NewArbiter(opts Options) *Arbiter {
	return &Arbiter{
		sensor: angle.NewSmoothed(opts.SensorSmoothing),
		gps:    angle.NewSmoothed(opts.GPSSmoothing),
	}
}

// IngestSensorReading blends a raw orientation-sensor heading into the
// sensor cell. The absolute flag is not smoothed; the last reading wins.
func (a *Arbiter) IngestSensorReading(raw float64, absolute bool) {
	a.sensor.Update(raw)
	a.sensorAbsolute = absolute
}

// IngestGPSHeading blends a course derived from GPS into the gps cell.
func (a *Arbiter) IngestGPSHeading(raw float64) {
	a.gps.Update(raw)
}

// SetManualHeading replaces the manual heading. Manual input is
// authoritative, so it is not smoothed.
func (a *Arbiter) SetManualHeading(value float64) {
	a.manual = angle.Normalize(value)
}

// Manual returns the manual heading.
func (a *Arbiter) Manual() float64 {
	return a.manual
}

// GPSHeading returns the smoothed GPS heading, if any was ingested.
func (a *Arbiter) GPSHeading() (float64, bool) {
	return a.gps.Value()
}

// SensorHeading returns the smoothed sensor heading and its absolute flag.
func (a *Arbiter) SensorHeading() (value float64, absolute bool, ok bool) {
	v, ok := a.sensor.Value()
	return v, a.sensorAbsolute, ok
}

// Active picks the heading to steer by. An absolute (north-referenced)
// sensor reading wins, then GPS course, then a relative sensor reading,
// and the manual heading is the fallback that always exists.
func (a *Arbiter) Active() Active {
	sensor, haveSensor := a.sensor.Value()
	if haveSensor && a.sensorAbsolute {
		return Active{Value: sensor, Source: SensorAbsolute}
	}
	if gps, ok := a.gps.Value(); ok {
		return Active{Value: gps, Source: GPSCourse}
	}
	if haveSensor {
		return Active{Value: sensor, Source: SensorRelative}
	}
	return Active{Value: a.manual, Source: Manual}
}
