package gps

import (
	"fmt"
	"math"

	"github.com/relabs-tech/compass_nav/internal/geo"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// Thresholds below which a fix says nothing about heading. Like the
// smoothing factors they are empirical.
const (
	DefaultMinCourseSpeedMPS = 0.5
	DefaultMinDisplacementM  = 4.0
)

// HeadingSink receives headings derived from position fixes.
type HeadingSink interface {
	IngestGPSHeading(raw float64)
}

// Derivation tells how a fix contributed to the GPS heading.
type Derivation int

const (
	NoHeading Derivation = iota
	FromCourse
	FromDisplacement
)

func (d Derivation) String() string {
	switch d {
	case FromCourse:
		return "course"
	case FromDisplacement:
		return "displacement"
	default:
		return "none"
	}
}

// TrackerOptions sets the noise gates of a Tracker.
type TrackerOptions struct {
	MinCourseSpeedMPS float64
	MinDisplacementM  float64
}

// DefaultTrackerOptions returns the stock gates.
func DefaultTrackerOptions() TrackerOptions {
	return TrackerOptions{
		MinCourseSpeedMPS: DefaultMinCourseSpeedMPS,
		MinDisplacementM:  DefaultMinDisplacementM,
	}
}

// Tracker turns a stream of fixes into a position and a GPS heading.
// A reported course is trusted only while moving; otherwise the heading
// comes from the displacement between consecutive fixes, ignoring jitter.
type Tracker struct {
	sink     HeadingSink
	opts     TrackerOptions
	last     geo.Point
	haveLast bool
}

// NewTracker returns a tracker feeding derived headings into sink.
func NewTracker(sink HeadingSink, opts TrackerOptions) *Tracker {
	return &Tracker{sink: sink, opts: opts}
}

// IngestFix processes one fix. Fixes with unusable coordinates are
// rejected and leave the tracker untouched.
func (t *Tracker) IngestFix(f Fix) (Derivation, error) {
	if !f.Valid() {
		return NoHeading, upstream.New(upstream.SourcePosition, upstream.InvalidCoordinates,
			"fix %.6f,%.6f (accuracy %.1f)", f.Latitude, f.Longitude, f.AccuracyM)
	}

	p := f.Point()
	derived := NoHeading

	switch {
	case t.courseUsable(f):
		t.sink.IngestGPSHeading(*f.CourseDeg)
		derived = FromCourse
	case t.haveLast && geo.DistanceMeters(t.last, p) >= t.opts.MinDisplacementM:
		t.sink.IngestGPSHeading(geo.Bearing(t.last, p))
		derived = FromDisplacement
	}

	t.last = p
	t.haveLast = true
	return derived, nil
}

// courseUsable: the course must be a real angle, and when speed is known
// the device must be moving fast enough for the course to mean anything.
func (t *Tracker) courseUsable(f Fix) bool {
	if f.CourseDeg == nil {
		return false
	}
	c := *f.CourseDeg
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return false
	}
	if f.SpeedMPS == nil {
		return true
	}
	s := *f.SpeedMPS
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return true
	}
	return s > t.opts.MinCourseSpeedMPS
}

// Last returns the most recent accepted position.
func (t *Tracker) Last() (geo.Point, bool) {
	return t.last, t.haveLast
}

func (t *Tracker) String() string {
	if !t.haveLast {
		return "tracker(no fix)"
	}
	return fmt.Sprintf("tracker(%s)", t.last)
}
