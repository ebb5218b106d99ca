// Package nav wires the heading arbiter, the position tracker and the
// guidance engine into one coordinator. Every successful ingest ends with
// a fresh Snapshot handed to the update hook, so whatever displays the
// guidance never lags behind the freshest heading, position or target.
//
// A Navigator is not safe for concurrent use; callers that receive events
// from several goroutines must serialize them.
package nav

import (
	"errors"

	"github.com/relabs-tech/compass_nav/internal/geo"
	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/guidance"
	"github.com/relabs-tech/compass_nav/internal/heading"
	"github.com/relabs-tech/compass_nav/internal/orientation"
	"github.com/relabs-tech/compass_nav/internal/target"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// Options collects the tunables of every component.
type Options struct {
	Heading     heading.Options
	Tracker     gps.TrackerOptions
	DeadBandDeg float64
}

// DefaultOptions returns the stock tunables.
func DefaultOptions() Options {
	return Options{
		Heading:     heading.DefaultOptions(),
		Tracker:     gps.DefaultTrackerOptions(),
		DeadBandDeg: guidance.DefaultDeadBandDeg,
	}
}

// Snapshot is everything the presentation layer needs, as plain data.
type Snapshot struct {
	Heading      heading.Active  `json:"heading"`
	HeadingLabel string          `json:"heading_label"`
	Position     *geo.Point      `json:"position,omitempty"`
	Target       *target.Target  `json:"target,omitempty"`
	Guidance     guidance.Result `json:"guidance"`
	Status       string          `json:"status,omitempty"`
	Failure      *upstream.Error `json:"failure,omitempty"`
}

// Navigator owns one instance of each stateful component.
type Navigator struct {
	arbiter  *heading.Arbiter
	tracker  *gps.Tracker
	target   *target.Target
	rotation float64
	deadBand float64

	status  string
	failure *upstream.Error

	onUpdate func(Snapshot)
}

// New returns a navigator with no position, no target and manual heading 0.
func New(opts Options) *Navigator {
	a := heading.NewArbiter(opts.Heading)
	return &Navigator{
		arbiter:  a,
		tracker:  gps.NewTracker(a, opts.Tracker),
		deadBand: opts.DeadBandDeg,
	}
}

// OnUpdate sets the hook called with a new snapshot after every change.
func (n *Navigator) OnUpdate(fn func(Snapshot)) {
	n.onUpdate = fn
}

// IngestFix feeds a position fix. Rejected fixes leave the state as is
// and return the categorized error.
func (n *Navigator) IngestFix(f gps.Fix) (gps.Derivation, error) {
	d, err := n.tracker.IngestFix(f)
	if err != nil {
		return d, err
	}
	n.clearFailure(upstream.SourcePosition)
	n.notify()
	return d, nil
}

// IngestOrientation decodes a raw orientation event with the current
// screen rotation and feeds it to the arbiter. It reports false for
// events without a usable field, which are dropped silently.
func (n *Navigator) IngestOrientation(ev orientation.Event) (orientation.Reading, bool) {
	r, ok := orientation.Decode(ev, n.rotation)
	if !ok {
		return r, false
	}
	n.arbiter.IngestSensorReading(r.Heading, r.Absolute)
	n.clearFailure(upstream.SourceOrientation)
	n.notify()
	return r, true
}

// SetScreenRotation records the screen rotation used for later alpha
// readings. Unknown angles count as 0.
func (n *Navigator) SetScreenRotation(deg float64) {
	n.rotation = orientation.ParseScreenRotation(deg)
}

// ScreenRotation returns the rotation applied to alpha readings.
func (n *Navigator) ScreenRotation() float64 {
	return n.rotation
}

// SetManualHeading sets the fallback heading.
func (n *Navigator) SetManualHeading(deg float64) {
	n.arbiter.SetManualHeading(deg)
	n.notify()
}

// SetTarget replaces the destination wholesale.
func (n *Navigator) SetTarget(t target.Target) {
	n.target = &t
	n.status = "target locked"
	n.clearFailure(upstream.SourceResolver)
	n.notify()
}

// ApplyResolution sets the target from a resolver answer. A failed
// resolution keeps the previous target and is reported as a failure.
func (n *Navigator) ApplyResolution(r target.Resolution) error {
	t, err := r.Target()
	if err != nil {
		n.ReportFailure(err)
		return err
	}
	n.SetTarget(t)
	return nil
}

// ReportFailure records an upstream failure so it shows in snapshots.
// Errors that are not categorized are filed as transport errors of an
// unknown source. The core never retries; that is up to the producer.
func (n *Navigator) ReportFailure(err error) {
	if err == nil {
		return
	}
	var e *upstream.Error
	if !errors.As(err, &e) {
		e = &upstream.Error{Reason: upstream.TransportError, Message: err.Error()}
	}
	n.failure = e
	n.notify()
}

// clearFailure drops the recorded failure after a success from the same
// source. Failures of unknown source go away on any success.
func (n *Navigator) clearFailure(source string) {
	if n.failure != nil && (n.failure.Source == source || n.failure.Source == "") {
		n.failure = nil
	}
}

// Snapshot computes guidance from the current state.
func (n *Navigator) Snapshot() Snapshot {
	active := n.arbiter.Active()
	s := Snapshot{
		Heading:      active,
		HeadingLabel: active.Source.Label(),
		Status:       n.status,
		Failure:      n.failure,
	}

	var current, dest *geo.Point
	if p, ok := n.tracker.Last(); ok {
		current = &p
		s.Position = &p
	}
	if n.target != nil {
		t := *n.target
		dest = &t.Point
		s.Target = &t
	}

	s.Guidance = guidance.Compute(current, dest, active.Value, n.deadBand)
	return s
}

func (n *Navigator) notify() {
	if n.onUpdate != nil {
		n.onUpdate(n.Snapshot())
	}
}
