package gps

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/compass_nav/internal/geo"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

type recordingSink struct {
	headings []float64
}

func (r *recordingSink) IngestGPSHeading(raw float64) {
	r.headings = append(r.headings, raw)
}

// metersNorth returns a latitude delta of roughly m meters.
func metersNorth(m float64) float64 {
	return m / geo.EarthRadiusMeters * 180 / math.Pi
}

func TestDisplacementGate(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	d, err := tr.IngestFix(Fix{Latitude: 45, Longitude: 7})
	require.NoError(t, err)
	assert.Equal(t, NoHeading, d)

	d, err = tr.IngestFix(Fix{Latitude: 45 + metersNorth(2), Longitude: 7})
	require.NoError(t, err)
	assert.Equal(t, NoHeading, d)
	assert.Empty(t, sink.headings, "2 m of jitter must not move the heading")

	d, err = tr.IngestFix(Fix{Latitude: 45 + metersNorth(12), Longitude: 7})
	require.NoError(t, err)
	assert.Equal(t, FromDisplacement, d)
	require.Len(t, sink.headings, 1)
	assert.InDelta(t, 0, sink.headings[0], 1e-6)
}

func TestDisplacementMeasuredFromLastFix(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	// three 3 m steps east: each is below the gate even though the total is not
	lat := 0.0
	for i := 0; i < 4; i++ {
		_, err := tr.IngestFix(Fix{Latitude: lat, Longitude: float64(i) * metersNorth(3)})
		require.NoError(t, err)
	}
	assert.Empty(t, sink.headings)

	_, err := tr.IngestFix(Fix{Latitude: lat, Longitude: 3*metersNorth(3) + metersNorth(10)})
	require.NoError(t, err)
	require.Len(t, sink.headings, 1)
	assert.InDelta(t, 90, sink.headings[0], 1e-6)
}

func TestSpeedGate(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	d, err := tr.IngestFix(Fix{Latitude: 10, Longitude: 10, CourseDeg: Float(135), SpeedMPS: Float(0.1)})
	require.NoError(t, err)
	assert.Equal(t, NoHeading, d)
	assert.Empty(t, sink.headings)

	d, err = tr.IngestFix(Fix{Latitude: 10, Longitude: 10, CourseDeg: Float(135), SpeedMPS: Float(2)})
	require.NoError(t, err)
	assert.Equal(t, FromCourse, d)
	assert.Equal(t, []float64{135}, sink.headings)
}

func TestCourseWithoutSpeedIsTrusted(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	_, err := tr.IngestFix(Fix{Latitude: 1, Longitude: 1, CourseDeg: Float(45)})
	require.NoError(t, err)
	_, err = tr.IngestFix(Fix{Latitude: 1, Longitude: 1, CourseDeg: Float(50), SpeedMPS: Float(math.NaN())})
	require.NoError(t, err)
	assert.Equal(t, []float64{45, 50}, sink.headings)
}

func TestBadCourseFallsBackToDisplacement(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	_, err := tr.IngestFix(Fix{Latitude: 0, Longitude: 0, CourseDeg: Float(-1)})
	require.NoError(t, err)
	assert.Empty(t, sink.headings)

	d, err := tr.IngestFix(Fix{Latitude: -metersNorth(10), Longitude: 0, CourseDeg: Float(math.Inf(1)), SpeedMPS: Float(3)})
	require.NoError(t, err)
	assert.Equal(t, FromDisplacement, d)
	require.Len(t, sink.headings, 1)
	assert.InDelta(t, 180, sink.headings[0], 1e-6)
}

func TestSlowCourseFallsBackToDisplacement(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	_, err := tr.IngestFix(Fix{Latitude: 0, Longitude: 0})
	require.NoError(t, err)
	d, err := tr.IngestFix(Fix{Latitude: metersNorth(10), Longitude: 0, CourseDeg: Float(270), SpeedMPS: Float(0.2)})
	require.NoError(t, err)
	assert.Equal(t, FromDisplacement, d)
	require.Len(t, sink.headings, 1)
	assert.InDelta(t, 0, sink.headings[0], 1e-6)
}

func TestInvalidFixRejected(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(sink, DefaultTrackerOptions())

	_, err := tr.IngestFix(Fix{Latitude: 95, Longitude: 0, CourseDeg: Float(10)})
	assert.ErrorIs(t, err, upstream.ErrInvalidCoordinates)
	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Empty(t, sink.headings)

	_, err = tr.IngestFix(Fix{Latitude: 1, Longitude: 1, AccuracyM: -3})
	assert.Error(t, err)
}

func TestLastIsUpdatedUnconditionally(t *testing.T) {
	tr := NewTracker(&recordingSink{}, DefaultTrackerOptions())
	_, err := tr.IngestFix(Fix{Latitude: 3, Longitude: 4, CourseDeg: Float(10), SpeedMPS: Float(5)})
	require.NoError(t, err)
	p, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, geo.Point{Lat: 3, Lon: 4}, p)
}
