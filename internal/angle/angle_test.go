package angle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[float64]float64{
		0:      0,
		360:    0,
		370:    10,
		720:    0,
		-10:    350,
		-350:   10,
		-720:   0,
		1080.5: 0.5,
		359.5:  359.5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, Normalize(in), 1e-9, "Normalize(%v)", in)
	}
}

func TestNormalizeRangeAndIdempotent(t *testing.T) {
	inputs := []float64{-1e9, -725.25, -360, -1e-15, -0.0, 0, 1e-15, 179.9, 359.999999, 360, 1e6 + 0.1}
	for _, x := range inputs {
		n := Normalize(x)
		assert.GreaterOrEqual(t, n, 0.0, "x=%v", x)
		assert.Less(t, n, 360.0, "x=%v", x)
		assert.Equal(t, n, Normalize(n), "x=%v", x)
		assert.False(t, math.Signbit(n), "negative zero for x=%v", x)
	}
}

func TestDelta(t *testing.T) {
	assert.InDelta(t, 20, Delta(70, 90), 1e-9)
	assert.InDelta(t, -20, Delta(110, 90), 1e-9)
	assert.InDelta(t, 2, Delta(359, 1), 1e-9)
	assert.InDelta(t, -2, Delta(1, 359), 1e-9)
	assert.InDelta(t, 180, Delta(0, 180), 1e-9)
	assert.InDelta(t, 180, Delta(180, 0), 1e-9)
}

func TestDeltaAntisymmetricAndBounded(t *testing.T) {
	values := []float64{0, 1, 45.5, 90, 179, 180, 181, 270, 359.9}
	for _, a := range values {
		for _, b := range values {
			ab := Delta(a, b)
			ba := Delta(b, a)
			assert.LessOrEqual(t, math.Abs(ab), 180.0)
			assert.Greater(t, ab, -180.0)
			if math.Abs(ab) < 180-1e-9 {
				assert.InDelta(t, -ab, ba, 1e-9, "a=%v b=%v", a, b)
			}
		}
	}
}

func TestSmoothWithoutHistory(t *testing.T) {
	for _, f := range []float64{0.1, 0.3, 1} {
		assert.InDelta(t, 10, Smooth(nil, 370, f), 1e-9)
		assert.InDelta(t, 350, Smooth(nil, -10, f), 1e-9)
	}
}

func TestSmoothNoDrift(t *testing.T) {
	for _, p := range []float64{0, 12.5, 359, 400} {
		prev := p
		assert.InDelta(t, Normalize(p), Smooth(&prev, p, 0.3), 1e-9)
	}
}

func TestSmoothAcrossNorth(t *testing.T) {
	prev := 359.0
	got := Smooth(&prev, 1, 0.5)
	assert.InDelta(t, 0, math.Min(got, 360-got), 1e-9, "359 and 1 must meet at north, got %v", got)

	prev = 350
	assert.InDelta(t, 353, Smooth(&prev, 10, 0.15), 1e-9)
}

func TestSmoothedCell(t *testing.T) {
	s := NewSmoothed(0.5)
	_, ok := s.Value()
	assert.False(t, ok)

	assert.InDelta(t, 100, s.Update(100), 1e-9)
	assert.InDelta(t, 110, s.Update(120), 1e-9)

	v, ok := s.Value()
	assert.True(t, ok)
	assert.InDelta(t, 110, v, 1e-9)
	assert.Equal(t, 0.5, s.Factor())
}
