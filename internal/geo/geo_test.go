package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/compass_nav/internal/angle"
)

func TestDistanceIdenticalPointsIsZero(t *testing.T) {
	for _, p := range []Point{{0, 0}, {48.8584, 2.2945}, {90, 0}, {-90, 180}, {10, -180}} {
		assert.Equal(t, 0.0, DistanceMeters(p, p), "point %v", p)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 52.520008, Lon: 13.404954}
	b := Point{Lat: 48.856613, Lon: 2.352222}
	assert.Equal(t, DistanceMeters(a, b), DistanceMeters(b, a))
	// Berlin - Paris is about 878 km on a sphere.
	assert.InDelta(t, 878e3, DistanceMeters(a, b), 5e3)
}

func TestDistanceSymmetricRandomPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	point := func() Point {
		return Point{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}
	}
	for i := 0; i < 10000; i++ {
		a, b := point(), point()
		if ab, ba := DistanceMeters(a, b), DistanceMeters(b, a); ab != ba {
			t.Fatalf("DistanceMeters(%v, %v) = %v, reversed %v", a, b, ab, ba)
		}
	}
}

func TestDistanceOneMillidegreeAtEquator(t *testing.T) {
	d := DistanceMeters(Point{0, 0}, Point{0, 0.001})
	want := EarthRadiusMeters * angle.Radians(0.001)
	assert.InDelta(t, want, d, 1e-6)
}

func TestDistanceAcrossAntimeridian(t *testing.T) {
	d := DistanceMeters(Point{0, 179.9995}, Point{0, -179.9995})
	assert.InDelta(t, EarthRadiusMeters*angle.Radians(0.001), d, 1e-3)
}

func TestBearingCardinal(t *testing.T) {
	o := Point{0, 0}
	assert.InDelta(t, 0, Bearing(o, Point{1, 0}), 1e-9)
	assert.InDelta(t, 90, Bearing(o, Point{0, 1}), 1e-9)
	assert.InDelta(t, 180, Bearing(o, Point{-1, 0}), 1e-9)
	assert.InDelta(t, 270, Bearing(o, Point{0, -1}), 1e-9)
}

func TestBearingIdenticalPoints(t *testing.T) {
	p := Point{Lat: 37.7749, Lon: -122.4194}
	b := Bearing(p, p)
	assert.False(t, math.IsNaN(b))
	assert.Equal(t, 0.0, b)
}

func TestBearingRoundTrip(t *testing.T) {
	a := Point{Lat: 51.5007, Lon: -0.1246}
	b := Point{Lat: 51.5010, Lon: -0.1240}
	ab := Bearing(a, b)
	ba := Bearing(b, a)
	assert.InDelta(t, 180, math.Abs(angle.Delta(ab, ba)), 0.01)
}

func TestBearingFromPoleIsFinite(t *testing.T) {
	b := Bearing(Point{90, 0}, Point{10, 20})
	assert.False(t, math.IsNaN(b))
	assert.GreaterOrEqual(t, b, 0.0)
	assert.Less(t, b, 360.0)
}

func TestValid(t *testing.T) {
	assert.True(t, Point{0, 0}.Valid())
	assert.True(t, Point{-90, 180}.Valid())
	assert.False(t, Point{91, 0}.Valid())
	assert.False(t, Point{0, 181}.Valid())
	assert.False(t, Point{math.NaN(), 0}.Valid())
	assert.False(t, Point{0, math.Inf(1)}.Valid())
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "48.858400, 2.294500", Point{Lat: 48.8584, Lon: 2.2945}.String())
	assert.Equal(t, "-33.868820, 151.209296", Point{Lat: -33.86882, Lon: 151.209296}.String())
}
