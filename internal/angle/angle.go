// Package angle holds the degree arithmetic shared by the heading and
// guidance code. Every stored heading or bearing goes through Normalize,
// and every difference between two of them goes through Delta.
package angle

import "math"

// FullTurn is one revolution in degrees.
const FullTurn = 360.0

// Normalize folds any finite value into [0, 360).
func Normalize(deg float64) float64 {
	n := math.Mod(deg, FullTurn)
	if n < 0 {
		n += FullTurn
	}
	if n >= FullTurn || n == 0 {
		// folds a rounded-up 360 and a negative zero
		return 0
	}
	return n
}

// Delta returns the shortest signed rotation from -> to, in (-180, 180].
// Positive values are clockwise (to the right).
func Delta(from, to float64) float64 {
	d := Normalize(to-from+540) - 180
	if d <= -180 {
		return 180
	}
	return d
}

// Smooth is an exponential moving average taken on the circle: the
// previous value moves along the shortest arc towards next by factor.
// A nil previous means there is no history and next is taken as is.
func Smooth(previous *float64, next, factor float64) float64 {
	if previous == nil {
		return Normalize(next)
	}
	return Normalize(*previous + Delta(*previous, next)*factor)
}

// Smoothed is a cell that keeps the running result of Smooth for one
// signal. The zero value is not usable; create it with NewSmoothed.
type Smoothed struct {
	factor float64
	value  float64
	ok     bool
}

// NewSmoothed returns an empty cell that blends new samples with factor.
func NewSmoothed(factor float64) *Smoothed {
	return &Smoothed{factor: factor}
}

// Update blends next into the cell and returns the new value.
func (s *Smoothed) Update(next float64) float64 {
	var prev *float64
	if s.ok {
		prev = &s.value
	}
	s.value = Smooth(prev, next, s.factor)
	s.ok = true
	return s.value
}

// Value returns the current value and whether any sample was seen.
func (s *Smoothed) Value() (float64, bool) {
	return s.value, s.ok
}

// Factor returns the blend factor of the cell.
func (s *Smoothed) Factor() float64 {
	return s.factor
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
