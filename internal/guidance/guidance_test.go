package guidance

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/compass_nav/internal/geo"
)

func TestComputeWithoutPositionOrTarget(t *testing.T) {
	p := &geo.Point{Lat: 1, Lon: 1}
	assert.Equal(t, Result{}, Compute(nil, p, 0, DefaultDeadBandDeg))
	assert.Equal(t, Result{}, Compute(p, nil, 0, DefaultDeadBandDeg))
	assert.Equal(t, Result{}, Compute(nil, nil, 0, DefaultDeadBandDeg))
}

func TestComputeDeadBand(t *testing.T) {
	current := &geo.Point{Lat: 0, Lon: 0}
	target := &geo.Point{Lat: 0, Lon: 0.001}

	r := Compute(current, target, 90, DefaultDeadBandDeg)
	require.True(t, r.HasGuidance)
	assert.InDelta(t, 90, r.BearingDeg, 1e-9)
	assert.InDelta(t, 111.19, r.DistanceM, 0.01)
	assert.Equal(t, Ahead, r.Instruction.Turn)
	assert.Equal(t, "ahead", r.Instruction.String())

	r = Compute(current, target, 70, DefaultDeadBandDeg)
	assert.InDelta(t, 20, r.RelativeBearing, 1e-9)
	assert.Equal(t, "turn right 20°", r.Instruction.String())

	r = Compute(current, target, 110, DefaultDeadBandDeg)
	assert.InDelta(t, -20, r.RelativeBearing, 1e-9)
	assert.Equal(t, "turn left 20°", r.Instruction.String())
}

func TestInstructBoundaries(t *testing.T) {
	assert.Equal(t, Instruction{Turn: Ahead}, Instruct(6, 6))
	assert.Equal(t, Instruction{Turn: Ahead}, Instruct(-6, 6))
	assert.Equal(t, Right, Instruct(6.01, 6).Turn)
	assert.Equal(t, Left, Instruct(-6.01, 6).Turn)
	assert.Equal(t, Instruction{Turn: Right, Degrees: 180}, Instruct(180, 6))
}

func TestComputeAcrossNorth(t *testing.T) {
	current := &geo.Point{Lat: 0, Lon: 0}
	target := &geo.Point{Lat: 0.001, Lon: -0.0001} // slightly west of north
	r := Compute(current, target, 10, DefaultDeadBandDeg)
	require.True(t, r.HasGuidance)
	assert.Equal(t, Left, r.Instruction.Turn)
	assert.Less(t, math.Abs(r.RelativeBearing), 20.0)
}

func TestComputeAtTarget(t *testing.T) {
	p := &geo.Point{Lat: 12, Lon: 34}
	r := Compute(p, p, 200, DefaultDeadBandDeg)
	require.True(t, r.HasGuidance)
	assert.Equal(t, 0.0, r.DistanceM)
	assert.False(t, math.IsNaN(r.RelativeBearing))
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{HasGuidance: true, DistanceM: 12, RelativeBearing: -30, Instruction: Instruction{Turn: Left, Degrees: 30}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"has_guidance":true,"distance_m":12,"bearing_deg":0,"relative_bearing_deg":-30,"instruction":{"turn":"left","degrees":30}}`, string(b))

	var back Result
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Left, back.Instruction.Turn)
}

func TestResultJSONKeepsZeroValues(t *testing.T) {
	p := &geo.Point{Lat: 1, Lon: 0}
	b, err := json.Marshal(Compute(p, p, 0, DefaultDeadBandDeg))
	require.NoError(t, err)
	assert.JSONEq(t, `{"has_guidance":true,"distance_m":0,"bearing_deg":0,"relative_bearing_deg":0,"instruction":{"turn":"ahead","degrees":0}}`, string(b))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "412 m", FormatDistance(411.6))
	assert.Equal(t, "0 m", FormatDistance(0))
	assert.Equal(t, "1.25 km", FormatDistance(1250))
	assert.Equal(t, "--", FormatDistance(math.NaN()))
	assert.Equal(t, "--", FormatDistance(math.Inf(1)))
}
