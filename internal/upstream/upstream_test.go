package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesReason(t *testing.T) {
	err := New(SourcePosition, Timeout, "no fix for %ds", 15)
	wrapped := fmt.Errorf("gps: %w", err)

	assert.ErrorIs(t, wrapped, ErrTimeout)
	assert.NotErrorIs(t, wrapped, ErrPermissionDenied)
	assert.Equal(t, Timeout, ReasonOf(wrapped))
	assert.Equal(t, Reason(""), ReasonOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "no-match", ErrNoMatch.Error())
	assert.Equal(t, "resolver: no-match", (&Error{Source: SourceResolver, Reason: NoMatch}).Error())
	assert.Equal(t, "position: timeout: no fix", New(SourcePosition, Timeout, "no fix").Error())
}

func TestErrorJSON(t *testing.T) {
	b, err := json.Marshal(New(SourceOrientation, OrientationUnavailable, "no sensor"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"orientation","reason":"orientation-unavailable","message":"no sensor"}`, string(b))

	var back Error
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Reason.Known())
	assert.False(t, Reason("weird").Known())
}
