// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
	n     int
}

// NewMockSource creates a mock orientation source that generates a slowly
// turning heading. Every fourth event uses the vendor compass shape, the
// rest use alpha with the absolute flag set.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Event, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	m.n++

	heading := math.Mod(elapsed*10, 360) + 3*math.Sin(elapsed*5) // jitter
	if m.n%4 == 0 {
		return Event{CompassHeading: &heading, Absolute: true}, nil
	}

	alpha := 360 - heading
	beta := 15 * math.Cos(elapsed*0.7)
	gamma := 20 * math.Sin(elapsed)
	return Event{Alpha: &alpha, Beta: &beta, Gamma: &gamma, Absolute: true}, nil
}
