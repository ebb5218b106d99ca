// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/geo"
	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/nav"
	"github.com/relabs-tech/compass_nav/internal/orientation"
	"github.com/relabs-tech/compass_nav/internal/target"
)

const metersPerDegreeLat = 111320.0

// simulation walks a synthetic position toward a fixed target while
// feeding orientation events, all through a real Navigator.
type simulation struct {
	nav      *nav.Navigator
	src      orientation.Source
	pos      geo.Point
	course   float64 // degrees, direction of the synthetic walk
	stepM    float64 // meters moved per fix
	fixEvery int     // orientation events per fix
	n        int
}

func newSimulation(opts nav.Options, src orientation.Source, start geo.Point, dest target.Target) *simulation {
	s := &simulation{
		nav:      nav.New(opts),
		src:      src,
		pos:      start,
		course:   geo.Bearing(start, dest.Point),
		stepM:    5,
		fixEvery: 10,
	}
	s.nav.SetTarget(dest)
	return s
}

// step feeds one orientation event, and a fix every fixEvery steps, then
// returns the console line for the new state.
func (s *simulation) step() (string, error) {
	ev, err := s.src.Next()
	if err != nil {
		return "", err
	}
	s.nav.IngestOrientation(ev)

	if s.n%s.fixEvery == 0 {
		if s.n > 0 {
			s.advance()
		}
		if _, err := s.nav.IngestFix(gps.Fix{Latitude: s.pos.Lat, Longitude: s.pos.Lon, AccuracyM: 5}); err != nil {
			return "", err
		}
	}
	s.n++
	return formatSnapshot(s.nav.Snapshot()), nil
}

func (s *simulation) advance() {
	rad := s.course * math.Pi / 180
	s.pos.Lat += s.stepM * math.Cos(rad) / metersPerDegreeLat
	s.pos.Lon += s.stepM * math.Sin(rad) / (metersPerDegreeLat * math.Cos(s.pos.Lat*math.Pi/180))
}

// RunMockConsole runs the navigator offline with mock orientation and a
// synthetic walk from central Paris toward the Eiffel Tower.
func RunMockConsole(cfg *config.Config) error {
	dest, err := target.New(48.8584, 2.2945, "Eiffel Tower")
	if err != nil {
		return err
	}
	sim := newSimulation(cfg.NavOptions(), orientation.NewMockSource(), geo.Point{Lat: 48.8566, Lon: 2.3522}, dest)

	ticker := time.NewTicker(time.Duration(cfg.OrientationSampleInterval) * time.Millisecond)
	defer ticker.Stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			log.Info("console: shutting down")
			return nil
		case <-ticker.C:
		}

		line, err := sim.step()
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		fmt.Println(line)
	}
}
