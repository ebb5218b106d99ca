package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/guidance"
	"github.com/relabs-tech/compass_nav/internal/nav"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// RunConsoleMQTT prints guidance, fixes and receiver status as they
// arrive on the broker.
func RunConsoleMQTT(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	err = subscribe(client, cfg.TopicGuidance, func(payload []byte) {
		var s nav.Snapshot
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Warnf("console: guidance unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSnapshot(s))
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicGPS, func(payload []byte) {
		var f gps.Fix
		if err := json.Unmarshal(payload, &f); err != nil {
			log.Warnf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Println(formatFix(f))
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicGPSStatus, func(payload []byte) {
		var e upstream.Error
		if err := json.Unmarshal(payload, &e); err != nil {
			log.Warnf("console: status unmarshal error: %v", err)
			return
		}
		fmt.Printf("[STAT] %v\n", &e)
	})
	if err != nil {
		return err
	}
	log.Infof("console: listening on %s, %s and %s", cfg.TopicGuidance, cfg.TopicGPS, cfg.TopicGPSStatus)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("console: shutting down")
	return nil
}

func formatSnapshot(s nav.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[NAV ] heading=%5.1f° (%s)", s.Heading.Value, s.HeadingLabel)

	switch {
	case s.Guidance.HasGuidance:
		fmt.Fprintf(&b, "  to %s: %s, bearing %.0f°, %s",
			s.Target.Label, guidance.FormatDistance(s.Guidance.DistanceM),
			s.Guidance.BearingDeg, s.Guidance.Instruction)
	case s.Target == nil:
		b.WriteString("  no target")
	default:
		b.WriteString("  waiting for position")
	}

	if s.Failure != nil {
		fmt.Fprintf(&b, "  [%v]", s.Failure)
	} else if s.Status != "" {
		fmt.Fprintf(&b, "  [%s]", s.Status)
	}
	return b.String()
}

func formatFix(f gps.Fix) string {
	course, speed := "--", "--"
	if f.CourseDeg != nil {
		course = fmt.Sprintf("%.1f°", *f.CourseDeg)
	}
	if f.SpeedMPS != nil {
		speed = fmt.Sprintf("%.1fm/s", *f.SpeedMPS)
	}
	return fmt.Sprintf("[GPS ] time=%s date=%s lat=%.6f lon=%.6f ±%.0fm speed=%s course=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.AccuracyM, speed, course)
}
