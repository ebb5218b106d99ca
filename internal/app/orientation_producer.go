package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/orientation"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// RunOrientationProducer publishes mock orientation events at the
// configured sample interval. It stands in for a device sensor during
// development.
func RunOrientationProducer(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDOrientation)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.OrientationSampleInterval) * time.Millisecond
	return streamOrientation(ctx, orientation.NewMockSource(), mqttPublisher{client: client},
		cfg.TopicOrientation, cfg.TopicGPSStatus, interval)
}

// streamOrientation polls src every interval until ctx is done. A source
// error is published once as orientation-unavailable; the first good
// event after that resumes normal publishing.
func streamOrientation(ctx context.Context, src orientation.Source, pub publisher, topic, statusTopic string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			log.Info("orientation: shutting down")
			return nil
		case <-ticker.C:
		}

		ev, err := src.Next()
		if err != nil {
			if !failing {
				failing = true
				status := upstream.New(upstream.SourceOrientation, upstream.OrientationUnavailable, "%v", err)
				log.Warnf("orientation: %v", err)
				if perr := pub.Publish(statusTopic, false, status); perr != nil {
					log.Errorf("orientation: %v", perr)
				}
			}
			continue
		}
		failing = false

		if err := pub.Publish(topic, false, ev); err != nil {
			log.Errorf("orientation: %v", err)
			continue
		}
		log.Debugf("orientation: published %+v", ev)
	}
}
