package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// RunGPSProducer opens the GPS serial port, assembles NMEA sentences into
// fixes and publishes them as JSON. Receiver trouble goes to the status
// topic as an upstream.Error so the navigator can show it.
func RunGPSProducer(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	pub := mqttPublisher{client: client}

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		status := openFailure(cfg.GPSSerialPort, err)
		if perr := pub.Publish(cfg.TopicGPSStatus, true, status); perr != nil {
			log.Errorf("gps: %v", perr)
		}
		return fmt.Errorf("gps: open %s: %w", cfg.GPSSerialPort, err)
	}
	defer port.Close()
	log.Infof("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return streamFixes(ctx, port, pub, cfg.TopicGPS, cfg.TopicGPSStatus, cfg.FixTimeout())
}

// openFailure maps a serial open error to the failure shown to the user.
func openFailure(port string, err error) *upstream.Error {
	if os.IsPermission(err) {
		return upstream.New(upstream.SourcePosition, upstream.PermissionDenied,
			"no access to %s", port)
	}
	return upstream.New(upstream.SourcePosition, upstream.PositionUnavailable,
		"cannot open %s: %v", port, err)
}

type nmeaLine struct {
	text string
	err  error
}

// streamFixes reads NMEA lines from r until ctx is done or the reader
// fails. Each completed fix is published on fixTopic. A status is
// published on statusTopic when the receiver reports a void fix or stays
// silent for longer than timeout; repeats of the same reason are skipped
// until a good fix clears it.
func streamFixes(ctx context.Context, r io.Reader, pub publisher, fixTopic, statusTopic string, timeout time.Duration) error {
	lines := make(chan nmeaLine)
	go func() {
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				select {
				case lines <- nmeaLine{text: text}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				select {
				case lines <- nmeaLine{err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	var (
		asm        gps.Assembler
		lastReason upstream.Reason
	)
	report := func(e *upstream.Error) {
		if e.Reason == lastReason {
			return
		}
		lastReason = e.Reason
		log.WithField("reason", e.Reason).Warnf("gps: %s", e.Message)
		if err := pub.Publish(statusTopic, true, e); err != nil {
			log.Errorf("gps: %v", err)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("gps: shutting down")
			return nil

		case <-timer.C:
			report(upstream.New(upstream.SourcePosition, upstream.Timeout,
				"no valid fix for %s", timeout))
			timer.Reset(timeout)

		case l := <-lines:
			if l.err != nil {
				if errors.Is(l.err, io.EOF) {
					log.Info("gps: input closed")
					return nil
				}
				return fmt.Errorf("gps read: %w", l.err)
			}

			fix, ok, err := asm.Feed(l.text)
			if err != nil {
				var ue *upstream.Error
				if errors.As(err, &ue) {
					report(ue)
				} else {
					// noisy receivers emit partial sentences now and then
					log.Debugf("gps: %v", err)
				}
				continue
			}
			if !ok {
				continue
			}

			timer.Reset(timeout)
			lastReason = ""
			if err := pub.Publish(fixTopic, true, fix); err != nil {
				log.Errorf("gps: %v", err)
				continue
			}
			log.WithFields(log.Fields{
				"lat":        fix.Latitude,
				"lon":        fix.Longitude,
				"accuracy_m": fix.AccuracyM,
			}).Debug("gps: published fix")
		}
	}
}
