package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/nav"
	"github.com/relabs-tech/compass_nav/internal/orientation"
	"github.com/relabs-tech/compass_nav/internal/target"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// navService puts a Navigator behind a mutex and fans every change out to
// MQTT and the websocket clients.
type navService struct {
	mu      sync.Mutex
	nav     *nav.Navigator
	last    nav.Snapshot
	changed bool

	// coalesces bursts of changes; run always publishes the latest state
	dirty chan struct{}

	pub           publisher
	hub           *hub
	guidanceTopic string
	geocodeTopic  string
}

func newNavService(opts nav.Options, pub publisher, guidanceTopic, geocodeTopic string) *navService {
	s := &navService{
		nav:           nav.New(opts),
		dirty:         make(chan struct{}, 1),
		pub:           pub,
		hub:           newHub(),
		guidanceTopic: guidanceTopic,
		geocodeTopic:  geocodeTopic,
	}
	// called with s.mu held
	s.nav.OnUpdate(func(snap nav.Snapshot) {
		s.last = snap
		s.changed = true
	})
	s.last = s.nav.Snapshot()
	return s
}

// apply runs fn on the navigator under the lock and schedules a publish
// when fn changed anything.
func (s *navService) apply(fn func(n *nav.Navigator) error) (nav.Snapshot, error) {
	s.mu.Lock()
	err := fn(s.nav)
	snap := s.last
	if s.changed {
		s.changed = false
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
	return snap, err
}

// Snapshot returns the state after the latest change.
func (s *navService) Snapshot() nav.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// run publishes snapshots until ctx is done.
func (s *navService) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		}
		snap := s.Snapshot()
		if err := s.pub.Publish(s.guidanceTopic, true, snap); err != nil {
			log.Errorf("navigator: %v", err)
		}
		s.hub.broadcast(snap)
	}
}

func (s *navService) handleFix(payload []byte) {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		log.Warnf("navigator: gps unmarshal error: %v", err)
		return
	}
	s.apply(func(n *nav.Navigator) error {
		d, err := n.IngestFix(f)
		if err != nil {
			log.Warnf("navigator: rejected fix: %v", err)
			n.ReportFailure(err)
			return err
		}
		log.WithField("heading", d).Debugf("navigator: fix %.6f,%.6f", f.Latitude, f.Longitude)
		return nil
	})
}

func (s *navService) handleStatus(payload []byte) {
	var e upstream.Error
	if err := json.Unmarshal(payload, &e); err != nil {
		log.Warnf("navigator: status unmarshal error: %v", err)
		return
	}
	if e.Reason == "" {
		return
	}
	if !e.Reason.Known() {
		e.Reason = upstream.TransportError
	}
	log.WithField("source", e.Source).Warnf("navigator: upstream failure: %v", &e)
	s.apply(func(n *nav.Navigator) error {
		n.ReportFailure(&e)
		return nil
	})
}

func (s *navService) handleOrientation(payload []byte) {
	var ev orientation.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warnf("navigator: orientation unmarshal error: %v", err)
		return
	}
	s.apply(func(n *nav.Navigator) error {
		if _, ok := n.IngestOrientation(ev); !ok {
			log.Debug("navigator: orientation event without a usable field")
		}
		return nil
	})
}

type rotationRequest struct {
	Angle *float64 `json:"angle"`
}

func (s *navService) handleScreenRotation(payload []byte) {
	var req rotationRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Angle == nil {
		log.Warnf("navigator: bad screen rotation payload %q", payload)
		return
	}
	s.setRotation(*req.Angle)
}

func (s *navService) setRotation(deg float64) {
	s.apply(func(n *nav.Navigator) error {
		n.SetScreenRotation(deg)
		log.Infof("navigator: screen rotation %v°", n.ScreenRotation())
		return nil
	})
}

type headingRequest struct {
	Heading *float64 `json:"heading"`
}

func (r headingRequest) value() (float64, error) {
	if r.Heading == nil || math.IsNaN(*r.Heading) || math.IsInf(*r.Heading, 0) {
		return 0, errors.New("heading must be a number")
	}
	return *r.Heading, nil
}

func (s *navService) handleManualHeading(payload []byte) {
	var req headingRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Warnf("navigator: manual heading unmarshal error: %v", err)
		return
	}
	v, err := req.value()
	if err != nil {
		log.Warnf("navigator: %v", err)
		return
	}
	s.setManual(v)
}

func (s *navService) setManual(deg float64) nav.Snapshot {
	snap, _ := s.apply(func(n *nav.Navigator) error {
		n.SetManualHeading(deg)
		return nil
	})
	return snap
}

func (s *navService) handleResolution(payload []byte) {
	var r target.Resolution
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Warnf("navigator: resolution unmarshal error: %v", err)
		return
	}
	_, err := s.apply(func(n *nav.Navigator) error {
		return n.ApplyResolution(r)
	})
	if err != nil {
		log.WithField("query", r.Query).Warnf("navigator: address not resolved: %v", err)
		return
	}
	log.WithField("query", r.Query).Info("navigator: target locked")
}

// requestAddress sends a geocoding query; the answer arrives later on the
// target topic.
func (s *navService) requestAddress(address string) (target.Query, error) {
	q, err := target.NewQuery(address)
	if err != nil {
		return q, err
	}
	if err := s.pub.Publish(s.geocodeTopic, false, q); err != nil {
		return q, upstream.New(upstream.SourceResolver, upstream.TransportError, "%v", err)
	}
	return q, nil
}

// ---- HTTP ----

type targetRequest struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Label string   `json:"label"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error   upstream.Reason `json:"error,omitempty"`
	Message string          `json:"message"`
}

func (s *navService) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/guidance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Snapshot())
	})

	mux.HandleFunc("POST /api/manual", func(w http.ResponseWriter, r *http.Request) {
		var req headingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
			return
		}
		v, err := req.value()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, s.setManual(v))
	})

	mux.HandleFunc("POST /api/target", func(w http.ResponseWriter, r *http.Request) {
		var req targetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
			return
		}
		if req.Lat == nil || req.Lon == nil {
			writeError(w, http.StatusBadRequest, errors.New("lat and lon are required"))
			return
		}
		t, err := target.New(*req.Lat, *req.Lon, req.Label)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		snap, _ := s.apply(func(n *nav.Navigator) error {
			n.SetTarget(t)
			return nil
		})
		log.Infof("navigator: target set to %s", t)
		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("POST /api/address", func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
			return
		}
		q, err := s.requestAddress(req.Address)
		switch {
		case errors.Is(err, upstream.ErrTransport):
			writeError(w, http.StatusBadGateway, err)
		case err != nil:
			writeError(w, http.StatusBadRequest, err)
		default:
			log.WithField("id", q.ID).Infof("navigator: geocoding %q", q.Address)
			writeJSON(w, http.StatusAccepted, q)
		}
	})

	mux.HandleFunc("GET /ws", s.serveWS)

	// Static files from ./web as the root
	mux.Handle("GET /", http.FileServer(http.Dir("web")))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("navigator: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: upstream.ReasonOf(err), Message: err.Error()})
}

// RunNavigator subscribes to every input topic, keeps the navigation state
// and serves it over HTTP until interrupted.
func RunNavigator(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDNavigator)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	s := newNavService(cfg.NavOptions(), mqttPublisher{client: client}, cfg.TopicGuidance, cfg.TopicGeocodeRequest)

	subs := []struct {
		topic   string
		handler func([]byte)
	}{
		{cfg.TopicGPS, s.handleFix},
		{cfg.TopicGPSStatus, s.handleStatus},
		{cfg.TopicOrientation, s.handleOrientation},
		{cfg.TopicScreenRotation, s.handleScreenRotation},
		{cfg.TopicManualHeading, s.handleManualHeading},
		{cfg.TopicTarget, s.handleResolution},
	}
	for _, sub := range subs {
		if err := subscribe(client, sub.topic, sub.handler); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go s.run(ctx)

	server := &http.Server{Addr: cfg.WebAddr(), Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.hub.closeAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("navigator: shutdown: %v", err)
		}
	}()

	log.Infof("navigator: web server listening on %s", cfg.WebAddr())
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("navigator: shutting down")
	return nil
}
