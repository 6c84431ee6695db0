// Package metrics exports kiosk state and override activity to Prometheus.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultNamespace = "kioskguard"
	shutdownTimeout  = 5 * time.Second
)

// Gesture labels.
const (
	GestureDoubleTap = "two_finger_double_tap"
	GestureKeyCombo  = "key_combo"
)

// Config contains configuration options for metrics.
type Config struct {
	// Namespace prefixes every metric name (default: kioskguard).
	Namespace string

	// Address is the listen address of the metrics server. Empty disables the
	// server; the recorder still counts.
	Address string
}

// Recorder receives kiosk events worth counting.
type Recorder interface {
	GestureDetected(gesture string)
	Transition(locked bool)
	CapabilityFailure(op string)

	Start() error
	Stop() error
}

// New creates a Prometheus backed recorder.
func New(config Config) *Server {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	return newServer(config)
}

// NewNoop creates a recorder that discards everything.
func NewNoop() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) GestureDetected(string)   {}
func (noopRecorder) Transition(bool)          {}
func (noopRecorder) CapabilityFailure(string) {}
func (noopRecorder) Start() error             { return nil }
func (noopRecorder) Stop() error              { return nil }

// status is the JSON body of /status.
type status struct {
	Locked         bool       `json:"locked"`
	LastTransition *time.Time `json:"last_transition,omitempty"`
	Transitions    uint64     `json:"transitions"`
}

// Server is the Prometheus recorder and its HTTP endpoint.
type Server struct {
	config   Config
	registry *prometheus.Registry

	gestures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	locked      prometheus.Gauge

	mu     sync.Mutex
	status status
	server *http.Server
	addr   string
	wg     sync.WaitGroup
}

func newServer(config Config) *Server {
	registry := prometheus.NewRegistry()
	ns := config.Namespace

	gestures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "gestures_total",
			Help:      "Override gestures detected, by gesture",
		},
		[]string{"gesture"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "transitions_total",
			Help:      "Successful kiosk state transitions, by target state",
		},
		[]string{"to"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "capability_errors_total",
			Help:      "Refused exclusive mode operations, by operation",
		},
		[]string{"op"},
	)
	locked := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "locked",
		Help:      "1 while kiosk mode is locked",
	})

	registry.MustRegister(gestures, transitions, failures, locked)

	return &Server{
		config:      config,
		registry:    registry,
		gestures:    gestures,
		transitions: transitions,
		failures:    failures,
		locked:      locked,
	}
}

// GestureDetected counts one detected override gesture.
func (s *Server) GestureDetected(gesture string) {
	s.gestures.WithLabelValues(gesture).Inc()
}

// Transition records a successful change of kiosk state.
func (s *Server) Transition(locked bool) {
	to := "unlocked"
	value := 0.0
	if locked {
		to = "locked"
		value = 1
	}
	s.transitions.WithLabelValues(to).Inc()
	s.locked.Set(value)

	s.mu.Lock()
	s.status.Locked = locked
	now := time.Now()
	s.status.LastTransition = &now
	s.status.Transitions++
	s.mu.Unlock()
}

// CapabilityFailure counts a refused acquire or release.
func (s *Server) CapabilityFailure(op string) {
	s.failures.WithLabelValues(op).Inc()
}

// Registry exposes the private registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves /metrics and /status.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Start listens on the configured address. It does nothing when no address
// is configured.
func (s *Server) Start() error {
	if s.config.Address == "" {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.addr = ln.Addr().String()
	srv := s.server
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics: server error: %v", err)
		}
	}()
	log.Printf("metrics: serving on %s", s.addr)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the HTTP server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	s.wg.Wait()
	return nil
}
