// Package metrics provides Prometheus metrics for the churn driver.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the driver.
type Metrics struct {
	PutsTotal      prometheus.Counter
	EvictionsTotal prometheus.Counter
	BurstsTotal    prometheus.Counter
	Resident       prometheus.Gauge
	Capacity       prometheus.Gauge
	BurstLatency   prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with the given namespace,
// registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "puts_total",
			Help:      "Total number of put calls issued against the cache",
		}),
		EvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of entries evicted for capacity",
		}),
		BurstsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bursts_total",
			Help:      "Total number of completed write bursts",
		}),
		Resident: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_entries",
			Help:      "Number of entries resident after the last burst",
		}),
		Capacity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capacity_entries",
			Help:      "Configured cache capacity",
		}),
		BurstLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "burst_duration_seconds",
			Help:      "Wall time spent issuing one burst of puts",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors, which is where churn shows up.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// SetCapacity records the configured capacity.
func (m *Metrics) SetCapacity(capacity int) {
	m.Capacity.Set(float64(capacity))
}

// ObserveBurst records one completed burst.
func (m *Metrics) ObserveBurst(puts, evictions, resident int, duration time.Duration) {
	m.BurstsTotal.Inc()
	m.PutsTotal.Add(float64(puts))
	m.EvictionsTotal.Add(float64(evictions))
	m.Resident.Set(float64(resident))
	m.BurstLatency.Observe(duration.Seconds())
}

// Server runs an HTTP server exposing /metrics, /health and the pprof
// endpoints under /debug/pprof/.
type Server struct {
	server *http.Server
}

// NewServer creates a new metrics server on the given address.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the server's mux.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	if err := s.server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartAsync listens on the configured address and serves in a
// goroutine. Serve errors are delivered on the returned channel.
func (s *Server) StartAsync() (<-chan error, error) {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, err
	}
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(l)
	}()
	return errc, nil
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
