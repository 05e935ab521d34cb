// Package metrics exposes the composer's optional Prometheus counters and
// histogram: bids cast, auctions decided, heartbeats missed, and job
// decision latency, served over HTTP via its own registry and handler.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every method tolerates a nil receiver so components
// can unconditionally call into it whether or not a Metrics was supplied.
type Metrics struct {
	reg              *prometheus.Registry
	bidsCast         prometheus.Counter
	auctionsDecided  prometheus.Counter
	heartbeatsMissed prometheus.Counter
	decisionLatency  prometheus.Histogram
	server           *http.Server
}

// New builds a fresh metrics set registered against its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		bidsCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hpc_auction_sim", Name: "bids_cast_total", Help: "Total bids broadcast by any JSA.",
		}),
		auctionsDecided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hpc_auction_sim", Name: "auctions_decided_total", Help: "Total auctions that reached a winner decision.",
		}),
		heartbeatsMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hpc_auction_sim", Name: "heartbeats_missed_total", Help: "Total peer heartbeat expirations detected.",
		}),
		decisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hpc_auction_sim", Name: "job_decision_latency_seconds", Help: "Simulated seconds between submission and scheduling decision.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.bidsCast, m.auctionsDecided, m.heartbeatsMissed, m.decisionLatency)
	return m
}

func (m *Metrics) BidCast() {
	if m == nil {
		return
	}
	m.bidsCast.Inc()
}

func (m *Metrics) AuctionDecided() {
	if m == nil {
		return
	}
	m.auctionsDecided.Inc()
}

func (m *Metrics) HeartbeatMissed() {
	if m == nil {
		return
	}
	m.heartbeatsMissed.Inc()
}

func (m *Metrics) ObserveDecisionLatency(seconds float64) {
	if m == nil {
		return
	}
	m.decisionLatency.Observe(seconds)
}

// Serve starts a background HTTP listener exposing /metrics. Call Shutdown
// to stop it.
func (m *Metrics) Serve(addr string) error {
	if m == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- m.server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown stops the metrics HTTP listener, if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
