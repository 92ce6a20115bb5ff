// Copyright 2025 Certen Protocol
//
// Metrics: prometheus instrumentation for the relay's queues, verifier, and
// poster, exposed over a /metrics HTTP endpoint.

package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the relay's components publish to.
type Registry struct {
	IngressQueueDepth  prometheus.Gauge
	VerifierQueueDepth prometheus.Gauge

	ProofsReceived *prometheus.CounterVec // labels: proof_type
	ProofsVerified *prometheus.CounterVec // labels: proof_type, result
	HeightsReady   prometheus.Counter

	PosterAttempts *prometheus.CounterVec // labels: chain, call, result

	PosterBalance *prometheus.GaugeVec // labels: chain

	logger *log.Logger
}

// NewRegistry builds and registers every metric against the default
// prometheus registry.
func NewRegistry() *Registry {
	return &Registry{
		IngressQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "twarb",
			Subsystem: "ingress",
			Name:      "queue_depth",
			Help:      "Number of proof envelopes queued for verification.",
		}),
		VerifierQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "twarb",
			Subsystem: "verifier",
			Name:      "queue_depth",
			Help:      "Number of proof envelopes queued for verification, as seen by the verifier.",
		}),
		ProofsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twarb",
			Name:      "proofs_received_total",
			Help:      "Proof submissions received by proof type.",
		}, []string{"proof_type"}),
		ProofsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twarb",
			Name:      "proofs_verified_total",
			Help:      "Proof verification outcomes by proof type and result.",
		}, []string{"proof_type", "result"}),
		HeightsReady: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "twarb",
			Name:      "heights_ready_total",
			Help:      "Batch heights that reached quorum.",
		}),
		PosterAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twarb",
			Subsystem: "poster",
			Name:      "attempts_total",
			Help:      "Poster commit/finalize attempts by destination chain, call, and result.",
		}, []string{"chain", "call", "result"}),
		PosterBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "twarb",
			Subsystem: "poster",
			Name:      "account_balance",
			Help:      "Poster account balance per destination chain, in the chain's smallest unit.",
		}, []string{"chain"}),
		logger: log.New(log.Writer(), "[Metrics] ", log.LstdFlags),
	}
}

// Serve mounts the /metrics handler and blocks serving HTTP until ctx is
// cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	r.logger.Printf("metrics server listening at %s", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-errCh:
		return err
	}
}
