// Package metrics defines the Prometheus collectors for the engine and
// its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Recomputes counts full ledger recomputations. The pipeline is
	// recompute-everything-on-every-read, so this also approximates
	// read traffic on balances and settlements.
	Recomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_ledger_recomputes_total",
		Help: "Full balance/settlement recomputations over a trip snapshot.",
	})

	// SyncRetries counts transport-level retries of store reads/writes.
	SyncRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_sync_transport_retries_total",
		Help: "Store operations retried after a transient transport failure.",
	})

	// SyncConflicts counts optimistic writes that lost the version race
	// and were re-applied against a fresh snapshot.
	SyncConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_sync_version_conflicts_total",
		Help: "Whole-document writes rejected by compare-and-swap.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "triptally_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler returns the /metrics exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentHTTP records request duration per method/route/status.
// routeName should be the route template, not the raw path, to keep
// cardinality bounded.
func InstrumentHTTP(routeName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		httpDuration.WithLabelValues(r.Method, routeName, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
