// Package metrics holds the Prometheus collectors shared by the ledger,
// the query bridge and the HTTP layer.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoanOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "loan_operations_total",
		Help:      "Checkout and checkin attempts by outcome.",
	}, []string{"op", "outcome"})

	BridgeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "bridge_requests_total",
		Help:      "Natural-language requests handled by the query bridge, by outcome.",
	}, []string{"stage", "outcome"})

	OracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workshop",
		Name:      "oracle_request_seconds",
		Help:      "Latency of calls to the text-generation service.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"call"})

	ItemsImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "items_imported_total",
		Help:      "Rows written by the import pipeline.",
	})
)

// Outcome maps an error to a low-cardinality label. The errors in kinds must be distinct sentinels.
func Outcome(err error, kinds map[string]error) string {
	if err == nil {
		return "ok"
	}
	for label, target := range kinds {
		if errors.Is(err, target) {
			return label
		}
	}
	return "error"
}

func ObserveOracle(call string, start time.Time) {
	OracleLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
