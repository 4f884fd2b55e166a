// Package metrics holds the Prometheus collectors shared by the fetch engines,
// the scraper core and the ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "perfumes"

var (
	// PagesFetched counts upstream page fetches by engine and outcome ("ok", "error").
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Upstream pages fetched, by engine and outcome.",
	}, []string{"engine", "outcome"})

	// RaceWins counts dispatcher races by winning engine.
	RaceWins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "race_wins_total",
		Help:      "Dispatcher races won, by engine.",
	}, []string{"engine"})

	// Escalations counts heavier engines joining a dispatcher race.
	Escalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escalations_total",
		Help:      "Engines started after the first in a dispatcher race, by engine.",
	}, []string{"engine"})

	// FetchRetries counts detail-page fetch attempts after the first.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_retries_total",
		Help:      "Detail page fetch retries.",
	})

	// ListingPages counts catalog listing pages walked.
	ListingPages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_pages_total",
		Help:      "Catalog listing pages walked.",
	})

	// Extractions counts product extractions by outcome ("ok", "error").
	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "Product extractions, by outcome.",
	}, []string{"outcome"})

	// ExtractDuration observes the time to fetch and parse one product.
	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extract_duration_seconds",
		Help:      "Time to fetch and parse one product detail page.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// IngestJobs counts finished ingest runs by final status.
	IngestJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_jobs_total",
		Help:      "Finished ingest runs, by status.",
	}, []string{"status"})
)

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
