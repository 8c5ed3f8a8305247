package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_ingestion_attempts_total",
		Help: "Total number of runGambler attempts by bookie host",
	}, []string{"host"})

	degradationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_ingestion_degradations_total",
		Help: "Total number of times a bookie was degraded",
	}, []string{"host"})

	resolveDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_ingestion_resolve_dropped_total",
		Help: "Total number of offer-keys dropped because the resolve queue was full",
	}, []string{"host"})

	offerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_ingestion_offer_events_total",
		Help: "Total number of offer events processed, by bookie host and event kind",
	}, []string{"host", "kind"})
)
