package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// bucketsTotal tracks the number of live buckets across all shards.
	bucketsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_table_buckets_total",
		Help: "Current number of live buckets across all table shards",
	})

	// updatesTotal counts offer updates by outcome.
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_table_updates_total",
		Help: "Total number of UpdateOffer calls by outcome",
	}, []string{"outcome"})

	// removalsTotal counts offer removals.
	removalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_table_removals_total",
		Help: "Total number of RemoveOffer calls",
	})

	// rejectedDimensionTotal counts updates rejected for an outcome-count mismatch.
	rejectedDimensionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_table_rejected_dimension_total",
		Help: "Total number of offer updates rejected for outcome-count mismatch with their bucket",
	})
)
