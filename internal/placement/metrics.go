package placement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_placement_rejected_total",
		Help: "Total number of placement attempts rejected during stake distribution or hold",
	})

	placedAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_placement_attempts_total",
		Help: "Total number of placement attempts that reached the barrier commit phase",
	})

	abortedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_placement_aborted_total",
		Help: "Total number of placement attempts aborted by a barrier synchronization timeout",
	})

	placedLegsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_placement_legs_placed_total",
		Help: "Total number of individual bet legs successfully placed",
	})
)
