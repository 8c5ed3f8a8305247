package bookie

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_bookie_stage_transitions_total",
		Help: "Total number of bookie stage transitions by destination stage",
	}, []string{"host", "stage"})

	balance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "engine_bookie_balance",
		Help: "Current held-adjusted balance per bookie, in major currency units",
	}, []string{"host"})

	holdsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_bookie_holds_rejected_total",
		Help: "Total number of stake holds rejected for insufficient balance",
	}, []string{"host"})
)
