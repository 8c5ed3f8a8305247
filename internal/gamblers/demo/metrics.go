package demo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authorizeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_gambler_demo_authorize_total",
		Help: "Total number of successful auth handshakes",
	})

	dialsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_gambler_demo_dials_failed_total",
		Help: "Total number of failed WebSocket dial attempts",
	})

	offerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_gambler_demo_offer_events_total",
		Help: "Total number of offer events received, by kind (upsert/remove)",
	}, []string{"kind"})
)
