package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_resolver_resolutions_total",
		Help: "Total number of resolutions by outcome",
	}, []string{"outcome"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_resolver_cache_hits_total",
		Help: "Total number of resolutions skipped due to a warm dedupe cache hit",
	})

	marginGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_resolver_last_margin",
		Help: "Effective margin of the most recently resolved market",
	})
)
