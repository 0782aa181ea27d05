package server

import "github.com/prometheus/client_golang/prometheus"

var (
	queryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_query_requests_total",
			Help: "Total number of query requests",
		},
		[]string{"status"},
	)
	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "docqa_query_duration_seconds",
			Help: "Duration of query requests",
		},
		[]string{"intent"},
	)
	generationRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_generation_retries_total",
			Help: "Total number of validator-triggered regenerations",
		},
	)
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_cache_hits_total",
			Help: "Total number of answer cache hits",
		},
	)
	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_cache_misses_total",
			Help: "Total number of answer cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(queryRequestsTotal)
	prometheus.MustRegister(queryDuration)
	prometheus.MustRegister(generationRetriesTotal)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
}
