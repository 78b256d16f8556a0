package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptosignal",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptosignal",
			Subsystem: "usecase",
			Name:      "latency_seconds",
			Help:      "Latency of use-case operations including cache lookups",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Register adds the collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(CacheLookups, EndpointLatency)
	})
}

// Lookup records a cache hit or miss for kind.
func Lookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(kind, result).Inc()
}
