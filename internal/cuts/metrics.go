package cuts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "gocuts_cut_generation_duration_seconds",
	Help:    "Time spent generating the fixed cuts of a run",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
}, []string{"run_type"})
