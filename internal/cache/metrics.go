package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	storeMemory = "memory"
	storeSQL    = "sql"
)

var (
	// cacheLookups counts lookups by store and result
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocuts_cache_lookups_total",
		Help: "Compute cache lookups by store and result",
	}, []string{"store", "result"})
)

func observeHit(store string)   { cacheLookups.WithLabelValues(store, "hit").Inc() }
func observeMiss(store string)  { cacheLookups.WithLabelValues(store, "miss").Inc() }
func observeError(store string) { cacheLookups.WithLabelValues(store, "error").Inc() }
