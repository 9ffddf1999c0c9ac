// Package metrics registers and exposes semcache's Prometheus metrics:
// the cache engine's hit/miss counters and size gauge, plus a process
// memory gauge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "semcache"

var (
	// cacheHits counts cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total semantic cache hits",
	})

	// cacheMisses counts cache misses.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total semantic cache misses",
	})

	// cacheSize tracks the current entry count.
	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_size",
		Help:      "Current cache size in entries",
	})

	// memoryUsageKB tracks process memory usage sourced from cgroup v2
	// accounting, best-effort.
	memoryUsageKB = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "memory_usage_kb",
		Help:      "Process memory usage in kilobytes, read from cgroup v2 accounting",
	})
)

// Collector is the best-effort sink the cache engine reports events to.
// It satisfies cacheengine.Metrics.
type Collector struct{}

// NewCollector returns a Collector backed by the package's registered
// Prometheus metrics.
func NewCollector() Collector { return Collector{} }

// CacheHit increments the hit counter.
func (Collector) CacheHit() { cacheHits.Inc() }

// CacheMiss increments the miss counter.
func (Collector) CacheMiss() { cacheMisses.Inc() }

// CacheSize sets the size gauge.
func (Collector) CacheSize(entries int) { cacheSize.Set(float64(entries)) }

// ObserveMemoryUsageKB sets the memory usage gauge to the given value,
// typically sourced from ReadCgroupMemoryKB.
func ObserveMemoryUsageKB(kb uint64) { memoryUsageKB.Set(float64(kb)) }
