package mmap

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GrowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequencer_region_grow_total",
			Help: "Total number of times a writable region was grown.",
		},
	)

	GrowDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sequencer_region_grow_duration_seconds",
			Help:    "Duration of growing a writable region in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	RemapTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequencer_cursor_remap_total",
			Help: "Total number of times a read-only region was remapped to follow a writer.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		GrowTotal,
		GrowDuration,
		RemapTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
