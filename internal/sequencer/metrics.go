package sequencer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TxnAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequencer_txn_appended_total",
			Help: "Total number of data transactions published to the sequencer log.",
		},
	)

	StructuralChangeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequencer_structural_change_total",
			Help: "Total number of structural changes published to the sequencer log.",
		},
	)

	SyncTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequencer_sync_total",
			Help: "Total number of times the sequencer files were flushed to stable storage.",
		},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sequencer_sync_duration_seconds",
			Help:    "Duration of flushing the sequencer files in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		TxnAppendedTotal,
		StructuralChangeTotal,
		SyncTotal,
		SyncDuration,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
