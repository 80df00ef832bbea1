//go:build unix

package sequencer

import (
	"github.com/prometheus/client_golang/prometheus"

	intmmap "github.com/backbone81/wal-sequencer/internal/mmap"
	intsequencer "github.com/backbone81/wal-sequencer/internal/sequencer"
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	if err := intsequencer.RegisterMetrics(registerer); err != nil {
		return err
	}
	if err := intmmap.RegisterMetrics(registerer); err != nil {
		return err
	}
	return nil
}
