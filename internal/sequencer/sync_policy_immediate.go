package sequencer

import (
	"fmt"
	"log/slog"
)

// SyncPolicyImmediate flushes the sequencer files after every published transaction. This has a negative impact on
// performance.
type SyncPolicyImmediate struct {
	syncer Syncer
}

// SyncPolicyImmediate implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyImmediate)(nil)

func NewSyncPolicyImmediate() *SyncPolicyImmediate {
	return &SyncPolicyImmediate{}
}

func (s *SyncPolicyImmediate) Startup(syncer Syncer, logger *slog.Logger) error {
	s.syncer = syncer
	return nil
}

func (s *SyncPolicyImmediate) TransactionPublished(txn uint64) error {
	if err := s.syncer.Sync(); err != nil {
		return fmt.Errorf("flushing transaction %d: %w", txn, err)
	}
	return nil
}

func (s *SyncPolicyImmediate) Shutdown() error {
	return nil
}
