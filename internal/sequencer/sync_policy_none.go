package sequencer

import "log/slog"

// SyncPolicyNone never flushes explicitly and leaves it to the operating system to write back dirty pages.
type SyncPolicyNone struct{}

// SyncPolicyNone implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyNone)(nil)

func NewSyncPolicyNone() *SyncPolicyNone {
	return &SyncPolicyNone{}
}

func (s *SyncPolicyNone) Startup(syncer Syncer, logger *slog.Logger) error {
	return nil
}

func (s *SyncPolicyNone) TransactionPublished(txn uint64) error {
	return nil
}

func (s *SyncPolicyNone) Shutdown() error {
	return nil
}
