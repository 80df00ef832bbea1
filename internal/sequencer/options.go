//go:build unix

package sequencer

import (
	"log/slog"
	"time"

	"github.com/backbone81/wal-sequencer/internal/mmap"
)

// WriterOption describes the function signature which all writer options need to implement.
type WriterOption func(l *TransactionLog)

// WithPreAllocationSize overwrites the default granularity the sequencer files grow with.
func WithPreAllocationSize(preAllocationSize int64) WriterOption {
	return func(l *TransactionLog) {
		l.preAllocationSize = max(preAllocationSize, 1)
	}
}

// WithSyncPolicy overwrites the default sync policy with the sync policy of the given type. Open fails with
// ErrSyncPolicyUnsupported for an unknown type.
func WithSyncPolicy(syncPolicyType SyncPolicyType) WriterOption {
	return func(l *TransactionLog) {
		l.syncPolicyType = syncPolicyType
		l.syncPolicy = nil
	}
}

// WithSyncPolicyNone overwrites the default sync policy with sync policy none.
func WithSyncPolicyNone() WriterOption {
	return func(l *TransactionLog) {
		l.syncPolicy = NewSyncPolicyNone()
	}
}

// WithSyncPolicyImmediate overwrites the default sync policy with sync policy immediate.
func WithSyncPolicyImmediate() WriterOption {
	return func(l *TransactionLog) {
		l.syncPolicy = NewSyncPolicyImmediate()
	}
}

// WithSyncPolicyPeriodic overwrites the default sync policy with sync policy periodic.
func WithSyncPolicyPeriodic(syncAfterTxnCount int, syncEvery time.Duration) WriterOption {
	return func(l *TransactionLog) {
		l.syncPolicy = NewSyncPolicyPeriodic(syncAfterTxnCount, syncEvery)
	}
}

// WithLogger sets the logger the writer reports to.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(l *TransactionLog) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func newTransactionLog(directory string) *TransactionLog {
	return &TransactionLog{
		directory:         directory,
		preAllocationSize: mmap.DefaultPreAllocationSize,
		syncPolicyType:    DefaultSyncPolicy,
		logger:            slog.Default(),
	}
}
