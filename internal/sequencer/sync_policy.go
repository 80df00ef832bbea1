package sequencer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrSyncPolicyUnsupported = errors.New("unsupported sequencer sync policy")

// SyncPolicyType describes when the mapped sequencer files are flushed to stable storage. Flushing has no influence on
// visibility, readers see published transactions through the shared mapping right away.
type SyncPolicyType int

const (
	SyncPolicyTypeNone SyncPolicyType = iota
	SyncPolicyTypeImmediate
	SyncPolicyTypePeriodic
)

// String returns a string representation of the sync policy type.
func (s SyncPolicyType) String() string {
	switch s {
	case SyncPolicyTypeNone:
		return "none"
	case SyncPolicyTypeImmediate:
		return "immediate"
	case SyncPolicyTypePeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// SyncPolicyTypes provides a list of supported sync policies. Helpful for writing tests and benchmarks which iterate
// over all possibilities.
var SyncPolicyTypes = []SyncPolicyType{
	SyncPolicyTypeNone,
	SyncPolicyTypeImmediate,
	SyncPolicyTypePeriodic,
}

// DefaultSyncPolicy is the sync policy type used when nothing else is configured. The WAL segments are the source of
// durability, the sequencer log can be recovered from them.
const DefaultSyncPolicy = SyncPolicyTypeNone

const (
	// DefaultSyncAfterTxnCount is the number of published transactions after which sync policy periodic flushes, when
	// selected by type.
	DefaultSyncAfterTxnCount = 1000

	// DefaultSyncEvery is the interval sync policy periodic flushes with, when selected by type.
	DefaultSyncEvery = time.Second
)

// ParseSyncPolicyType returns the sync policy type for its string representation.
func ParseSyncPolicyType(value string) (SyncPolicyType, error) {
	for _, syncPolicyType := range SyncPolicyTypes {
		if syncPolicyType.String() == value {
			return syncPolicyType, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSyncPolicyUnsupported, value)
}

// Syncer flushes pending changes to stable storage.
type Syncer interface {
	Sync() error
}

// SyncPolicy is the interface every sync policy needs to implement.
type SyncPolicy interface {
	Startup(syncer Syncer, logger *slog.Logger) error
	TransactionPublished(txn uint64) error
	Shutdown() error
}

// GetSyncPolicy returns an instance of the sync policy matching the sync policy type. Sync policy periodic uses
// DefaultSyncAfterTxnCount and DefaultSyncEvery.
func GetSyncPolicy(syncPolicyType SyncPolicyType) (SyncPolicy, error) {
	switch syncPolicyType {
	case SyncPolicyTypeNone:
		return NewSyncPolicyNone(), nil
	case SyncPolicyTypeImmediate:
		return NewSyncPolicyImmediate(), nil
	case SyncPolicyTypePeriodic:
		return NewSyncPolicyPeriodic(DefaultSyncAfterTxnCount, DefaultSyncEvery), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrSyncPolicyUnsupported, syncPolicyType)
	}
}
