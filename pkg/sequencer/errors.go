//go:build unix

package sequencer

import intsequencer "github.com/backbone81/wal-sequencer/internal/sequencer"

var (
	ErrCorruption      = intsequencer.ErrCorruption
	ErrConsistency     = intsequencer.ErrConsistency
	ErrClosed          = intsequencer.ErrClosed
	ErrWriterFailed    = intsequencer.ErrWriterFailed
	ErrNoCurrentRecord = intsequencer.ErrNoCurrentRecord

	ErrSyncPolicyUnsupported = intsequencer.ErrSyncPolicyUnsupported
)
