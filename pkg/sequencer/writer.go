//go:build unix

package sequencer

import intsequencer "github.com/backbone81/wal-sequencer/internal/sequencer"

// TransactionLog is the writer of the sequencer. It appends data transactions and structural changes and publishes
// them to readers.
//
// Instances of this struct are NOT safe for concurrent use. There must only be a single writer per table, across all
// processes.
type TransactionLog = intsequencer.TransactionLog

// Open opens the sequencer in the given directory for writing, creating it if necessary.
var Open = intsequencer.Open

// WriterOption configures a TransactionLog. Can be used with Open and Init.
type WriterOption = intsequencer.WriterOption

// WithPreAllocationSize overwrites the default granularity the sequencer files grow with.
var WithPreAllocationSize = intsequencer.WithPreAllocationSize

// WithSyncPolicy overwrites the default sync policy with the sync policy of the given type.
var WithSyncPolicy = intsequencer.WithSyncPolicy

// SyncPolicyType describes when the sequencer files are flushed to stable storage.
type SyncPolicyType = intsequencer.SyncPolicyType

const (
	SyncPolicyTypeNone      = intsequencer.SyncPolicyTypeNone
	SyncPolicyTypeImmediate = intsequencer.SyncPolicyTypeImmediate
	SyncPolicyTypePeriodic  = intsequencer.SyncPolicyTypePeriodic
)

// DefaultSyncPolicy is the sync policy type used when nothing else is configured.
const DefaultSyncPolicy = intsequencer.DefaultSyncPolicy

// ParseSyncPolicyType returns the sync policy type for its string representation.
var ParseSyncPolicyType = intsequencer.ParseSyncPolicyType

// WithSyncPolicyNone overwrites the default sync policy with sync policy none.
var WithSyncPolicyNone = intsequencer.WithSyncPolicyNone

// WithSyncPolicyImmediate overwrites the default sync policy with sync policy immediate.
var WithSyncPolicyImmediate = intsequencer.WithSyncPolicyImmediate

// WithSyncPolicyPeriodic overwrites the default sync policy with sync policy periodic.
var WithSyncPolicyPeriodic = intsequencer.WithSyncPolicyPeriodic

// WithLogger sets the structured logger the writer reports to.
var WithLogger = intsequencer.WithLogger

// ChangeAppender serializes a structural change for BeginMetadataChangeEntry.
type ChangeAppender = intsequencer.ChangeAppender

// Serializer converts structural changes of type T to and from their serialized form.
type Serializer[T any] = intsequencer.Serializer[T]
