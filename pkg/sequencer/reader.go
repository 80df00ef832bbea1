//go:build unix

package sequencer

import (
	intalter "github.com/backbone81/wal-sequencer/internal/alter"
	intsequencer "github.com/backbone81/wal-sequencer/internal/sequencer"
)

// TransactionLogCursor follows the committed transactions of the sequencer. Every reader needs its own cursor.
//
// Instances of this struct are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type TransactionLogCursor = intsequencer.TransactionLogCursor

// TransactionLogCursorValue is a single committed transaction.
type TransactionLogCursorValue = intsequencer.TransactionLogCursorValue

// OpenCursor opens a cursor which starts with the given transaction.
var OpenCursor = intsequencer.OpenCursor

// Operation is a single structural change of a table.
type Operation = intalter.Operation

// OperationType describes the kind of structural change.
type OperationType = intalter.OperationType

const (
	OperationTypeAddColumn        = intalter.OperationTypeAddColumn
	OperationTypeDropColumn       = intalter.OperationTypeDropColumn
	OperationTypeRenameColumn     = intalter.OperationTypeRenameColumn
	OperationTypeChangeColumnType = intalter.OperationTypeChangeColumnType
	OperationTypeSetParameter     = intalter.OperationTypeSetParameter
)

// OperationChangeLog iterates the structural changes after a given structure version.
//
// Instances of this struct are NOT safe for concurrent use.
type OperationChangeLog = intsequencer.TableMetadataChangeLog[Operation]

// BinarySerializer stores operations in a compact binary form.
type BinarySerializer = intalter.BinarySerializer

// JSONSerializer stores operations as JSON documents validated against a schema.
type JSONSerializer = intalter.JSONSerializer

// NewJSONSerializer returns a new JSONSerializer.
var NewJSONSerializer = intalter.NewJSONSerializer

// OperationChange binds an operation to its serializer, so it can be passed to BeginMetadataChangeEntry.
func OperationChange(serializer Serializer[Operation], operation *Operation) ChangeAppender {
	return intsequencer.Change(serializer, operation)
}

// OpenOperationChangeLog opens the structural changes following the given structure version.
func OpenOperationChangeLog(directory string, structureVersionLo uint64, serializer Serializer[Operation]) (*OperationChangeLog, error) {
	return intsequencer.OpenMetadataChangeLog(directory, structureVersionLo, serializer)
}

// ParseOperationType returns the operation type for its string representation.
var ParseOperationType = intalter.ParseOperationType
