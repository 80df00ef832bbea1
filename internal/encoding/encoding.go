// Package encoding describes the on-disk layout of the sequencer files.
//
// The sequencer log starts with a fixed size header followed by a packed array of fixed size transaction records.
// Transactions are 1-based, the record of transaction t is located at HeaderSize + (t-1) * RecordSize. The header
// fields which are published by the writer (MaxTxn, MaxStructureVersion, StructuralLogSize) are 8-byte aligned, so
// they can be accessed atomically through a memory mapping.
//
// The structural change log is made up of a payload file holding length prefixed entries and an index file holding
// the cumulative end offset of every structure version.
package encoding

import "encoding/binary"

// Endian is the endianness the sequencer uses for serializing/deserializing integers to file.
var Endian = binary.LittleEndian

const (
	// FormatVersionOffset is the offset of the format version in the header. Encoded as four bytes.
	FormatVersionOffset = 0

	// MaxTxnOffset is the offset of the highest committed transaction in the header. Encoded as eight bytes.
	MaxTxnOffset = 8

	// MaxStructureVersionOffset is the offset of the highest committed structure version. Encoded as eight bytes.
	MaxStructureVersionOffset = 16

	// StructuralLogSizeOffset is the offset of the payload file high-water mark. Encoded as eight bytes.
	StructuralLogSizeOffset = 24

	// HeaderReserved is the zero filled space at the end of the header. New header fields go in here.
	HeaderReserved = 64

	// HeaderSize provides the size in bytes of the header.
	HeaderSize = StructuralLogSizeOffset + 8 + HeaderReserved
)

const (
	// WalIDOffset is the offset of the WAL writer in a transaction record. Encoded as four bytes.
	WalIDOffset = 0

	// SegmentIDOffset is the offset of the WAL segment in a transaction record. Encoded as four bytes.
	SegmentIDOffset = 4

	// SegmentTxnOffset is the offset of the transaction within the WAL segment in a transaction record, or of the new
	// structure version for structural changes. Encoded as eight bytes.
	SegmentTxnOffset = 8

	// RecordReserved is the zero filled space at the end of every transaction record.
	RecordReserved = 64

	// RecordSize provides the size in bytes of a single transaction record.
	RecordSize = SegmentTxnOffset + 8 + RecordReserved
)

const (
	// LengthPrefixSize is the size of the length prefix in front of every structural change payload.
	LengthPrefixSize = 4

	// IndexEntrySize is the size of a single entry in the structural change index file.
	IndexEntrySize = 8

	// MaxChangeSize is the upper bound for a single serialized structural change. Anything bigger read back from disk
	// is treated as corruption.
	MaxChangeSize = 4096
)

// StructuralChangeWalID is the WAL id recorded for transactions which are structural changes instead of data
// commits.
const StructuralChangeWalID int32 = -1

// RecordOffset returns the offset of the record for the given 1-based transaction.
func RecordOffset(txn uint64) int64 {
	return HeaderSize + int64(txn-1)*RecordSize //nolint:gosec // transaction numbers stay far below MaxInt64
}

// LogSize returns the number of bytes the sequencer log occupies for the given number of transactions.
func LogSize(txnCount uint64) int64 {
	return HeaderSize + int64(txnCount)*RecordSize //nolint:gosec // transaction numbers stay far below MaxInt64
}

// IndexOffset returns the offset of the index entry for the given structure version.
func IndexOffset(structureVersion uint64) int64 {
	return int64(structureVersion) * IndexEntrySize //nolint:gosec // structure versions stay far below MaxInt64
}
