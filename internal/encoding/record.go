package encoding

// Record is a single entry in the sequencer log.
type Record struct {
	// The WAL writer which authored the transaction, or StructuralChangeWalID.
	WalID int32

	// The segment of the WAL writer.
	SegmentID int32

	// The transaction within the segment. Holds the new structure version for structural changes.
	SegmentTxn uint64
}

// IsStructuralChange reports if the record describes a structural change instead of a data commit.
func (r Record) IsStructuralChange() bool {
	return r.WalID == StructuralChangeWalID
}

// StructuralChangeRecord returns the record for a structural change to the given structure version.
func StructuralChangeRecord(structureVersion uint64) Record {
	return Record{
		WalID:      StructuralChangeWalID,
		SegmentTxn: structureVersion,
	}
}

// PutRecord encodes the record into the first RecordSize bytes of the buffer, including the zero filled reserved
// space.
func PutRecord(buffer []byte, record Record) {
	_ = buffer[RecordSize-1]
	Endian.PutUint32(buffer[WalIDOffset:], uint32(record.WalID))         //nolint:gosec // two's complement on purpose
	Endian.PutUint32(buffer[SegmentIDOffset:], uint32(record.SegmentID)) //nolint:gosec // two's complement on purpose
	Endian.PutUint64(buffer[SegmentTxnOffset:], record.SegmentTxn)
	clear(buffer[SegmentTxnOffset+8 : RecordSize])
}

// GetRecord decodes the record from the first RecordSize bytes of the buffer.
func GetRecord(buffer []byte) Record {
	_ = buffer[RecordSize-1]
	return Record{
		WalID:      int32(Endian.Uint32(buffer[WalIDOffset:])),     //nolint:gosec // two's complement on purpose
		SegmentID:  int32(Endian.Uint32(buffer[SegmentIDOffset:])), //nolint:gosec // two's complement on purpose
		SegmentTxn: Endian.Uint64(buffer[SegmentTxnOffset:]),
	}
}
