//go:build unix

package sequencer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/backbone81/wal-sequencer/internal/encoding"
	"github.com/backbone81/wal-sequencer/internal/mmap"
	"github.com/backbone81/wal-sequencer/internal/utils"
)

// TransactionLog is the writer of the sequencer of a single table. It appends one record per committed transaction
// and keeps the structural change log next to it.
//
// Instances of TransactionLog are NOT safe to use concurrently. There must only be a single writer per table across
// all processes, which needs to be guaranteed externally.
type TransactionLog struct {
	noCopy utils.NoCopy

	// The table directory holding the sequencer files.
	directory string

	// The mapped sequencer log, structural change payload and structural change index files.
	logRegion     *mmap.Region
	payloadRegion *mmap.Region
	indexRegion   *mmap.Region

	// Guards the mappings against being moved by a growing append while the sync policy flushes them from its own
	// go routine. Writes into the mappings do not need it.
	regionMutex sync.Mutex

	// The committed state as published in the header. The append offsets of all three files are derived from it.
	maxTxn              uint64
	maxStructureVersion uint64
	structuralLogSize   uint64

	// The structural change which was prepared by BeginMetadataChangeEntry but not yet published.
	pending *pendingChange

	// Scratch space for serializing structural changes before anything is written to the files.
	scratch []byte

	preAllocationSize int64

	// The sync policy given by an option, or the one created from syncPolicyType when opening.
	syncPolicy     SyncPolicy
	syncPolicyType SyncPolicyType

	logger            *slog.Logger

	// The I/O failure which made this writer unusable.
	err    error
	closed bool
}

type pendingChange struct {
	structureVersion uint64
	offset           uint64
}

// Open opens the sequencer in the given directory for writing. The files are created if they do not exist yet. The
// committed state is recovered from the header and validated against the structural change index.
//
// To avoid resources leaking, the returned TransactionLog needs to be closed by calling Close().
func Open(directory string, options ...WriterOption) (*TransactionLog, error) {
	transactionLog := newTransactionLog(directory)
	for _, option := range options {
		option(transactionLog)
	}
	if transactionLog.syncPolicy == nil {
		syncPolicy, err := GetSyncPolicy(transactionLog.syncPolicyType)
		if err != nil {
			return nil, fmt.Errorf("opening the sequencer in %q: %w", directory, err)
		}
		transactionLog.syncPolicy = syncPolicy
	}

	if err := transactionLog.open(); err != nil {
		return nil, errors.Join(
			fmt.Errorf("opening the sequencer in %q: %w", directory, err),
			transactionLog.closeRegions(),
		)
	}
	if err := transactionLog.syncPolicy.Startup(transactionLog, transactionLog.logger); err != nil {
		return nil, errors.Join(err, transactionLog.closeRegions())
	}

	transactionLog.logger.Info("Opened sequencer.",
		"directory", directory,
		"maxTxn", transactionLog.maxTxn,
		"maxStructureVersion", transactionLog.maxStructureVersion,
		"structuralLogSize", transactionLog.structuralLogSize,
	)
	return transactionLog, nil
}

func (l *TransactionLog) open() error {
	var err error
	l.logRegion, err = mmap.OpenReadWrite(logFilePath(l.directory), encoding.HeaderSize, l.preAllocationSize)
	if err != nil {
		return err
	}
	l.payloadRegion, err = mmap.OpenReadWrite(payloadFilePath(l.directory), 0, l.preAllocationSize)
	if err != nil {
		return err
	}
	l.indexRegion, err = mmap.OpenReadWrite(indexFilePath(l.directory), encoding.IndexEntrySize, l.preAllocationSize)
	if err != nil {
		return err
	}

	if encoding.LoadUint64(l.logRegion.Bytes(), encoding.MaxTxnOffset) == 0 {
		// Nothing was ever committed, start over with a fresh header. The index starts with the implicit zero offset
		// of structure version 0.
		if err := encoding.WriteHeader(l.logRegion.Bytes(), encoding.DefaultHeader); err != nil {
			return err
		}
		encoding.Endian.PutUint64(l.indexRegion.Bytes()[encoding.IndexOffset(0):], 0)
		return nil
	}

	header, err := encoding.LoadHeader(l.logRegion.Bytes())
	if err != nil {
		return err
	}
	if l.logRegion.Len() < encoding.LogSize(header.MaxTxn) {
		return fmt.Errorf("%w: the log holds %d bytes but %d transactions are committed", ErrCorruption, l.logRegion.Len(), header.MaxTxn)
	}
	if l.indexRegion.Len() < encoding.IndexOffset(header.MaxStructureVersion+1) {
		return fmt.Errorf("%w: the index holds %d bytes but structure version %d is committed", ErrCorruption, l.indexRegion.Len(), header.MaxStructureVersion)
	}
	indexedSize := encoding.Endian.Uint64(l.indexRegion.Bytes()[encoding.IndexOffset(header.MaxStructureVersion):])
	if indexedSize != header.StructuralLogSize {
		return fmt.Errorf("%w: the index ends structure version %d at offset %d but the header at %d", ErrCorruption, header.MaxStructureVersion, indexedSize, header.StructuralLogSize)
	}
	if uint64(l.payloadRegion.Len()) < header.StructuralLogSize { //nolint:gosec // lengths are never negative
		return fmt.Errorf("%w: the payload holds %d bytes but %d are committed", ErrCorruption, l.payloadRegion.Len(), header.StructuralLogSize)
	}

	l.maxTxn = header.MaxTxn
	l.maxStructureVersion = header.MaxStructureVersion
	l.structuralLogSize = header.StructuralLogSize
	return nil
}

// Directory returns the table directory the sequencer files are located in.
func (l *TransactionLog) Directory() string {
	return l.directory
}

// LastTxn returns the most recently committed transaction. Zero means that nothing was committed yet.
func (l *TransactionLog) LastTxn() uint64 {
	return l.maxTxn
}

// MaxStructureVersion returns the most recently committed structure version.
func (l *TransactionLog) MaxStructureVersion() uint64 {
	return l.maxStructureVersion
}

// StructuralLogSize returns the number of committed bytes in the structural change payload file.
func (l *TransactionLog) StructuralLogSize() uint64 {
	return l.structuralLogSize
}

// AddEntry appends a data transaction written by the given WAL writer and publishes it. It returns the 1-based
// number of the new transaction.
func (l *TransactionLog) AddEntry(walID int32, segmentID int32, segmentTxn uint64) (uint64, error) {
	if err := l.checkWritable(); err != nil {
		return 0, err
	}
	if l.pending != nil {
		return 0, fmt.Errorf("%w: structural change to version %d is still pending", ErrConsistency, l.pending.structureVersion)
	}
	if walID == encoding.StructuralChangeWalID {
		return 0, fmt.Errorf("%w: WAL id %d is reserved for structural changes", ErrConsistency, walID)
	}

	txn := l.maxTxn + 1
	if err := l.grow(l.logRegion, encoding.LogSize(txn)); err != nil {
		return 0, err
	}
	encoding.PutRecord(l.logRegion.Bytes()[encoding.RecordOffset(txn):], encoding.Record{
		WalID:      walID,
		SegmentID:  segmentID,
		SegmentTxn: segmentTxn,
	})

	// Publishing the transaction count must be the last write. Readers rely on every record below it being complete.
	encoding.StoreUint64(l.logRegion.Bytes(), encoding.MaxTxnOffset, txn)
	l.maxTxn = txn
	TxnAppendedTotal.Inc()

	if err := l.syncPolicy.TransactionPublished(txn); err != nil {
		return txn, l.fail(err)
	}
	return txn, nil
}

// BeginMetadataChangeEntry prepares a structural change to the given structure version. The change is serialized
// first, so a failing serializer leaves the files untouched. The record and the payload are written afterward, but
// nothing becomes visible to readers before EndMetadataChangeEntry is called with the returned offset. A prepared
// change can be dropped with AbortMetadataChangeEntry.
//
// newStructureVersion must be the successor of the most recently committed structure version.
func (l *TransactionLog) BeginMetadataChangeEntry(newStructureVersion uint64, change ChangeAppender) (uint64, error) {
	if err := l.checkWritable(); err != nil {
		return 0, err
	}
	if l.pending != nil {
		return 0, fmt.Errorf("%w: structural change to version %d is still pending", ErrConsistency, l.pending.structureVersion)
	}
	if newStructureVersion != l.maxStructureVersion+1 {
		return 0, fmt.Errorf("%w: expected structure version %d but got %d", ErrConsistency, l.maxStructureVersion+1, newStructureVersion)
	}

	payload, err := change.AppendBinary(l.scratch[:0])
	if err != nil {
		return 0, fmt.Errorf("serializing structural change to version %d: %w", newStructureVersion, err)
	}
	l.scratch = payload[:0]
	if len(payload) > encoding.MaxChangeSize {
		return 0, fmt.Errorf("%w: structural change to version %d has %d bytes, the maximum is %d", ErrConsistency, newStructureVersion, len(payload), encoding.MaxChangeSize)
	}

	txn := l.maxTxn + 1
	payloadOffset := int64(l.structuralLogSize) //nolint:gosec // offsets stay far below MaxInt64
	endOffset := payloadOffset + encoding.LengthPrefixSize + int64(len(payload))
	if err := l.grow(l.logRegion, encoding.LogSize(txn)); err != nil {
		return 0, err
	}
	if err := l.grow(l.payloadRegion, endOffset); err != nil {
		return 0, err
	}
	if err := l.grow(l.indexRegion, encoding.IndexOffset(newStructureVersion+1)); err != nil {
		return 0, err
	}

	encoding.PutRecord(l.logRegion.Bytes()[encoding.RecordOffset(txn):], encoding.StructuralChangeRecord(newStructureVersion))
	payloadBytes := l.payloadRegion.Bytes()
	encoding.Endian.PutUint32(payloadBytes[payloadOffset:], uint32(len(payload))) //nolint:gosec // bounded by MaxChangeSize
	copy(payloadBytes[payloadOffset+encoding.LengthPrefixSize:endOffset], payload)
	encoding.Endian.PutUint64(l.indexRegion.Bytes()[encoding.IndexOffset(newStructureVersion):], uint64(endOffset))

	l.pending = &pendingChange{
		structureVersion: newStructureVersion,
		offset:           uint64(endOffset),
	}
	return uint64(endOffset), nil
}

// EndMetadataChangeEntry publishes the structural change prepared by BeginMetadataChangeEntry. The structural
// bookkeeping is stored before the transaction count, so a reader which observes the new transaction also observes
// the new structure version. Returns the 1-based number of the new transaction.
func (l *TransactionLog) EndMetadataChangeEntry(newStructureVersion uint64, offset uint64) (uint64, error) {
	if err := l.checkWritable(); err != nil {
		return 0, err
	}
	if l.pending == nil {
		return 0, fmt.Errorf("%w: no structural change is pending", ErrConsistency)
	}
	if l.pending.structureVersion != newStructureVersion || l.pending.offset != offset {
		return 0, fmt.Errorf("%w: pending structural change is version %d at offset %d but got version %d at offset %d",
			ErrConsistency, l.pending.structureVersion, l.pending.offset, newStructureVersion, offset)
	}

	txn := l.maxTxn + 1
	header := l.logRegion.Bytes()
	encoding.StoreUint64(header, encoding.StructuralLogSizeOffset, offset)
	encoding.StoreUint64(header, encoding.MaxStructureVersionOffset, newStructureVersion)
	encoding.StoreUint64(header, encoding.MaxTxnOffset, txn)

	l.maxTxn = txn
	l.maxStructureVersion = newStructureVersion
	l.structuralLogSize = offset
	l.pending = nil
	StructuralChangeTotal.Inc()

	if err := l.syncPolicy.TransactionPublished(txn); err != nil {
		return txn, l.fail(err)
	}
	return txn, nil
}

// AbortMetadataChangeEntry drops the structural change prepared by BeginMetadataChangeEntry. The bytes which were
// already written are beyond the published high-water marks and get overwritten by the next append.
func (l *TransactionLog) AbortMetadataChangeEntry() {
	l.pending = nil
}

// Cursor opens a cursor over the committed transactions starting with txnLo. The cursor does not share any state
// with the writer.
func (l *TransactionLog) Cursor(txnLo uint64) (*TransactionLogCursor, error) {
	return OpenCursor(l.directory, txnLo)
}

// Sync flushes all three sequencer files to stable storage.
func (l *TransactionLog) Sync() error {
	l.regionMutex.Lock()
	defer l.regionMutex.Unlock()

	if l.closed {
		return ErrClosed
	}
	start := time.Now()
	if err := errors.Join(
		l.logRegion.Sync(),
		l.payloadRegion.Sync(),
		l.indexRegion.Sync(),
	); err != nil {
		return err
	}
	SyncTotal.Inc()
	SyncDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Close flushes according to the sync policy and releases all files. Calling Close more than once is a no-op.
func (l *TransactionLog) Close() error {
	if l.closed {
		return nil
	}
	syncErr := l.syncPolicy.Shutdown()
	closeErr := l.closeRegions()
	return errors.Join(syncErr, closeErr)
}

func (l *TransactionLog) closeRegions() error {
	l.regionMutex.Lock()
	defer l.regionMutex.Unlock()

	l.closed = true
	var errs []error
	for _, region := range []*mmap.Region{l.logRegion, l.payloadRegion, l.indexRegion} {
		if region != nil {
			errs = append(errs, region.Close())
		}
	}
	return errors.Join(errs...)
}

func (l *TransactionLog) checkWritable() error {
	if l.closed {
		return ErrClosed
	}
	if l.err != nil {
		return errors.Join(ErrWriterFailed, l.err)
	}
	return nil
}

// grow makes sure the region maps at least minSize bytes. A failure is fatal for the writer.
func (l *TransactionLog) grow(region *mmap.Region, minSize int64) error {
	if minSize <= region.Len() {
		return nil
	}

	l.regionMutex.Lock()
	defer l.regionMutex.Unlock()

	start := time.Now()
	if err := region.Grow(minSize, l.preAllocationSize); err != nil {
		return l.fail(err)
	}
	if duration := time.Since(start); duration > time.Second {
		l.logger.Warn("Growing a sequencer file was too slow.", "file", region.FilePath(), "duration", duration)
	}
	return nil
}

func (l *TransactionLog) fail(err error) error {
	l.err = err
	l.logger.Error("Sequencer writer failed, the table is not writable until reopened.", "directory", l.directory, "error", err)
	return err
}
