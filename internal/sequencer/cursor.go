//go:build unix

package sequencer

import (
	"errors"
	"fmt"

	"github.com/backbone81/wal-sequencer/internal/encoding"
	"github.com/backbone81/wal-sequencer/internal/mmap"
	"github.com/backbone81/wal-sequencer/internal/utils"
)

// TransactionLogCursor iterates the committed transactions of a sequencer log. It maps the log read-only and follows
// the writer by growing its mapping whenever the published transaction count increases. A cursor which returned false
// from Next() returns true again once the writer has committed more transactions.
//
// Instances of TransactionLogCursor are NOT safe to use concurrently. Every reader should open its own cursor.
type TransactionLogCursor struct {
	noCopy utils.NoCopy

	// The read-only mapping of the sequencer log, covering the header and txnCount records.
	region *mmap.Region

	// The number of transactions covered by the mapping.
	txnCount uint64

	// The transaction the cursor is positioned on. Zero or the transaction before the first requested one, as long as
	// Next() did not succeed.
	txn uint64

	// Reports if the cursor is positioned on a record.
	positioned bool

	// The error of the last call to Next().
	err error
}

// TransactionLogCursorValue is the value returned by the TransactionLogCursor.
type TransactionLogCursorValue struct {
	// The 1-based number of the transaction.
	Txn uint64

	encoding.Record
}

// OpenCursor opens a cursor over the sequencer log in the given directory. The first call to Next() positions the
// cursor on txnLo. txnLo may be beyond the most recent transaction, the cursor then waits for the writer to catch up.
// Transactions are 1-based, a txnLo of zero is the same as one.
//
// To avoid resources leaking, the returned TransactionLogCursor needs to be closed by calling Close().
func OpenCursor(directory string, txnLo uint64) (*TransactionLogCursor, error) {
	cursor, err := openCursor(logFilePath(directory), txnLo)
	if err != nil {
		return nil, fmt.Errorf("opening a cursor on the sequencer in %q: %w", directory, err)
	}
	return cursor, nil
}

func openCursor(filePath string, txnLo uint64) (*TransactionLogCursor, error) {
	region, err := mmap.OpenReadOnly(filePath, 0)
	if err != nil {
		return nil, err
	}
	cursor := &TransactionLogCursor{
		region: region,
		txn:    max(txnLo, 1) - 1,
	}

	header, err := loadHeader(region)
	if err != nil {
		return nil, errors.Join(err, region.Close())
	}
	if err := cursor.remap(header.MaxTxn); err != nil {
		return nil, errors.Join(err, region.Close())
	}
	return cursor, nil
}

// Next moves the cursor to the next committed transaction. When it returns true, Err() returns nil and Value()
// contains valid data. When it returns false, either all committed transactions have been consumed and Err() is nil,
// or remapping failed and Err() contains the error. Next never blocks waiting for the writer, polling is up to the
// caller.
func (c *TransactionLogCursor) Next() bool {
	if c.region == nil {
		c.err = ErrClosed
		return false
	}
	c.err = nil

	if c.txn < c.txnCount {
		c.txn++
		c.positioned = true
		return true
	}

	// We consumed everything we have mapped. Check if the writer made progress since and extend our mapping to cover
	// the new records. The acquire load of the transaction count makes sure the records below it are complete.
	newTxnCount := encoding.LoadUint64(c.region.Bytes(), encoding.MaxTxnOffset)
	if newTxnCount <= c.txnCount {
		return false
	}
	if err := c.remap(newTxnCount); err != nil {
		c.err = err
		return false
	}
	if c.txn < c.txnCount {
		c.txn++
		c.positioned = true
		return true
	}
	return false
}

// loadHeader maps the header of the sequencer log read-only and loads the published fields with acquire semantics.
func loadHeader(region *mmap.Region) (encoding.Header, error) {
	// The header needs to be there before it can be mapped. Mapping beyond the end of the file would result in a bus
	// error on access instead of an error we could report.
	fileSize, err := region.FileSize()
	if err != nil {
		return encoding.Header{}, err
	}
	if fileSize < encoding.HeaderSize {
		return encoding.Header{}, fmt.Errorf("%w: the log holds %d bytes which is less than the header", ErrCorruption, fileSize)
	}
	if err := region.Remap(encoding.HeaderSize); err != nil {
		return encoding.Header{}, err
	}
	return encoding.LoadHeader(region.Bytes())
}

func (c *TransactionLogCursor) remap(txnCount uint64) error {
	requiredSize := encoding.LogSize(txnCount)
	fileSize, err := c.region.FileSize()
	if err != nil {
		return err
	}
	if fileSize < requiredSize {
		return fmt.Errorf("%w: %d transactions are published but the log holds only %d bytes", ErrCorruption, txnCount, fileSize)
	}
	if err := c.region.Remap(requiredSize); err != nil {
		return err
	}
	c.txnCount = txnCount
	return nil
}

// Value returns the transaction the cursor is positioned on. The value is only valid after a call to Next() returned
// true.
func (c *TransactionLogCursor) Value() TransactionLogCursorValue {
	value, _ := c.Current()
	return value
}

// Current returns the transaction the cursor is positioned on, or ErrNoCurrentRecord before the first successful call
// to Next().
func (c *TransactionLogCursor) Current() (TransactionLogCursorValue, error) {
	if c.region == nil {
		return TransactionLogCursorValue{}, ErrClosed
	}
	if !c.positioned {
		return TransactionLogCursorValue{}, ErrNoCurrentRecord
	}
	// Record addresses are recomputed from the mapping on every access, as remapping might have moved it.
	return TransactionLogCursorValue{
		Txn:    c.txn,
		Record: encoding.GetRecord(c.region.Bytes()[encoding.RecordOffset(c.txn):]),
	}, nil
}

// Txn returns the 1-based number of the current transaction.
func (c *TransactionLogCursor) Txn() uint64 {
	return c.Value().Txn
}

// WalID returns the WAL writer of the current transaction.
func (c *TransactionLogCursor) WalID() int32 {
	return c.Value().WalID
}

// SegmentID returns the WAL segment of the current transaction.
func (c *TransactionLogCursor) SegmentID() int32 {
	return c.Value().SegmentID
}

// SegmentTxn returns the transaction within the WAL segment of the current transaction.
func (c *TransactionLogCursor) SegmentTxn() uint64 {
	return c.Value().SegmentTxn
}

// IsStructuralChange reports if the current transaction is a structural change.
func (c *TransactionLogCursor) IsStructuralChange() bool {
	return c.Value().IsStructuralChange()
}

// StructureVersion returns the structure version the current transaction changes the table to. Only meaningful for
// structural changes.
func (c *TransactionLogCursor) StructureVersion() uint64 {
	return c.Value().SegmentTxn
}

// Err returns the error of the last call to Next(). An error is fatal for this cursor only.
func (c *TransactionLogCursor) Err() error {
	return c.err
}

// Close unmaps the log and closes the file. Calling Close more than once is a no-op.
func (c *TransactionLogCursor) Close() error {
	if c.region == nil {
		return nil
	}
	err := c.region.Close()
	c.region = nil
	c.positioned = false
	return err
}
