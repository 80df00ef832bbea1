//go:build unix

package sequencer

import (
	"errors"
	"fmt"
	"io"

	"github.com/backbone81/wal-sequencer/internal/encoding"
	"github.com/backbone81/wal-sequencer/internal/mmap"
	"github.com/backbone81/wal-sequencer/internal/utils"
)

// TableMetadataChangeLog iterates the structural changes committed after a given structure version. The range is
// fixed when opening, changes committed afterward need a new TableMetadataChangeLog.
//
// Instances of TableMetadataChangeLog are NOT safe to use concurrently. Every reader should open its own.
type TableMetadataChangeLog[T any] struct {
	noCopy utils.NoCopy

	// The read-only mapping of the payload file, covering exactly the committed bytes at the time of opening.
	region *mmap.Region

	serializer Serializer[T]

	// The offset of the next length prefix and the end of the committed payload.
	offset    uint64
	offsetEnd uint64

	// The change returned by Value(). It is reused for every call to Next().
	change T

	// The error of the last call to Next().
	err error
}

// OpenMetadataChangeLog opens the structural changes following structureVersionLo, which means the first change
// returned is the one to structure version structureVersionLo+1. It fails with ErrConsistency if the sequencer holds
// no change after structureVersionLo. Callers should check the committed structure version first.
//
// To avoid resources leaking, the returned TableMetadataChangeLog needs to be closed by calling Close().
func OpenMetadataChangeLog[T any](directory string, structureVersionLo uint64, serializer Serializer[T]) (*TableMetadataChangeLog[T], error) {
	changeLog, err := openMetadataChangeLog(directory, structureVersionLo, serializer)
	if err != nil {
		return nil, fmt.Errorf("opening structural changes of the sequencer in %q: %w", directory, err)
	}
	return changeLog, nil
}

func openMetadataChangeLog[T any](directory string, structureVersionLo uint64, serializer Serializer[T]) (*TableMetadataChangeLog[T], error) {
	header, err := loadCommittedHeader(directory)
	if err != nil {
		return nil, err
	}

	// The index file is pre-allocated, entries beyond the committed structure version read as zero and must not be
	// trusted.
	if structureVersionLo >= header.MaxStructureVersion {
		return nil, fmt.Errorf("%w: expected structural changes after version %d but the committed structure version is %d",
			ErrConsistency, structureVersionLo, header.MaxStructureVersion)
	}
	offset, err := readIndexEntry(indexFilePath(directory), structureVersionLo)
	if err != nil {
		return nil, err
	}
	if offset >= header.StructuralLogSize {
		return nil, fmt.Errorf("%w: structure version %d ends at offset %d but only %d payload bytes are committed",
			ErrCorruption, structureVersionLo, offset, header.StructuralLogSize)
	}

	region, err := mmap.OpenReadOnly(payloadFilePath(directory), 0)
	if err != nil {
		return nil, err
	}
	fileSize, err := region.FileSize()
	if err != nil {
		return nil, errors.Join(err, region.Close())
	}
	if uint64(fileSize) < header.StructuralLogSize { //nolint:gosec // sizes are never negative
		return nil, errors.Join(
			fmt.Errorf("%w: %d payload bytes are committed but the file holds only %d", ErrCorruption, header.StructuralLogSize, fileSize),
			region.Close(),
		)
	}
	if err := region.Remap(int64(header.StructuralLogSize)); err != nil { //nolint:gosec // bounded by the file size
		return nil, errors.Join(err, region.Close())
	}

	return &TableMetadataChangeLog[T]{
		region:     region,
		serializer: serializer,
		offset:     offset,
		offsetEnd:  header.StructuralLogSize,
	}, nil
}

// loadCommittedHeader loads the header through a short-lived read-only mapping of the sequencer log. The bounds of
// the committed structural changes are only valid together with everything published before them.
func loadCommittedHeader(directory string) (encoding.Header, error) {
	region, err := mmap.OpenReadOnly(logFilePath(directory), 0)
	if err != nil {
		return encoding.Header{}, err
	}
	header, err := loadHeader(region)
	return header, errors.Join(err, region.Close())
}

// readIndexEntry reads the end offset of the given structure version from the index file.
func readIndexEntry(filePath string, structureVersion uint64) (uint64, error) {
	region, err := mmap.OpenReadOnly(filePath, 0)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = region.Close()
	}()

	var buffer [encoding.IndexEntrySize]byte
	if _, err := region.ReadAt(buffer[:], encoding.IndexOffset(structureVersion)); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: structure version %d is not in the index", ErrConsistency, structureVersion)
		}
		return 0, fmt.Errorf("reading the index entry of structure version %d: %w", structureVersion, err)
	}
	return encoding.Endian.Uint64(buffer[:]), nil
}

// HasNext reports if there are structural changes left to read.
func (c *TableMetadataChangeLog[T]) HasNext() bool {
	return c.region != nil && c.err == nil && c.offset < c.offsetEnd
}

// Next reads the next structural change. When it returns true, Err() returns nil and Value() contains valid data.
// When it returns false, either all changes have been read and Err() is nil, or the change could not be read and
// Err() contains the error.
func (c *TableMetadataChangeLog[T]) Next() bool {
	if c.region == nil {
		c.err = ErrClosed
		return false
	}
	if c.err != nil || c.offset >= c.offsetEnd {
		return false
	}
	if c.err = c.next(); c.err != nil {
		return false
	}
	return true
}

func (c *TableMetadataChangeLog[T]) next() error {
	data := c.region.Bytes()
	if c.offsetEnd-c.offset < encoding.LengthPrefixSize {
		return fmt.Errorf("%w: truncated length prefix at offset %d", ErrCorruption, c.offset)
	}
	length := uint64(encoding.Endian.Uint32(data[c.offset:]))
	if length > encoding.MaxChangeSize {
		return fmt.Errorf("%w: invalid structural change length %d at offset %d", ErrCorruption, length, c.offset)
	}
	start := c.offset + encoding.LengthPrefixSize
	end := start + length
	if end > c.offsetEnd {
		return fmt.Errorf("%w: structural change at offset %d with length %d exceeds the committed size %d", ErrCorruption, c.offset, length, c.offsetEnd)
	}
	if err := c.serializer.ReadChange(data[start:end:end], &c.change); err != nil {
		return fmt.Errorf("deserializing structural change at offset %d: %w", c.offset, err)
	}
	c.offset = end
	return nil
}

// Value returns the change read by the last successful call to Next(). The change is owned by the
// TableMetadataChangeLog and only valid until the next call to Next() or Close().
func (c *TableMetadataChangeLog[T]) Value() *T {
	return &c.change
}

// Err returns the error of the last call to Next().
func (c *TableMetadataChangeLog[T]) Err() error {
	return c.err
}

// Close unmaps the payload file and closes it. Calling Close more than once is a no-op.
func (c *TableMetadataChangeLog[T]) Close() error {
	if c.region == nil {
		return nil
	}
	err := c.region.Close()
	c.region = nil
	c.offset = 0
	c.offsetEnd = 0
	return err
}
