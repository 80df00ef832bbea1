package encoding

import (
	"errors"
	"fmt"
)

var (
	ErrFormatMismatch = errors.New("unsupported sequencer format version")
	ErrHeaderTooShort = errors.New("sequencer header is truncated")
)

// FormatVersion provides the currently supported format version.
const FormatVersion uint32 = 1

// Header describes the sequencer log header which is located at the start of the sequencer log file.
type Header struct {
	// The version of the file format. This allows us to evolve the layout over time. A mismatch is never migrated
	// in place. Encoded as four bytes.
	FormatVersion uint32

	// The number of committed transactions, which is also the id of the most recently committed transaction. Zero
	// means the log is empty. Encoded as eight bytes.
	MaxTxn uint64

	// The highest committed structure version. Encoded as eight bytes.
	MaxStructureVersion uint64

	// The high-water mark in bytes of the structural change payload file, valid up to MaxStructureVersion. Encoded as
	// eight bytes.
	StructuralLogSize uint64
}

// DefaultHeader is the header of a freshly initialized sequencer log.
var DefaultHeader = Header{
	FormatVersion: FormatVersion,
}

// IsEmpty reports if the header has never been written to.
func (h Header) IsEmpty() bool {
	return h == Header{}
}

// WriteHeader writes the header to the start of the given buffer and zero fills the reserved space. This must only be
// used while no reader can observe the buffer, for example when initializing a new file. Published fields of a live
// log are updated with StoreUint64.
func WriteHeader(buffer []byte, header Header) error {
	if len(buffer) < HeaderSize {
		return ErrHeaderTooShort
	}
	Endian.PutUint32(buffer[FormatVersionOffset:], header.FormatVersion)
	clear(buffer[FormatVersionOffset+4 : MaxTxnOffset])
	Endian.PutUint64(buffer[MaxTxnOffset:], header.MaxTxn)
	Endian.PutUint64(buffer[MaxStructureVersionOffset:], header.MaxStructureVersion)
	Endian.PutUint64(buffer[StructuralLogSizeOffset:], header.StructuralLogSize)
	clear(buffer[StructuralLogSizeOffset+8 : HeaderSize])
	return nil
}

// ReadHeader decodes the header from the start of the given buffer, for example one filled by reading the file.
// An error is returned when the format version does not match. A header which was never written to is accepted.
func ReadHeader(buffer []byte) (Header, error) {
	if len(buffer) < HeaderSize {
		return Header{}, ErrHeaderTooShort
	}
	result := Header{
		FormatVersion:       Endian.Uint32(buffer[FormatVersionOffset:]),
		MaxTxn:              Endian.Uint64(buffer[MaxTxnOffset:]),
		MaxStructureVersion: Endian.Uint64(buffer[MaxStructureVersionOffset:]),
		StructuralLogSize:   Endian.Uint64(buffer[StructuralLogSizeOffset:]),
	}
	if err := result.Validate(); err != nil {
		return Header{}, err
	}
	return result, nil
}

// LoadHeader is ReadHeader for a mapping which is concurrently written to. The published fields are loaded with
// acquire semantics, MaxTxn first. The buffer must be 8-byte aligned, which page aligned mappings always are.
func LoadHeader(mapped []byte) (Header, error) {
	if len(mapped) < HeaderSize {
		return Header{}, ErrHeaderTooShort
	}
	result := Header{
		FormatVersion: Endian.Uint32(mapped[FormatVersionOffset:]),
		MaxTxn:        LoadUint64(mapped, MaxTxnOffset),
	}
	result.MaxStructureVersion = LoadUint64(mapped, MaxStructureVersionOffset)
	result.StructuralLogSize = LoadUint64(mapped, StructuralLogSizeOffset)
	if err := result.Validate(); err != nil {
		return Header{}, err
	}
	return result, nil
}

// Validate makes sure the header belongs to a format this build understands.
func (h Header) Validate() error {
	if h.IsEmpty() {
		return nil
	}
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: expected %d but got %d", ErrFormatMismatch, FormatVersion, h.FormatVersion)
	}
	return nil
}
