package sequencer

import "errors"

var (
	// ErrCorruption is returned when a length or offset read back from the files is outside sane bounds.
	ErrCorruption = errors.New("sequencer files are corrupt")

	// ErrConsistency is returned when a caller breaks an invariant of the sequencer, like skipping a structure
	// version or asking for structure versions which do not exist yet. Retrying does not help.
	ErrConsistency = errors.New("sequencer consistency violation")

	// ErrClosed is returned when using a writer or cursor after it was closed.
	ErrClosed = errors.New("sequencer is closed")

	// ErrWriterFailed is returned by a writer which hit an I/O failure before. The table is not writable until the
	// sequencer is reopened.
	ErrWriterFailed = errors.New("sequencer writer failed earlier")

	// ErrNoCurrentRecord is returned when asking a cursor for its value before a successful call to Next().
	ErrNoCurrentRecord = errors.New("cursor is not positioned on a record")
)
