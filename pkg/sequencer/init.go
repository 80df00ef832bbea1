//go:build unix

package sequencer

import (
	intencoding "github.com/backbone81/wal-sequencer/internal/encoding"
	intsequencer "github.com/backbone81/wal-sequencer/internal/sequencer"
)

// IsInitialized reports if there is already a sequencer available in the given directory.
var IsInitialized = intsequencer.IsInitialized

// Init creates the files of an empty sequencer in the given directory.
var Init = intsequencer.Init

// ReadHeader reads a snapshot of the committed state without opening the sequencer.
var ReadHeader = intsequencer.ReadHeader

// Header is the committed state of the sequencer as stored at the start of the sequencer log.
type Header = intencoding.Header

// StructuralChangeWalID is the WAL id of transactions which are structural changes.
const StructuralChangeWalID = intencoding.StructuralChangeWalID
