//go:build unix

package sequencer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/backbone81/wal-sequencer/internal/encoding"
)

const (
	// LogFileName is the name of the sequencer log file inside the table directory.
	LogFileName = "_txnlog"

	// PayloadFileName is the name of the structural change payload file inside the table directory.
	PayloadFileName = "_txnlog.meta.d"

	// IndexFileName is the name of the structural change index file inside the table directory.
	IndexFileName = "_txnlog.meta.i"
)

func logFilePath(directory string) string {
	return path.Join(directory, LogFileName)
}

func payloadFilePath(directory string) string {
	return path.Join(directory, PayloadFileName)
}

func indexFilePath(directory string) string {
	return path.Join(directory, IndexFileName)
}

// IsInitialized reports if there is already a sequencer available in the given directory.
func IsInitialized(directory string) (bool, error) {
	for _, filePath := range []string{logFilePath(directory), payloadFilePath(directory), indexFilePath(directory)} {
		if _, err := os.Stat(filePath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("checking for file %q: %w", filePath, err)
		}
	}
	return true, nil
}

// Init creates the files of an empty sequencer in the given directory. It is a no-op for a directory which already
// holds a sequencer.
func Init(directory string, options ...WriterOption) error {
	transactionLog, err := Open(directory, options...)
	if err != nil {
		return err
	}
	return transactionLog.Close()
}

// ReadHeader reads a snapshot of the sequencer header without mapping the file.
func ReadHeader(directory string) (encoding.Header, error) {
	filePath := logFilePath(directory)
	file, err := os.Open(filePath) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return encoding.Header{}, fmt.Errorf("opening file %q: %w", filePath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var buffer [encoding.HeaderSize]byte
	if _, err := io.ReadFull(file, buffer[:]); err != nil {
		return encoding.Header{}, fmt.Errorf("reading header of file %q: %w", filePath, err)
	}
	header, err := encoding.ReadHeader(buffer[:])
	if err != nil {
		return encoding.Header{}, fmt.Errorf("reading header of file %q: %w", filePath, err)
	}
	return header, nil
}
