//go:build unix

// Package mmap provides a growable memory-mapped file region. The region owns both the file and the mapping. Callers
// must never hold on to the slice returned by Bytes across a call to Grow or Remap, as the mapping might move.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/backbone81/wal-sequencer/internal/utils"
)

var (
	ErrClosed   = errors.New("memory-mapped region is closed")
	ErrReadOnly = errors.New("memory-mapped region is read-only")
)

// DefaultPreAllocationSize is the granularity a writable region grows with.
const DefaultPreAllocationSize = 64 * 1024

// Region is a memory-mapped view of the start of a file.
//
// Instances of Region are NOT safe to use concurrently. You need to provide external synchronization. Different
// regions mapping the same file can be used concurrently, as they share the same physical pages.
type Region struct {
	noCopy utils.NoCopy

	// The file backing the mapping.
	file *os.File

	// The mapped bytes. This is nil as long as nothing is mapped, because zero length mappings are not supported.
	data []byte

	// Reports if the mapping is writable. Writable regions grow the file, read-only regions only ever map what is
	// already there.
	writable bool

	closed bool
}

// OpenReadWrite opens or creates the file and maps all of it for reading and writing. The file is grown to at least
// minSize bytes.
//
// To avoid resources leaking, the returned Region needs to be closed by calling Close().
func OpenReadWrite(filePath string, minSize int64, preAllocationSize int64) (*Region, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0o664) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("opening file %q: %w", filePath, err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("reading size of file %q: %w", filePath, err), file.Close())
	}

	region := &Region{
		file:     file,
		writable: true,
	}
	size := fileInfo.Size()
	if size < minSize {
		size = alignUp(minSize, preAllocationSize)
		if err := file.Truncate(size); err != nil {
			return nil, errors.Join(fmt.Errorf("pre-allocating file %q: %w", filePath, err), file.Close())
		}
	}
	if err := region.mapLength(size); err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return region, nil
}

// OpenReadOnly opens the file for reading and maps the first length bytes. The caller is responsible for length not
// exceeding the file size.
//
// To avoid resources leaking, the returned Region needs to be closed by calling Close().
func OpenReadOnly(filePath string, length int64) (*Region, error) {
	file, err := os.Open(filePath) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("opening file %q: %w", filePath, err)
	}

	region := &Region{
		file: file,
	}
	if err := region.mapLength(length); err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return region, nil
}

// FilePath returns the path of the file backing the region.
func (r *Region) FilePath() string {
	return r.file.Name()
}

// Bytes returns the mapped bytes. The slice is invalidated by Grow, Remap and Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Len returns the number of mapped bytes.
func (r *Region) Len() int64 {
	return int64(len(r.data))
}

// FileSize returns the current size of the file backing the region, which might be bigger than the mapping.
func (r *Region) FileSize() (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	fileInfo, err := r.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("reading size of file %q: %w", r.FilePath(), err)
	}
	return fileInfo.Size(), nil
}

// ReadAt reads directly from the file, bypassing the mapping.
func (r *Region) ReadAt(buffer []byte, offset int64) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	return r.file.ReadAt(buffer, offset)
}

// Grow makes sure that at least minSize bytes are mapped. The file is extended in multiples of preAllocationSize to
// amortize the cost of remapping over many appends. Only possible for writable regions.
func (r *Region) Grow(minSize int64, preAllocationSize int64) error {
	if r.closed {
		return ErrClosed
	}
	if !r.writable {
		return ErrReadOnly
	}
	if minSize <= r.Len() {
		return nil
	}

	start := time.Now()
	newSize := alignUp(minSize, preAllocationSize)
	if err := r.file.Truncate(newSize); err != nil {
		return fmt.Errorf("growing file %q to %d bytes: %w", r.FilePath(), newSize, err)
	}
	if err := r.mapLength(newSize); err != nil {
		return err
	}
	GrowTotal.Inc()
	GrowDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Remap grows the mapping to length bytes without touching the file. Bytes mapped before stay valid under the new
// mapping. A length smaller than the current one is ignored.
func (r *Region) Remap(length int64) error {
	if r.closed {
		return ErrClosed
	}
	if length <= r.Len() {
		return nil
	}
	if err := r.mapLength(length); err != nil {
		return err
	}
	RemapTotal.Inc()
	return nil
}

// Sync flushes the mapped bytes to stable storage.
func (r *Region) Sync() error {
	if r.closed {
		return ErrClosed
	}
	if len(r.data) == 0 {
		return nil
	}
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("flushing file %q: %w", r.FilePath(), err)
	}
	return nil
}

// Close unmaps the region and closes the file. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var unmapErr error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			unmapErr = fmt.Errorf("unmapping file %q: %w", r.FilePath(), err)
		}
		r.data = nil
	}
	closeErr := r.file.Close()
	return errors.Join(unmapErr, closeErr)
}

func (r *Region) protection() int {
	if r.writable {
		return unix.PROT_READ | unix.PROT_WRITE
	}
	return unix.PROT_READ
}

func (r *Region) mapLength(length int64) error {
	if length <= 0 {
		return nil
	}
	data, err := remap(r.file, r.data, int(length), r.protection())
	if err != nil {
		return fmt.Errorf("mapping %d bytes of file %q: %w", length, r.FilePath(), err)
	}
	r.data = data
	return nil
}

// alignUp rounds value up to the next multiple of alignment.
func alignUp(value int64, alignment int64) int64 {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) / alignment * alignment
}
