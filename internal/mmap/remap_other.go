//go:build unix && !linux

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// remap maps the file with the new length. Without mremap we need to map the file a second time and drop the old
// mapping afterward. Both mappings share the same pages, so nothing written before gets lost.
func remap(file *os.File, data []byte, length int, protection int) ([]byte, error) {
	newData, err := unix.Mmap(int(file.Fd()), 0, length, protection, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := unix.Munmap(data); err != nil {
			return nil, fmt.Errorf("unmapping the previous mapping: %w", err)
		}
	}
	return newData, nil
}
