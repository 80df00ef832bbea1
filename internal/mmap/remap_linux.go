//go:build linux

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// remap maps the file with the new length. On linux an existing mapping is resized in place or moved by the kernel,
// which avoids a window where nothing is mapped.
func remap(file *os.File, data []byte, length int, protection int) ([]byte, error) {
	if len(data) == 0 {
		return unix.Mmap(int(file.Fd()), 0, length, protection, unix.MAP_SHARED)
	}
	return unix.Mremap(data, length, unix.MREMAP_MAYMOVE)
}
