package encoding

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// The published header words are stored little-endian on disk but accessed with native sized atomic operations.
// toWord converts between the on-disk representation and the native one. It is its own inverse.
func toWord(value uint64) uint64 {
	var buffer [8]byte
	Endian.PutUint64(buffer[:], value)
	return binary.NativeEndian.Uint64(buffer[:])
}

func wordPointer(buffer []byte, offset int) *uint64 {
	_ = buffer[offset+7]
	pointer := unsafe.Pointer(&buffer[offset])
	if uintptr(pointer)%8 != 0 {
		panic(fmt.Sprintf("unaligned 64-bit word at offset %d", offset))
	}
	return (*uint64)(pointer)
}

// StoreUint64 stores the value at the given offset with release semantics. Every write to the buffer which happened
// before the store is visible to a reader which observes the value through LoadUint64.
func StoreUint64(buffer []byte, offset int, value uint64) {
	atomic.StoreUint64(wordPointer(buffer, offset), toWord(value))
}

// LoadUint64 loads the value at the given offset with acquire semantics. The Go memory model guarantees the pairing
// with StoreUint64 on every architecture, weakly ordered ones included.
func LoadUint64(buffer []byte, offset int) uint64 {
	return toWord(atomic.LoadUint64(wordPointer(buffer, offset)))
}
