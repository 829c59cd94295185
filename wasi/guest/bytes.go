//go:build wasip1

package guest

import (
	"unsafe"
)

// Buffers handed to the host, keyed by handle. They stay reachable until the
// guest takes them back.
var byteHandles = make(map[uint32][]byte)
var nextByteHandle uint32 = 1

//go:wasmexport alloc_bytes
func allocBytes(size uint32) uint64 {
	bytes := make([]byte, max(size, 1))
	handle := nextByteHandle
	nextByteHandle++
	byteHandles[handle] = bytes
	return uint64(handle)<<32 | uint64(uintptr(unsafe.Pointer(&bytes[0])))
}

//go:wasmexport free_bytes
func freeBytes(handle uint32) {
	delete(byteHandles, handle)
}

// takeBytes returns the first size bytes of a host-written buffer and
// releases the handle.
func takeBytes(handle, size uint32) []byte {
	bytes := byteHandles[handle]
	delete(byteHandles, handle)
	if uint32(len(bytes)) < size {
		return nil
	}
	return bytes[:size]
}
