package cloud

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Packed point records are stored in the recorder's native byte order unless
// the cloud is flagged big-endian, so the host order must be known up front.
var hostEndian binary.ByteOrder

func init() {
	switch v := *(*uint16)(unsafe.Pointer(&([]byte{0x12, 0x34}[0]))); v {
	case 0x1234:
		hostEndian = binary.BigEndian
	case 0x3412:
		hostEndian = binary.LittleEndian
	default:
		panic(fmt.Sprintf("failed to determine host endianness: %x", v))
	}
}
