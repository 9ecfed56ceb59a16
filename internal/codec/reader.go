package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrShortBuffer   = errors.New("codec: buffer too short")
	ErrBadLength     = errors.New("codec: declared length exceeds remaining bytes")
	ErrEncapsulation = errors.New("codec: unsupported CDR encapsulation")
)

// CDR payloads open with a 4-byte encapsulation header: a 2-byte
// representation identifier followed by 2 option bytes. Only the plain CDR
// representations (0x0000 big-endian, 0x0001 little-endian) are accepted.
const encapsulationLen = 4

// cdrReader walks a field-sequential CDR body. Primitives are aligned to
// their own size relative to the start of the body, not the buffer.
type cdrReader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

func newCDRReader(buf []byte) (*cdrReader, error) {
	if len(buf) < encapsulationLen {
		return nil, fmt.Errorf("%w: need %d-byte encapsulation header, have %d",
			ErrShortBuffer, encapsulationLen, len(buf))
	}
	if buf[0] != 0x00 || buf[1] > 0x01 {
		return nil, fmt.Errorf("%w: representation %#02x%02x", ErrEncapsulation, buf[0], buf[1])
	}

	order := binary.ByteOrder(binary.BigEndian)
	if buf[1]&0x01 == 0x01 {
		order = binary.LittleEndian
	}
	return &cdrReader{buf: buf, off: encapsulationLen, order: order}, nil
}

func (r *cdrReader) align(n int) {
	rem := (r.off - encapsulationLen) % n
	if rem != 0 {
		r.off += n - rem
	}
}

func (r *cdrReader) need(n int) error {
	if len(r.buf)-r.off < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, n, r.off, len(r.buf)-r.off)
	}
	return nil
}

func (r *cdrReader) uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *cdrReader) uint32() (uint32, error) {
	r.align(4)
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *cdrReader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

// str reads a CDR string: a u32 length that counts the trailing NUL,
// followed by the bytes themselves.
func (r *cdrReader) str() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if len(r.buf)-r.off < int(n) {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d, %d remaining",
			ErrBadLength, n, r.off, len(r.buf)-r.off)
	}
	s := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	if s[len(s)-1] == 0x00 {
		s = s[:len(s)-1]
	}
	return string(s), nil
}

// blob reads a u32-prefixed byte sequence. The returned slice aliases the
// reader's buffer and is only valid while the buffer is.
func (r *cdrReader) blob() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if len(r.buf)-r.off < int(n) {
		return nil, fmt.Errorf("%w: byte sequence of %d bytes at offset %d, %d remaining",
			ErrBadLength, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}
