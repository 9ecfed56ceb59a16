package extract

import (
	"encoding/binary"
	"math"
)

// cdrPayload assembles little-endian CDR bodies for test fixtures.
type cdrPayload struct {
	buf []byte
}

func newCDRPayload() *cdrPayload {
	return &cdrPayload{buf: []byte{0x00, 0x01, 0x00, 0x00}}
}

func (p *cdrPayload) align(n int) {
	for (len(p.buf)-4)%n != 0 {
		p.buf = append(p.buf, 0x00)
	}
}

func (p *cdrPayload) u8(v uint8) *cdrPayload {
	p.buf = append(p.buf, v)
	return p
}

func (p *cdrPayload) u32(v uint32) *cdrPayload {
	p.align(4)
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
	return p
}

func (p *cdrPayload) f32(v float32) *cdrPayload {
	return p.u32(math.Float32bits(v))
}

func (p *cdrPayload) str(s string) *cdrPayload {
	p.u32(uint32(len(s) + 1))
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0x00)
	return p
}

func (p *cdrPayload) bytes(b []byte) *cdrPayload {
	p.u32(uint32(len(b)))
	p.buf = append(p.buf, b...)
	return p
}

func (p *cdrPayload) header(sec int32, nanosec uint32, frameID string) *cdrPayload {
	return p.u32(uint32(sec)).u32(nanosec).str(frameID)
}

func compressedImagePayload(sec int32, nanosec uint32, format string, data []byte) []byte {
	return newCDRPayload().
		header(sec, nanosec, "camera").
		str(format).
		bytes(data).
		buf
}

func imagePayload(sec int32, nanosec uint32, height, width uint32, encoding string, step uint32, data []byte) []byte {
	return newCDRPayload().
		header(sec, nanosec, "camera").
		u32(height).
		u32(width).
		str(encoding).
		u8(0).
		u32(step).
		bytes(data).
		buf
}

// pointCloudPayload packs one row of float32 x/y/z/intensity points.
func pointCloudPayload(sec int32, nanosec uint32, points [][4]float32) []byte {
	var data []byte
	for _, pt := range points {
		for _, v := range pt {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
	}

	p := newCDRPayload().
		header(sec, nanosec, "lidar").
		u32(1).                     // height
		u32(uint32(len(points))).   // width
		u32(4)                      // number of fields
	for i, name := range []string{"x", "y", "z", "intensity"} {
		p.str(name).u32(uint32(i * 4)).u8(7).u32(1) // FLOAT32
	}
	return p.u8(0). // is_bigendian
			u32(16).                       // point_step
			u32(uint32(16 * len(points))). // row_step
			bytes(data).
			u8(1). // is_dense
			buf
}

func timePayload(sec int32, nanosec uint32) []byte {
	return newCDRPayload().u32(uint32(sec)).u32(nanosec).buf
}
