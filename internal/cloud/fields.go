// Package cloud extracts typed numeric columns from the packed per-point
// binary records of a PointCloud2 and writes point-cloud artifacts.
package cloud

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"mcapx/internal/codec"
)

var (
	ErrInvalidDatatype = errors.New("cloud: invalid point field datatype")
	ErrMissingField    = errors.New("cloud: missing point field")
	ErrFieldBounds     = errors.New("cloud: field window exceeds point step")
	ErrDataBounds      = errors.New("cloud: data shorter than declared layout")
)

type elemDecodeFunc func(b []byte, order binary.ByteOrder) float64

// One entry per supported datatype code. An unknown code never silently
// defaults; it fails with ErrInvalidDatatype.
var elemDecoders = map[codec.PointFieldType]struct {
	size int
	fn   elemDecodeFunc
}{
	codec.PointFieldInt8: {1, func(b []byte, _ binary.ByteOrder) float64 {
		return float64(int8(b[0]))
	}},
	codec.PointFieldUint8: {1, func(b []byte, _ binary.ByteOrder) float64 {
		return float64(b[0])
	}},
	codec.PointFieldInt16: {2, func(b []byte, order binary.ByteOrder) float64 {
		return float64(int16(order.Uint16(b)))
	}},
	codec.PointFieldUint16: {2, func(b []byte, order binary.ByteOrder) float64 {
		return float64(order.Uint16(b))
	}},
	codec.PointFieldInt32: {4, func(b []byte, order binary.ByteOrder) float64 {
		return float64(int32(order.Uint32(b)))
	}},
	codec.PointFieldUint32: {4, func(b []byte, order binary.ByteOrder) float64 {
		return float64(order.Uint32(b))
	}},
	codec.PointFieldFloat32: {4, func(b []byte, order binary.ByteOrder) float64 {
		return float64(math.Float32frombits(order.Uint32(b)))
	}},
	codec.PointFieldFloat64: {8, func(b []byte, order binary.ByteOrder) float64 {
		return math.Float64frombits(order.Uint64(b))
	}},
}

// DatatypeSize returns the element size in bytes for a datatype code.
func DatatypeSize(t codec.PointFieldType) (int, error) {
	dec, ok := elemDecoders[t]
	if !ok {
		return 0, fmt.Errorf("%w: code %d", ErrInvalidDatatype, t)
	}
	return dec.size, nil
}

// Column holds one decoded field across all points. Values stores Count
// elements per point, point-major.
type Column struct {
	Field  codec.PointField
	Values []float64
}

// At returns the first element of the column at point index i.
func (c Column) At(i int) float64 {
	return c.Values[i*int(c.Field.Count)]
}

// Decode extracts every declared field of pc into numeric columns, keyed by
// field name. Each column is decoded in a single pass with one allocation.
func Decode(pc *codec.PointCloud2) (map[string]Column, error) {
	order := hostEndian
	if pc.IsBigendian != 0 {
		order = binary.BigEndian
	}

	numPoints := pc.NumPoints()
	pointStep := int(pc.PointStep)
	if len(pc.Data) < pointStep*numPoints {
		return nil, fmt.Errorf("%w: %d bytes for %d points of step %d",
			ErrDataBounds, len(pc.Data), numPoints, pointStep)
	}

	columns := make(map[string]Column, len(pc.Fields))
	for _, field := range pc.Fields {
		dec, ok := elemDecoders[field.Datatype]
		if !ok {
			return nil, fmt.Errorf("%w: field %q code %d", ErrInvalidDatatype, field.Name, field.Datatype)
		}
		count := int(field.Count)
		if int(field.Offset)+count*dec.size > pointStep {
			return nil, fmt.Errorf("%w: field %q offset %d count %d size %d step %d",
				ErrFieldBounds, field.Name, field.Offset, count, dec.size, pointStep)
		}

		values := make([]float64, numPoints*count)
		for i := 0; i < numPoints; i++ {
			base := pointStep*i + int(field.Offset)
			for j := 0; j < count; j++ {
				off := base + j*dec.size
				values[i*count+j] = dec.fn(pc.Data[off:off+dec.size], order)
			}
		}
		columns[field.Name] = Column{Field: field, Values: values}
	}
	return columns, nil
}

// Require looks up the named columns, failing with ErrMissingField on the
// first absent name.
func Require(columns map[string]Column, names ...string) ([]Column, error) {
	out := make([]Column, 0, len(names))
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, name)
		}
		out = append(out, col)
	}
	return out, nil
}
