package codec

import "fmt"

// Time is builtin_interfaces/msg/Time.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// Seconds returns the stamp as fractional seconds since the epoch.
func (t Time) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nanosec)*1e-9
}

// Header is std_msgs/msg/Header.
type Header struct {
	Stamp   Time
	FrameID string
}

// CompressedImage is sensor_msgs/msg/CompressedImage. Data holds one coded
// picture (e.g. one H.264 access unit) or a still-image codec payload.
type CompressedImage struct {
	Header Header
	Format string
	Data   []byte
}

// Image is sensor_msgs/msg/Image.
type Image struct {
	Header      Header
	Height      uint32
	Width       uint32
	Encoding    string
	IsBigendian uint8
	Step        uint32
	Data        []byte
}

// PointFieldType enumerates sensor_msgs/msg/PointField datatype codes.
type PointFieldType uint8

const (
	PointFieldInt8 PointFieldType = iota + 1
	PointFieldUint8
	PointFieldInt16
	PointFieldUint16
	PointFieldInt32
	PointFieldUint32
	PointFieldFloat32
	PointFieldFloat64
)

// PointField is sensor_msgs/msg/PointField.
type PointField struct {
	Name     string
	Offset   uint32
	Datatype PointFieldType
	Count    uint32
}

// PointCloud2 is sensor_msgs/msg/PointCloud2.
type PointCloud2 struct {
	Header      Header
	Height      uint32
	Width       uint32
	Fields      []PointField
	IsBigendian uint8
	PointStep   uint32
	RowStep     uint32
	Data        []byte
	IsDense     uint8
}

// NumPoints returns the declared point count.
func (pc *PointCloud2) NumPoints() int {
	return int(pc.Width) * int(pc.Height)
}

func decodeTime(r *cdrReader) (Time, error) {
	var t Time
	var err error
	if t.Sec, err = r.int32(); err != nil {
		return t, err
	}
	t.Nanosec, err = r.uint32()
	return t, err
}

func decodeHeader(r *cdrReader) (Header, error) {
	var h Header
	var err error
	if h.Stamp, err = decodeTime(r); err != nil {
		return h, err
	}
	h.FrameID, err = r.str()
	return h, err
}

// DecodeTime deserializes a builtin_interfaces/msg/Time payload.
func DecodeTime(buf []byte) (Time, error) {
	r, err := newCDRReader(buf)
	if err != nil {
		return Time{}, err
	}
	return decodeTime(r)
}

// DecodeCompressedImage deserializes a sensor_msgs/msg/CompressedImage
// payload. The returned Data aliases buf.
func DecodeCompressedImage(buf []byte) (*CompressedImage, error) {
	r, err := newCDRReader(buf)
	if err != nil {
		return nil, err
	}

	var img CompressedImage
	if img.Header, err = decodeHeader(r); err != nil {
		return nil, err
	}
	if img.Format, err = r.str(); err != nil {
		return nil, err
	}
	if img.Data, err = r.blob(); err != nil {
		return nil, err
	}
	return &img, nil
}

// DecodeImage deserializes a sensor_msgs/msg/Image payload. The returned
// Data aliases buf.
func DecodeImage(buf []byte) (*Image, error) {
	r, err := newCDRReader(buf)
	if err != nil {
		return nil, err
	}

	var img Image
	if img.Header, err = decodeHeader(r); err != nil {
		return nil, err
	}
	if img.Height, err = r.uint32(); err != nil {
		return nil, err
	}
	if img.Width, err = r.uint32(); err != nil {
		return nil, err
	}
	if img.Encoding, err = r.str(); err != nil {
		return nil, err
	}
	if img.IsBigendian, err = r.uint8(); err != nil {
		return nil, err
	}
	if img.Step, err = r.uint32(); err != nil {
		return nil, err
	}
	if img.Data, err = r.blob(); err != nil {
		return nil, err
	}

	if uint64(len(img.Data)) < uint64(img.Step)*uint64(img.Height) {
		return nil, fmt.Errorf("%w: image data %d bytes, step %d x height %d",
			ErrBadLength, len(img.Data), img.Step, img.Height)
	}
	return &img, nil
}

// DecodePointCloud2 deserializes a sensor_msgs/msg/PointCloud2 payload and
// validates its layout invariants. The returned Data aliases buf.
func DecodePointCloud2(buf []byte) (*PointCloud2, error) {
	r, err := newCDRReader(buf)
	if err != nil {
		return nil, err
	}

	var pc PointCloud2
	if pc.Header, err = decodeHeader(r); err != nil {
		return nil, err
	}
	if pc.Height, err = r.uint32(); err != nil {
		return nil, err
	}
	if pc.Width, err = r.uint32(); err != nil {
		return nil, err
	}

	numFields, err := r.uint32()
	if err != nil {
		return nil, err
	}
	pc.Fields = make([]PointField, 0, numFields)
	for i := uint32(0); i < numFields; i++ {
		var f PointField
		if f.Name, err = r.str(); err != nil {
			return nil, err
		}
		if f.Offset, err = r.uint32(); err != nil {
			return nil, err
		}
		dt, err := r.uint8()
		if err != nil {
			return nil, err
		}
		f.Datatype = PointFieldType(dt)
		if f.Count, err = r.uint32(); err != nil {
			return nil, err
		}
		pc.Fields = append(pc.Fields, f)
	}

	if pc.IsBigendian, err = r.uint8(); err != nil {
		return nil, err
	}
	if pc.PointStep, err = r.uint32(); err != nil {
		return nil, err
	}
	if pc.RowStep, err = r.uint32(); err != nil {
		return nil, err
	}
	if pc.Data, err = r.blob(); err != nil {
		return nil, err
	}
	if pc.IsDense, err = r.uint8(); err != nil {
		return nil, err
	}

	if uint64(len(pc.Data)) < uint64(pc.RowStep)*uint64(pc.Height) {
		return nil, fmt.Errorf("%w: cloud data %d bytes, row step %d x height %d",
			ErrBadLength, len(pc.Data), pc.RowStep, pc.Height)
	}
	return &pc, nil
}
