package video

import "image"

// PictureDecoder consumes one coded access unit at a time. Decode returns
// the decoded picture, or nil when the unit does not yet produce one
// (decoder warm-up, parameter sets, reordering delay). Implementations keep
// internal bitstream state and must be Closed when done.
type PictureDecoder interface {
	Decode(unit []byte) (image.Image, error)
	Close() error
}
