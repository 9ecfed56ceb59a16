package video

import (
	"errors"
	"fmt"
	"image"

	"github.com/asticode/go-astiav"
)

// H264Decoder wraps an FFmpeg H.264 decoder behind the PictureDecoder
// interface. One instance decodes one continuous bitstream.
type H264Decoder struct {
	codecCtx *astiav.CodecContext
	pkt      *astiav.Packet
	frame    *astiav.Frame
}

// NewH264Decoder opens an FFmpeg H.264 decoder.
func NewH264Decoder() (*H264Decoder, error) {
	codec := astiav.FindDecoder(astiav.CodecIDH264)
	if codec == nil {
		return nil, errors.New("video: no h264 decoder available")
	}

	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		return nil, errors.New("video: alloc codec context failed")
	}
	if err := codecCtx.Open(codec, nil); err != nil {
		codecCtx.Free()
		return nil, fmt.Errorf("video: open h264 decoder: %w", err)
	}

	return &H264Decoder{
		codecCtx: codecCtx,
		pkt:      astiav.AllocPacket(),
		frame:    astiav.AllocFrame(),
	}, nil
}

// Decode feeds one Annex-B access unit and returns the picture it produced,
// or nil when the decoder is not yet ready to emit one.
func (d *H264Decoder) Decode(unit []byte) (image.Image, error) {
	if err := d.pkt.FromData(unit); err != nil {
		return nil, fmt.Errorf("video: packet from data: %w", err)
	}
	defer d.pkt.Unref()

	if err := d.codecCtx.SendPacket(d.pkt); err != nil {
		return nil, fmt.Errorf("video: send packet: %w", err)
	}

	if err := d.codecCtx.ReceiveFrame(d.frame); err != nil {
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return nil, nil
		}
		return nil, fmt.Errorf("video: receive frame: %w", err)
	}
	defer d.frame.Unref()

	img, err := d.frame.Data().GuessImageFormat()
	if err != nil {
		return nil, fmt.Errorf("video: guess image format: %w", err)
	}
	if err := d.frame.Data().ToImage(img); err != nil {
		return nil, fmt.Errorf("video: frame to image: %w", err)
	}
	return img, nil
}

// Close releases the decoder and its scratch buffers.
func (d *H264Decoder) Close() error {
	d.frame.Free()
	d.pkt.Free()
	d.codecCtx.Free()
	return nil
}
