package extract

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"mcapx/internal/codec"
	"mcapx/internal/imaging"
	"mcapx/internal/video"
	"mcapx/internal/viz"
)

// decodeGraceUnits is how many decoded pictures must have been produced
// before a failing access unit is logged as suspicious rather than written
// off as codec warm-up. Failing units are skipped either way: coded streams
// legitimately contain non-picture units.
const decodeGraceUnits = 8

// VideoExtractor accumulates the coded bytes of a CompressedImage topic
// across all files and messages, then drains the whole stream through a
// picture decoder during finalization. Still-image payloads (jpeg, png)
// are written per message instead, as they need no accumulation.
type VideoExtractor struct {
	topic      string
	outDir     string
	frameDir   string
	sink       viz.Sink
	newPicture func() (video.PictureDecoder, error)
	log        zerolog.Logger

	stream []byte
	stamps []uint64
}

// NewVideoExtractor builds the extractor for one topic. outDir == ""
// disables disk output.
func NewVideoExtractor(topic, outDir string, sink viz.Sink,
	newPicture func() (video.PictureDecoder, error), log zerolog.Logger) (*VideoExtractor, error) {
	frameDir := ""
	if outDir != "" {
		frameDir = filepath.Join(outDir, "frames")
		if err := os.MkdirAll(frameDir, 0o755); err != nil {
			return nil, fmt.Errorf("create frame directory: %w", err)
		}
	}
	return &VideoExtractor{
		topic:      topic,
		outDir:     outDir,
		frameDir:   frameDir,
		sink:       sink,
		newPicture: newPicture,
		log:        log,
	}, nil
}

func (e *VideoExtractor) Step(msg *Message) error {
	payload, err := codec.Decompress(msg.Data)
	if err != nil {
		return err
	}
	img, err := codec.DecodeCompressedImage(payload)
	if err != nil {
		return err
	}

	if img.Format != "h264" {
		return e.stepStill(msg, img)
	}

	// One coded access unit may decode to zero or one frame, so the stamp
	// list aligns with emitted frames during finalization, not with input
	// messages.
	e.stream = append(e.stream, img.Data...)
	e.stamps = append(e.stamps, msg.PublishTime)
	return nil
}

// stepStill writes a still-image payload directly; there is nothing to
// accumulate or drain for formats the downstream viewer decodes itself.
func (e *VideoExtractor) stepStill(msg *Message, img *codec.CompressedImage) error {
	if e.sink != nil {
		if err := e.sink.LogEncodedImage(e.topic, img.Header.Stamp.Seconds(), img.Format, img.Data); err != nil {
			return err
		}
	}
	if e.outDir == "" {
		return nil
	}
	name := fmt.Sprintf("%d-%d.%s", img.Header.Stamp.Sec, img.Header.Stamp.Nanosec, img.Format)
	if err := os.WriteFile(filepath.Join(e.outDir, name), img.Data, 0o644); err != nil {
		return fmt.Errorf("write still image: %w", err)
	}
	return nil
}

// PostProcess drains the accumulated stream: write the raw bitstream, split
// it into access units, decode each and write one image file per produced
// frame, named by the frame-aligned publish time.
func (e *VideoExtractor) PostProcess(ctx context.Context) error {
	if len(e.stream) == 0 {
		return nil
	}

	if e.outDir != "" {
		if err := os.WriteFile(filepath.Join(e.outDir, "raw.h264"), e.stream, 0o644); err != nil {
			return fmt.Errorf("write raw bitstream: %w", err)
		}
	}

	dec, err := e.newPicture()
	if err != nil {
		return err
	}
	defer dec.Close()

	frameIdx := 0
	for _, unit := range video.SplitNALUnits(e.stream) {
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		img, err := dec.Decode(unit)
		if err != nil {
			if frameIdx < decodeGraceUnits {
				e.log.Debug().Err(err).Msg("decoder warm-up, skipping unit")
			} else {
				e.log.Warn().Err(err).Uint8("nal_type", video.NALType(unit)).Msg("skipping undecodable unit")
			}
			continue
		}
		if img == nil {
			continue
		}

		if frameIdx >= len(e.stamps) {
			return fmt.Errorf("%w: frame %d, %d timestamps", ErrTimestampAlignment, frameIdx, len(e.stamps))
		}
		stamp := e.stamps[frameIdx]
		frameIdx++

		if e.sink != nil {
			w, h, rgb := imaging.FlattenRGB(img)
			if err := e.sink.LogImage(e.topic, float64(stamp)*1e-9, w, h, rgb); err != nil {
				return err
			}
		}
		if e.frameDir != "" {
			if err := writeJPEG(filepath.Join(e.frameDir, fmt.Sprintf("%d.jpg", stamp)), img); err != nil {
				return err
			}
		}
	}
	e.log.Info().Str("topic", e.topic).Int("frames", frameIdx).Msg("video stream drained")
	return nil
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		return fmt.Errorf("encode frame %s: %w", path, err)
	}
	return nil
}
