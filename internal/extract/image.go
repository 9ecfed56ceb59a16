package extract

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"mcapx/internal/codec"
	"mcapx/internal/imaging"
	"mcapx/internal/viz"
)

// ImageExtractor decodes raw Image messages, converting planar
// chroma-subsampled frames to interleaved RGB. Stateless across messages.
type ImageExtractor struct {
	topic  string
	outDir string
	sink   viz.Sink
	log    zerolog.Logger
}

// NewImageExtractor builds the extractor for one topic. outDir == ""
// disables disk output.
func NewImageExtractor(topic, outDir string, sink viz.Sink, log zerolog.Logger) (*ImageExtractor, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	return &ImageExtractor{topic: topic, outDir: outDir, sink: sink, log: log}, nil
}

func (e *ImageExtractor) Step(msg *Message) error {
	payload, err := codec.Decompress(msg.Data)
	if err != nil {
		return err
	}
	img, err := codec.DecodeImage(payload)
	if err != nil {
		return err
	}

	width := int(img.Width)
	height := int(img.Height)
	rgb := img.Data
	if img.Encoding == "nv12" {
		// The declared height covers the luma plane plus the packed
		// half-height chroma plane below it.
		height = int(float32(img.Height) / 1.5)
		rgb, err = imaging.NV12ToRGB(width, height, img.Data)
		if err != nil {
			return err
		}
	}

	if e.sink != nil {
		if err := e.sink.LogImage(e.topic, img.Header.Stamp.Seconds(), width, height, rgb); err != nil {
			return err
		}
	}

	if e.outDir == "" {
		return nil
	}
	binPath := filepath.Join(e.outDir, fmt.Sprintf("%d.bin", msg.PublishTime))
	if err := os.WriteFile(binPath, img.Data, 0o644); err != nil {
		return fmt.Errorf("write raw image: %w", err)
	}

	frame, err := imaging.RGBImage(width, height, rgb)
	if err != nil {
		return err
	}
	jpgPath := filepath.Join(e.outDir, fmt.Sprintf("%d.jpg", msg.PublishTime))
	f, err := os.Create(jpgPath)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, frame, nil); err != nil {
		return fmt.Errorf("encode image %s: %w", jpgPath, err)
	}
	return nil
}

func (e *ImageExtractor) PostProcess(context.Context) error {
	return nil
}
