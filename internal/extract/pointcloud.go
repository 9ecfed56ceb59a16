package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mazznoer/colorgrad"
	"github.com/rs/zerolog"

	"mcapx/internal/cloud"
	"mcapx/internal/codec"
	"mcapx/internal/viz"
)

// CloudExtractor decodes PointCloud2 messages into x/y/z/intensity columns
// and emits scaled points as binary blobs, ASCII PCD records and gradient-
// colored visualization logs. Stateless across messages.
type CloudExtractor struct {
	topic          string
	outDir         string
	sink           viz.Sink
	spatialScale   float32
	intensityScale float32
	gradient       colorgrad.Gradient
	log            zerolog.Logger
}

// NewCloudExtractor builds the extractor for one topic. Zero scale factors
// default to 1. outDir == "" disables disk output.
func NewCloudExtractor(topic, outDir string, sink viz.Sink,
	spatialScale, intensityScale float32, log zerolog.Logger) (*CloudExtractor, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	if spatialScale == 0 {
		spatialScale = 1
	}
	if intensityScale == 0 {
		intensityScale = 1
	}

	// Three-stop gradient over the scaled intensity range: cold blue
	// through white to gold.
	gradient, err := colorgrad.NewGradient().
		HtmlColors("#00f", "#fff", "gold").
		Domain(0, 0.3, 0.6).
		Mode(colorgrad.BlendLinearRgb).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build intensity gradient: %w", err)
	}

	return &CloudExtractor{
		topic:          topic,
		outDir:         outDir,
		sink:           sink,
		spatialScale:   spatialScale,
		intensityScale: intensityScale,
		gradient:       gradient,
		log:            log,
	}, nil
}

func (e *CloudExtractor) Step(msg *Message) error {
	payload, err := codec.Decompress(msg.Data)
	if err != nil {
		return err
	}
	pc, err := codec.DecodePointCloud2(payload)
	if err != nil {
		return err
	}

	columns, err := cloud.Decode(pc)
	if err != nil {
		return err
	}
	required, err := cloud.Require(columns, "x", "y", "z", "intensity")
	if err != nil {
		return fmt.Errorf("topic %s: %w", e.topic, err)
	}
	xs, ys, zs, intensities := required[0], required[1], required[2], required[3]

	points := make([]cloud.Point, pc.NumPoints())
	for i := range points {
		points[i] = cloud.Point{
			X:         float32(xs.At(i)) * e.spatialScale,
			Y:         float32(ys.At(i)) * e.spatialScale,
			Z:         float32(zs.At(i)) * e.spatialScale,
			Intensity: float32(intensities.At(i)) * e.intensityScale,
		}
	}

	if e.sink != nil {
		if err := e.visualize(pc, points); err != nil {
			return err
		}
	}
	if e.outDir == "" {
		return nil
	}
	return e.dump(msg.PublishTime, pc, points)
}

func (e *CloudExtractor) visualize(pc *codec.PointCloud2, points []cloud.Point) error {
	vizPoints := make([]viz.Point, len(points))
	for i, p := range points {
		r, g, b := e.gradient.At(float64(p.Intensity)).RGB255()
		vizPoints[i] = viz.Point{X: p.X, Y: p.Y, Z: p.Z, R: r, G: g, B: b, A: 0xff}
	}
	return e.sink.LogPoints(e.topic, pc.Header.Stamp.Seconds(), vizPoints)
}

// dump writes the raw packed blob next to a structured ASCII PCD file,
// both named by publish time.
func (e *CloudExtractor) dump(publishTime uint64, pc *codec.PointCloud2, points []cloud.Point) error {
	binPath := filepath.Join(e.outDir, fmt.Sprintf("%d.bin", publishTime))
	if err := os.WriteFile(binPath, pc.Data, 0o644); err != nil {
		return fmt.Errorf("write raw cloud: %w", err)
	}

	pcdPath := filepath.Join(e.outDir, fmt.Sprintf("%d.pcd", publishTime))
	f, err := os.Create(pcdPath)
	if err != nil {
		return fmt.Errorf("create pcd file: %w", err)
	}
	defer f.Close()
	return cloud.WritePCD(f, pc.Width, pc.Height, points)
}

func (e *CloudExtractor) PostProcess(context.Context) error {
	return nil
}
