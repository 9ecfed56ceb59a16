package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"mcapx/internal/catalog"
	"mcapx/internal/video"
	"mcapx/internal/viz"
)

// Schema names understood by the pipeline.
const (
	schemaCompressedImage = "sensor_msgs/msg/CompressedImage"
	schemaImage           = "sensor_msgs/msg/Image"
	schemaPointCloud2     = "sensor_msgs/msg/PointCloud2"
	schemaTime            = "builtin_interfaces/msg/Time"
)

// Registration pairs one requested topic with its extractor. The registry
// is an explicit ordered list built once from the validated topic
// selection, so routing order never depends on map iteration.
type Registration struct {
	Topic string
	Ext   Extractor
}

// Options configures extractor construction.
type Options struct {
	// OutputDir is the extraction root; each topic writes into a
	// subdirectory named after it. Empty disables disk output.
	OutputDir string
	// Viz receives decoded artifacts for live visualization; nil disables.
	Viz viz.Sink
	// NewPicture builds the coded-video decoder. Nil selects the H.264
	// decoder.
	NewPicture func() (video.PictureDecoder, error)

	SpatialScale   float32
	IntensityScale float32

	Log zerolog.Logger
}

// NewRegistry validates every requested topic against the catalog and
// builds one extractor per topic, selected by schema name. Validation runs
// to completion before any extractor is constructed, so an invalid request
// leaves no side effects on disk.
func NewRegistry(requested []string, topics []catalog.Topic, opts Options) ([]Registration, error) {
	if opts.NewPicture == nil {
		opts.NewPicture = func() (video.PictureDecoder, error) { return video.NewH264Decoder() }
	}

	selection := make([]catalog.Topic, 0, len(requested))
	for _, name := range requested {
		topic, ok := catalog.Find(topics, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTopic, name)
		}
		switch topic.SchemaName {
		case schemaCompressedImage, schemaImage, schemaPointCloud2, schemaTime:
		default:
			return nil, fmt.Errorf("%w: topic %s has schema %s", ErrUnsupportedTopicFormat, name, topic.SchemaName)
		}
		selection = append(selection, topic)
	}

	regs := make([]Registration, 0, len(selection))
	for _, topic := range selection {
		outDir := ""
		if opts.OutputDir != "" {
			outDir = filepath.Join(opts.OutputDir, strings.TrimPrefix(topic.Name, "/"))
		}

		var (
			ext Extractor
			err error
		)
		switch topic.SchemaName {
		case schemaCompressedImage:
			ext, err = NewVideoExtractor(topic.Name, outDir, opts.Viz, opts.NewPicture, opts.Log)
		case schemaImage:
			ext, err = NewImageExtractor(topic.Name, outDir, opts.Viz, opts.Log)
		case schemaPointCloud2:
			ext, err = NewCloudExtractor(topic.Name, outDir, opts.Viz, opts.SpatialScale, opts.IntensityScale, opts.Log)
		case schemaTime:
			ext = NewTimestampExtractor(topic.Name, opts.Viz)
		}
		if err != nil {
			return nil, fmt.Errorf("extract: set up topic %s: %w", topic.Name, err)
		}
		regs = append(regs, Registration{Topic: topic.Name, Ext: ext})
	}
	return regs, nil
}
