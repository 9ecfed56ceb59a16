// Package viz streams decoded artifacts to a live visualization frontend.
// The pipeline treats the sink as an append-only log; implementations must
// tolerate interleaved calls from different extractors.
package viz

// Point is one visualized point with its gradient color.
type Point struct {
	X, Y, Z    float32
	R, G, B, A uint8
}

// Sink receives timestamped artifacts. t is seconds since the epoch,
// derived from the message header.
type Sink interface {
	// LogPoints logs a colored point cloud under the topic's entity path.
	LogPoints(topic string, t float64, points []Point) error
	// LogImage logs an interleaved RGB frame.
	LogImage(topic string, t float64, width, height int, rgb []byte) error
	// LogEncodedImage logs a still-image codec payload (jpeg, png, ...).
	LogEncodedImage(topic string, t float64, format string, data []byte) error
	// LogScalar logs one sample of a scalar time series keyed by topic.
	LogScalar(topic string, t float64, value float64) error
	// LogAsset logs a static scene resource (e.g. the ego vehicle model)
	// read from an injected file path.
	LogAsset(name string, path string) error
	Close() error
}
