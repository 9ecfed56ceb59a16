package extract

import "mcapx/internal/viz"

// memorySink records every event for assertions.
type memorySink struct {
	points  []recordedPoints
	images  []recordedImage
	encoded []recordedEncoded
	scalars []recordedScalar
}

type recordedPoints struct {
	Topic  string
	Time   float64
	Points []viz.Point
}

type recordedImage struct {
	Topic         string
	Time          float64
	Width, Height int
	RGB           []byte
}

type recordedEncoded struct {
	Topic  string
	Time   float64
	Format string
	Data   []byte
}

type recordedScalar struct {
	Topic string
	Time  float64
	Value float64
}

func (s *memorySink) LogPoints(topic string, t float64, points []viz.Point) error {
	s.points = append(s.points, recordedPoints{topic, t, points})
	return nil
}

func (s *memorySink) LogImage(topic string, t float64, width, height int, rgb []byte) error {
	s.images = append(s.images, recordedImage{topic, t, width, height, rgb})
	return nil
}

func (s *memorySink) LogEncodedImage(topic string, t float64, format string, data []byte) error {
	s.encoded = append(s.encoded, recordedEncoded{topic, t, format, data})
	return nil
}

func (s *memorySink) LogScalar(topic string, t float64, value float64) error {
	s.scalars = append(s.scalars, recordedScalar{topic, t, value})
	return nil
}

func (s *memorySink) LogAsset(string, string) error { return nil }

func (s *memorySink) Close() error { return nil }
