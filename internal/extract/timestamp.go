package extract

import (
	"context"

	"mcapx/internal/codec"
	"mcapx/internal/viz"
)

// TimestampExtractor logs builtin_interfaces/msg/Time messages as a scalar
// time series keyed by topic, timestamped by the value itself. No disk
// output.
type TimestampExtractor struct {
	topic string
	sink  viz.Sink
}

func NewTimestampExtractor(topic string, sink viz.Sink) *TimestampExtractor {
	return &TimestampExtractor{topic: topic, sink: sink}
}

func (e *TimestampExtractor) Step(msg *Message) error {
	payload, err := codec.Decompress(msg.Data)
	if err != nil {
		return err
	}
	stamp, err := codec.DecodeTime(payload)
	if err != nil {
		return err
	}

	if e.sink == nil {
		return nil
	}
	seconds := stamp.Seconds()
	return e.sink.LogScalar(e.topic, seconds, seconds)
}

func (e *TimestampExtractor) PostProcess(context.Context) error {
	return nil
}
