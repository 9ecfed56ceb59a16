// Package extract is the single-pass extraction pipeline: it routes every
// in-window message of the requested topics to a per-topic extractor and
// finalizes each extractor after the last message.
package extract

import (
	"context"
	"errors"
)

var (
	ErrInvalidTopic           = errors.New("extract: topic not found in inputs")
	ErrUnsupportedTopicFormat = errors.New("extract: topic format not supported")
	ErrInterrupted            = errors.New("extract: interrupted")
	ErrTimestampAlignment     = errors.New("extract: more decoded frames than recorded timestamps")
)

// Message is the envelope handed to an extractor for exactly one Step call.
// Data is only valid for the duration of that call.
type Message struct {
	Topic       string
	PublishTime uint64
	Data        []byte
}

// Extractor decodes all messages of one topic. Step is called once per
// in-window message in stored order; PostProcess exactly once after the
// last message, where accumulate-then-decode extractors drain their state.
type Extractor interface {
	Step(msg *Message) error
	PostProcess(ctx context.Context) error
}

// Window bounds processing by publish time, inclusive on both ends.
type Window struct {
	Start uint64
	Stop  uint64
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t uint64) bool {
	return t >= w.Start && t <= w.Stop
}

// EverythingWindow covers all representable publish times.
func EverythingWindow() Window {
	return Window{Start: 0, Stop: ^uint64(0)}
}
