// Package catalog aggregates the summary sections of a set of MCAP files
// into one consolidated topic list, keyed by channel id.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/rs/zerolog"
)

var (
	ErrNoSummary    = errors.New("catalog: failed to read summary")
	ErrNoStatistics = errors.New("catalog: summary has no statistics")
)

// Topic is one recorded channel merged across all input files. MsgCount is
// nil when any contributing file did not report a count for the channel;
// once unknown it stays unknown.
type Topic struct {
	ID             uint16
	Name           string
	SchemaName     string
	SchemaEncoding string
	MsgCount       *uint64
}

func (t Topic) String() string {
	count := "Unknown"
	if t.MsgCount != nil {
		count = fmt.Sprintf("%d", *t.MsgCount)
	}
	return fmt.Sprintf("%d, %s, msgs: %s, %s, encoding: %s",
		t.ID, t.Name, count, t.SchemaName, t.SchemaEncoding)
}

// Find returns the topic with the given name, if present.
func Find(topics []Topic, name string) (Topic, bool) {
	for _, t := range topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}

// Build reads the summary of every file and merges per-channel metadata
// into one topic list, sorted by channel id. A file with an unreadable
// summary or absent statistics fails the whole call; there are no partial
// results.
func Build(files []string, log zerolog.Logger) ([]Topic, error) {
	topics := make(map[uint16]*Topic)
	for _, path := range files {
		if err := mergeFile(topics, path, log); err != nil {
			return nil, err
		}
	}

	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func mergeFile(topics map[uint16]*Topic, path string, log zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := mcap.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoSummary, path, err)
	}
	defer reader.Close()

	info, err := reader.Info()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoSummary, path, err)
	}
	if info.Statistics == nil {
		return fmt.Errorf("%w: %s", ErrNoStatistics, path)
	}

	merge(topics, info.Channels, info.Schemas, info.Statistics.ChannelMessageCounts, log)
	return nil
}

// merge folds one file's channels into the running topic map. Name and
// schema fields are last-write-wins; files are assumed to describe the same
// logical topic consistently, and a mismatch is surfaced as a warning
// rather than an error. The message count accumulates only while every
// contributing file reports one; a single missing count downgrades the
// topic to unknown for good.
func merge(topics map[uint16]*Topic, channels map[uint16]*mcap.Channel,
	schemas map[uint16]*mcap.Schema, counts map[uint16]uint64, log zerolog.Logger) {
	for id, ch := range channels {
		var schemaName, schemaEncoding string
		if schema, ok := schemas[ch.SchemaID]; ok && schema != nil {
			schemaName = schema.Name
			schemaEncoding = schema.Encoding
		}

		count, hasCount := counts[id]

		topic, seen := topics[id]
		if !seen {
			t := Topic{
				ID:             id,
				Name:           ch.Topic,
				SchemaName:     schemaName,
				SchemaEncoding: schemaEncoding,
			}
			if hasCount {
				c := count
				t.MsgCount = &c
			}
			topics[id] = &t
			continue
		}

		if topic.Name != ch.Topic || topic.SchemaName != schemaName {
			log.Warn().
				Uint16("channel", id).
				Str("have", topic.Name).
				Str("got", ch.Topic).
				Msg("channel id maps to a different topic across files")
		}
		topic.Name = ch.Topic
		topic.SchemaName = schemaName
		topic.SchemaEncoding = schemaEncoding
		if topic.MsgCount != nil && hasCount {
			*topic.MsgCount += count
		} else {
			topic.MsgCount = nil
		}
	}
}
