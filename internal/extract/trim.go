package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/rs/zerolog"
)

// trimWriter wraps the output container writer and re-keys schemas and
// channels, whose ids are only unique within a single input file.
type trimWriter struct {
	w           *mcap.Writer
	nextSchema  uint16
	nextChannel uint16
	schemas     map[uint16]uint16
	channels    map[uint16]uint16
}

func newTrimWriter(w io.Writer) (*trimWriter, error) {
	writer, err := mcap.NewWriter(w, &mcap.WriterOptions{
		Chunked:     true,
		Compression: mcap.CompressionZSTD,
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create trim writer: %w", err)
	}
	if err := writer.WriteHeader(&mcap.Header{}); err != nil {
		return nil, fmt.Errorf("extract: write trim header: %w", err)
	}
	return &trimWriter{w: writer, nextSchema: 1}, nil
}

// nextFile resets the per-file id maps.
func (t *trimWriter) nextFile() {
	t.schemas = make(map[uint16]uint16)
	t.channels = make(map[uint16]uint16)
}

func (t *trimWriter) write(schema *mcap.Schema, channel *mcap.Channel, msg *mcap.Message) error {
	chID, ok := t.channels[channel.ID]
	if !ok {
		schemaID := uint16(0)
		if schema != nil {
			schemaID, ok = t.schemas[schema.ID]
			if !ok {
				schemaID = t.nextSchema
				t.nextSchema++
				out := *schema
				out.ID = schemaID
				if err := t.w.WriteSchema(&out); err != nil {
					return fmt.Errorf("extract: write schema %s: %w", schema.Name, err)
				}
				t.schemas[schema.ID] = schemaID
			}
		}

		chID = t.nextChannel
		t.nextChannel++
		out := *channel
		out.ID = chID
		out.SchemaID = schemaID
		if err := t.w.WriteChannel(&out); err != nil {
			return fmt.Errorf("extract: write channel %s: %w", channel.Topic, err)
		}
		t.channels[channel.ID] = chID
	}

	out := *msg
	out.ChannelID = chID
	if err := t.w.WriteMessage(&out); err != nil {
		return fmt.Errorf("extract: write message: %w", err)
	}
	return nil
}

// Trim copies every in-window message of the sorted input files verbatim
// into a single new container file, without decoding payloads. The writer
// is finalized even when the run is cancelled mid-stream, so a cancelled
// trim leaves a valid, merely truncated, file behind.
func Trim(ctx context.Context, files []string, outPath string, win Window, log zerolog.Logger) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("extract: create %s: %w", outPath, err)
	}
	defer f.Close()

	tw, err := newTrimWriter(f)
	if err != nil {
		return err
	}

	copyErr := func() error {
		for _, path := range sorted {
			tw.nextFile()
			stop, err := trimFile(ctx, path, tw, win)
			if err != nil {
				return err
			}
			if stop {
				log.Info().Msg("stop time reached")
				return nil
			}
		}
		return nil
	}()

	// Finalize unconditionally: an unfinished summary section would leave
	// the output unreadable, even for the messages already copied.
	if err := tw.w.Close(); err != nil && copyErr == nil {
		return fmt.Errorf("extract: finalize %s: %w", outPath, err)
	}
	return copyErr
}

func trimFile(ctx context.Context, path string, tw *trimWriter, win Window) (stop bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := mcap.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("extract: read %s: %w", path, err)
	}
	defer reader.Close()

	it, err := reader.Messages(mcap.UsingIndex(false))
	if err != nil {
		return false, fmt.Errorf("extract: stream %s: %w", path, err)
	}

	buf := make([]byte, 1024*1024)
	for {
		schema, channel, msg, err := it.Next(buf)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("extract: next message in %s: %w", path, err)
		}

		if ctx.Err() != nil {
			return false, ErrInterrupted
		}
		if msg.PublishTime < win.Start {
			continue
		}
		if msg.PublishTime > win.Stop {
			return true, nil
		}

		if err := tw.write(schema, channel, msg); err != nil {
			return false, err
		}
	}
}
