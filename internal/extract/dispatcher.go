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
	"github.com/schollz/progressbar/v3"
)

// RunOptions configures one dispatcher run.
type RunOptions struct {
	// ProgressTotal sizes the progress bar: the expected number of routed
	// messages, -1 for an indeterminate spinner, or 0 to disable progress
	// output entirely.
	ProgressTotal int64
	Log           zerolog.Logger
}

// Run iterates the input files in ascending path order and, within each
// file, the messages in stored order. In-window messages on registered
// topics are routed to their extractor; everything else is skipped. After
// the last message every extractor is finalized exactly once.
//
// Files are treated as one logical concatenated stream per topic: a coded
// access unit may span a file boundary, which is why extractor state lives
// across files. Cancellation is polled once per message; an in-flight Step
// is never interrupted.
func Run(ctx context.Context, files []string, regs []Registration, win Window, opts RunOptions) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	byTopic := make(map[string]Extractor, len(regs))
	for _, reg := range regs {
		byTopic[reg.Topic] = reg.Ext
	}

	var bar *progressbar.ProgressBar
	if opts.ProgressTotal != 0 {
		bar = progressbar.NewOptions64(opts.ProgressTotal,
			progressbar.OptionSetDescription("extracting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, path := range sorted {
		stop, err := runFile(ctx, path, byTopic, win, bar)
		if err != nil {
			return err
		}
		if stop {
			opts.Log.Info().Msg("stop time reached")
			break
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	// Finalization only runs on the all-succeeded path; a Step failure has
	// already aborted the whole run by now.
	for _, reg := range regs {
		if err := reg.Ext.PostProcess(ctx); err != nil {
			return fmt.Errorf("extract: finalize topic %s: %w", reg.Topic, err)
		}
	}
	return nil
}

// runFile streams one file. It reports stop=true once a message beyond the
// window's end is seen; the window is monotonic across the sorted file set,
// so no later file can contain in-window messages.
func runFile(ctx context.Context, path string, byTopic map[string]Extractor,
	win Window, bar *progressbar.ProgressBar) (stop bool, err error) {
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
		_, channel, msg, err := it.Next(buf)
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

		ext, ok := byTopic[channel.Topic]
		if !ok {
			continue
		}
		envelope := Message{
			Topic:       channel.Topic,
			PublishTime: msg.PublishTime,
			Data:        msg.Data,
		}
		if err := ext.Step(&envelope); err != nil {
			return false, fmt.Errorf("extract: topic %s at publish time %d: %w",
				channel.Topic, msg.PublishTime, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
}
