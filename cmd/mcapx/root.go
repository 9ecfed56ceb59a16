package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcapx/internal/catalog"
	"mcapx/internal/config"
	"mcapx/internal/extract"
	"mcapx/internal/storage"
)

const windowLayout = "2006-01-02 15:04:05"

func newRootCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcapx",
		Short:         "Extract sensor data from MCAP recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInfoCmd(cfg, log),
		newExtractCmd(cfg, log),
		newShowCmd(cfg, log),
		newTrimCmd(cfg, log),
	)
	return root
}

// resolveInputs fetches the input set (downloading remote buckets first) and
// builds the consolidated topic catalog. The caller must run cleanup.
func resolveInputs(ctx context.Context, input string, cfg config.Config,
	log zerolog.Logger) (files []string, topics []catalog.Topic, cleanup func(), err error) {
	files, cleanup, err = storage.ResolveInput(ctx, input, cfg.S3, log)
	if err != nil {
		return nil, nil, cleanup, err
	}
	if len(files) == 0 {
		return nil, nil, cleanup, fmt.Errorf("no .mcap files found in %s", input)
	}

	topics, err = catalog.Build(files, log)
	if err != nil {
		return nil, nil, cleanup, err
	}
	for _, t := range topics {
		log.Info().Msg(t.String())
	}
	return files, topics, cleanup, nil
}

// parseWindow converts optional UTC wall-clock bounds to a publish-time
// window. Empty bounds leave that side of the window open.
func parseWindow(start, stop string) (extract.Window, error) {
	win := extract.EverythingWindow()
	if start != "" {
		t, err := time.ParseInLocation(windowLayout, start, time.UTC)
		if err != nil {
			return win, fmt.Errorf("invalid --start %q (want %q): %w", start, windowLayout, err)
		}
		win.Start = uint64(t.UnixNano())
	}
	if stop != "" {
		t, err := time.ParseInLocation(windowLayout, stop, time.UTC)
		if err != nil {
			return win, fmt.Errorf("invalid --stop %q (want %q): %w", stop, windowLayout, err)
		}
		win.Stop = uint64(t.UnixNano())
	}
	if win.Start > win.Stop {
		return win, fmt.Errorf("--start is after --stop")
	}
	return win, nil
}

// progressTotal sums the catalog counts of the selected topics. Any topic
// with an unknown count makes the total indeterminate.
func progressTotal(topics []catalog.Topic, selected []string) int64 {
	var total int64
	for _, name := range selected {
		t, ok := catalog.Find(topics, name)
		if !ok || t.MsgCount == nil {
			return -1
		}
		total += int64(*t.MsgCount)
	}
	return total
}
