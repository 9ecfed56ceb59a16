package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcapx/internal/config"
	"mcapx/internal/extract"
)

func newExtractCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	var (
		input          string
		outputDir      string
		topics         []string
		spatialScale   float32
		intensityScale float32
		start, stop    string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the selected topics to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			win, err := parseWindow(start, stop)
			if err != nil {
				return err
			}

			files, cat, cleanup, err := resolveInputs(cmd.Context(), input, cfg, log)
			defer cleanup()
			if err != nil {
				return err
			}

			regs, err := extract.NewRegistry(topics, cat, extract.Options{
				OutputDir:      outputDir,
				SpatialScale:   spatialScale,
				IntensityScale: intensityScale,
				Log:            log,
			})
			if err != nil {
				return err
			}

			return extract.Run(cmd.Context(), files, regs, win, extract.RunOptions{
				ProgressTotal: progressTotal(cat, topics),
				Log:           log,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input directory or bucket URL (required)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "extraction root directory (required)")
	cmd.Flags().StringSliceVarP(&topics, "topics", "t", nil, "topics to extract (required)")
	cmd.Flags().Float32Var(&spatialScale, "point-cloud-scale", 1, "scale factor applied to point coordinates")
	cmd.Flags().Float32Var(&intensityScale, "intensity-scale", 1, "scale factor applied to point intensity")
	cmd.Flags().StringVar(&start, "start", "", "UTC start time, e.g. \"2026-01-02 15:04:05\"")
	cmd.Flags().StringVar(&stop, "stop", "", "UTC stop time, e.g. \"2026-01-02 15:04:05\"")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output-dir")
	_ = cmd.MarkFlagRequired("topics")
	return cmd
}
