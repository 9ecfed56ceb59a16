package main

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcapx/internal/config"
	"mcapx/internal/extract"
	"mcapx/internal/viz"
)

func newShowCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	var (
		input          string
		topics         []string
		listen         string
		scene          string
		spatialScale   float32
		intensityScale float32
		start, stop    string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Stream the selected topics to connected viewers instead of disk",
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

			sink := viz.NewWebSocketSink(listen, log)
			defer sink.Close()
			if scene != "" {
				if err := sink.LogAsset(filepath.Base(scene), scene); err != nil {
					return err
				}
			}

			regs, err := extract.NewRegistry(topics, cat, extract.Options{
				Viz:            sink,
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
	cmd.Flags().StringSliceVarP(&topics, "topics", "t", nil, "topics to stream (required)")
	cmd.Flags().StringVar(&listen, "listen", "localhost:8439", "address of the viewer websocket server")
	cmd.Flags().StringVar(&scene, "scene", "", "optional 3D asset file pushed to viewers on startup")
	cmd.Flags().Float32Var(&spatialScale, "point-cloud-scale", 1, "scale factor applied to point coordinates")
	cmd.Flags().Float32Var(&intensityScale, "intensity-scale", 1, "scale factor applied to point intensity")
	cmd.Flags().StringVar(&start, "start", "", "UTC start time, e.g. \"2026-01-02 15:04:05\"")
	cmd.Flags().StringVar(&stop, "stop", "", "UTC stop time, e.g. \"2026-01-02 15:04:05\"")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("topics")
	return cmd
}
