package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcapx/internal/config"
	"mcapx/internal/extract"
)

func newTrimCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	var (
		input       string
		output      string
		start, stop string
	)

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Copy the in-window messages of all inputs into one new file",
		RunE: func(cmd *cobra.Command, args []string) error {
			win, err := parseWindow(start, stop)
			if err != nil {
				return err
			}

			files, _, cleanup, err := resolveInputs(cmd.Context(), input, cfg, log)
			defer cleanup()
			if err != nil {
				return err
			}

			return extract.Trim(cmd.Context(), files, output, win, log)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input directory or bucket URL (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output .mcap path (required)")
	cmd.Flags().StringVar(&start, "start", "", "UTC start time, e.g. \"2026-01-02 15:04:05\"")
	cmd.Flags().StringVar(&stop, "stop", "", "UTC stop time, e.g. \"2026-01-02 15:04:05\"")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
