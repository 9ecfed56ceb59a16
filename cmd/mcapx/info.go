package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcapx/internal/config"
)

func newInfoCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "List the topics recorded across all input files",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, cleanup, err := resolveInputs(cmd.Context(), input, cfg, log)
			defer cleanup()
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input directory or bucket URL (required)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
