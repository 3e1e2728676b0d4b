package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/audiosplice-api/internal/audio"
)

func newSpliceCmd(logger func(*cobra.Command) (*slog.Logger, error)) *cobra.Command {
	var (
		files outputFlags
		cfg   audio.SpliceConfig
	)

	cmd := &cobra.Command{
		Use:   "splice",
		Short: "Cut randomly positioned clips from a recording",
		Example: `  audiosplice splice --input talk.wav --out clips --duration 2 --count 3 --reverse
  audiosplice splice -i talk.wav --duration 0.5 --count 10 --zip clips.zip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger(cmd)
			if err != nil {
				return err
			}
			return runProcessor(cmd, log, files, cfg)
		},
	}

	files.register(cmd)
	cmd.Flags().Float64VarP(&cfg.Duration, "duration", "d", 1, "clip length in seconds")
	cmd.Flags().IntVarP(&cfg.Count, "count", "n", 1, "number of clips")
	cmd.Flags().BoolVarP(&cfg.Reverse, "reverse", "r", false, "reverse every clip")
	return cmd
}
