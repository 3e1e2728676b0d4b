package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/audiosplice-api/internal/audio"
)

func newNormalizeCmd(logger func(*cobra.Command) (*slog.Logger, error)) *cobra.Command {
	var (
		files outputFlags
		cfg   audio.NormalizeConfig
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Scale a recording so its peak reaches a target level",
		Long: `Scale a recording so its peak reaches a target level in (0, 1].

With --splices, five random 2 second clips are normalized independently
instead of the whole file.`,
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
	cmd.Flags().Float64VarP(&cfg.TargetLevel, "target", "t", 0.9, "target peak level in (0, 1]")
	cmd.Flags().BoolVar(&cfg.ApplyToSplices, "splices", false, "normalize random clips instead of the whole file")
	return cmd
}
