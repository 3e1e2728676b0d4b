package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/audiosplice-api/internal/archive"
	"github.com/maauso/audiosplice-api/internal/audio"
	"github.com/maauso/audiosplice-api/internal/config"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "audiosplice",
		Short:         "Cut and normalize fragments of 16-bit PCM WAV recordings.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Logs go to stderr so stdout stays a clean JSON result. LOG_FORMAT and
	// LOG_LEVEL apply as they do for the server; --verbose forces debug.
	logger := func(cmd *cobra.Command) (*slog.Logger, error) {
		cfg, err := config.LoadLogging()
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		return cfg.NewLoggerTo(cmd.ErrOrStderr()), nil
	}

	root.AddCommand(
		newSpliceCmd(logger),
		newNormalizeCmd(logger),
		newServeCmd(),
	)
	return root
}

// outputFlags are shared by the processing commands.
type outputFlags struct {
	input   string
	out     string
	zipPath string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "source WAV file")
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&f.zipPath, "zip", "", "also bundle the outputs into this ZIP file")
	_ = cmd.MarkFlagRequired("input")
}

// runProcessor runs cfg on the local files named by f and prints the
// result as JSON.
func runProcessor(cmd *cobra.Command, logger *slog.Logger, f outputFlags, cfg audio.Config) error {
	p, err := audio.NewProcessor(cfg, logger)
	if err != nil {
		return err
	}
	if err := p.ValidateConfig(cfg); err != nil {
		return err
	}

	result, err := p.Process(f.input, f.out, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", audio.KindOf(err), err)
	}

	if f.zipPath != "" {
		if err := archive.Zip(result, f.zipPath); err != nil {
			return err
		}
		logger.Debug("archive written", slog.String("path", f.zipPath))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
