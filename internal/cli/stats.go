package cli

import (
	"context"
	"io"
	"os"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewStatsCmd prints the statistics report as YAML.
func NewStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print bot statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	}
}

func runStats(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	b, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	report, err := app.NewStatsService(b.docs, logger).BotStatistics(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
