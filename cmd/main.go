package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldops/techrank/internal/config"
	"github.com/fieldops/techrank/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand once the root pre-run has
// loaded configuration and initialized logging.
type cli struct {
	cfg    *config.Config
	logger logger.Logger

	dataPath   string
	dataFormat string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "techrank",
		Short: "Ranks field-service technicians and serves their performance metrics",
		Long: `techrank loads a technician and job dataset, ranks technicians by a
selectable metric and serves rankings, comparisons and AI coaching insights
over HTTP. Running it without a subcommand starts the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.dataPath, "data", "", "dataset path (overrides data_path)")
	root.PersistentFlags().StringVar(&c.dataFormat, "format", "", "dataset format: json or sqlite (overrides data_format)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides log_level)")

	serve := newServeCmd(c)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newRankCmd(c), newGenerateCmd(c), newVerifyCmd(c))
	return root
}

// init loads configuration (defaults -> optional file -> env -> flags) and
// initializes logging.
func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dataPath != "" {
		cfg.DataPath = c.dataPath
	}
	if c.dataFormat != "" {
		cfg.DataFormat = c.dataFormat
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetFormat(cfg.LogFormat)
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return err
	}
	c.logger = logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.logger.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.cfg = cfg
	return nil
}
