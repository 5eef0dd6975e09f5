package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ai_tutor/internal/app"
	"ai_tutor/internal/config"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

var (
	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ai_tutor",
	Short: "AI tutor with document retrieval and web search",
	Long: `Answers study questions from uploaded PDFs and notes, falling back to
web search or general knowledge when no document applies.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory for the vector DB (DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setenv copies a flag value into the environment before the config is
// parsed, so flags win over .env and the process environment.
func setenv(key, value string) {
	if value != "" {
		_ = os.Setenv(key, value)
	}
}

// loadConfig reads .env (optional), applies flag overrides and parses the
// environment.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	setenv("DATA_DIR", dataDir)
	setenv("LOG_LEVEL", logLevel)

	cfg := &config.Config{}
	if err := config.Init(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return cfg, nil
}

// startApp builds and initializes the tutor. Logs go to stderr so command
// output stays clean on stdout.
func startApp(ctx context.Context, m *metrics.Metrics) (*app.App, *config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: os.Stderr})

	deps, err := app.DepsFromConfig(ctx, cfg, log, m)
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.New(cfg, deps)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create app: %w", err)
	}
	if err := a.Init(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, cfg, log, nil
}
