// Package main implements recordsctl, the operator CLI for recordsdb.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/logging"
)

var (
	// envFile is read before the environment; see config.Load
	envFile string
	// logLevel overrides LOG_LEVEL
	logLevel string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recordsctl",
	Short: "Operator commands for recordsdb",
	Long: `recordsctl runs maintenance tasks against the recordsdb database and
follows live collections from the command line.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "f", "", "path to the .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup loads the configuration and builds the console logger.
func setup() (*config.Config, *zap.Logger, error) {
	if envFile != "" {
		if err := os.Setenv("ENV_FILE", envFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, "console", "")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
