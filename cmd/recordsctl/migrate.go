package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/data"
	"github.com/localnerve/recordsdb/internal/database"
	"github.com/localnerve/recordsdb/internal/services"
	"github.com/localnerve/recordsdb/internal/store"
)

// seedFile replaces the embedded document types
var seedFile string

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON file of document types (defaults to the embedded set)")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	Long: `Run the schema migrations with the admin credentials.

Examples:
  # Migrate the database named by DB_DATABASE
  recordsctl migrate

  # Use another environment
  recordsctl migrate -f deploy/staging.env`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the document type classification",
	Long: `Insert document types that are not present yet. Existing codes are
left untouched, so the command can be repeated.

Examples:
  recordsctl seed
  recordsctl seed --file classification.json`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and authorizer connectivity",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	db, err := database.ConnectAdmin(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations complete", zap.String("database", cfg.DBDatabase))
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	raw := data.DocumentTypes
	if seedFile != "" {
		if raw, err = os.ReadFile(seedFile); err != nil {
			return err
		}
	}

	db, err := database.ConnectAdmin(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	n, err := services.SeedDocumentTypes(cmd.Context(), store.New(db, nil, logger, nil), raw)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d document types inserted\n", n)
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	result := services.HealthCheck(cmd.Context(), cfg, db, nil, logger)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !result.Healthy() {
		return fmt.Errorf("unhealthy: %s", result.ErrorMessage)
	}
	return nil
}
