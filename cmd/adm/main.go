// Package main provides the main entry point for the phrase application admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"phraseapp/cmd/adm/commands"
	"phraseapp/internal/config"
	"phraseapp/internal/database"
	"phraseapp/internal/observability"
	"phraseapp/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	// Look for the config file in common locations if not set explicitly
	if os.Getenv("PHRASEAPP_CONFIG_FILE") == "" {
		defaultPaths := []string{
			"../config.yaml",
			"../../config.yaml",
			"config.yaml",
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv("PHRASEAPP_CONFIG_FILE", path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set PHRASEAPP_CONFIG_FILE environment variable: %v\n", err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logging and no telemetry for the CLI
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "phrase-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if tp, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
			if err := tp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	dbManager := database.NewManager(logger)

	// No migrations for the admin tool
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	userService := services.NewUserService(db, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Phrase Application Administration Tool",
		Long: `Phrase Application Administration Tool

A CLI tool for administering the phrase learning application.
Provides commands for user management, topic inspection, and database statistics.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.UserCommands(userService, logger, cfg.Database.URL))
	rootCmd.AddCommand(commands.TopicCommands(logger, db))
	rootCmd.AddCommand(commands.DatabaseCommands(logger, db))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
