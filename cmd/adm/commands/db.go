package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(logger *observability.Logger, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the phrase application.

Available commands:
  stats - Show database statistics`,
	}

	dbCmd.AddCommand(statsCmd(logger, db))

	return dbCmd
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show row counts for users, topics, settings, and preferences.`,
		RunE:  runStats(logger, db),
	}
}

func runStats(logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("PHRASEAPP_CONFIG_FILE"), "database": getDatabaseInfo(db)})

		tables := []string{"users", "topics", "user_phrases_settings", "user_preferences"}
		for _, table := range tables {
			var count int
			if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
				logger.Error(ctx, "Failed to count rows", err, map[string]interface{}{"table": table})
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to count rows in %s: %v", table, err)
			}
			fmt.Printf("%-25s %d\n", table, count)
		}

		return nil
	}
}
