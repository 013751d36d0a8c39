package commands

import (
	"context"
	"database/sql"
	"fmt"

	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/spf13/cobra"
)

// TopicCommands returns the topic inspection commands
func TopicCommands(logger *observability.Logger, db *sql.DB) *cobra.Command {
	topicCmd := &cobra.Command{
		Use:   "topic",
		Short: "Topic inspection commands",
		Long: `Topic inspection commands for the phrase application.

Available commands:
  list - List topics, including inactive ones`,
	}

	topicCmd.AddCommand(topicListCmd(logger, db))

	return topicCmd
}

func topicListCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	var includeInactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics",
		Long:  `List topics with their category, difficulty, owner, and active flag.`,
		RunE:  runListTopics(logger, db, &includeInactive),
	}

	cmd.Flags().BoolVar(&includeInactive, "all", false, "Include soft-deleted (inactive) topics")

	return cmd
}

func runListTopics(logger *observability.Logger, db *sql.DB, includeInactive *bool) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		query := `SELECT id, title, COALESCE(category, ''), difficulty, is_active, created_by_user_id
			FROM topics`
		if !*includeInactive {
			query += ` WHERE is_active = TRUE`
		}
		query += ` ORDER BY title`

		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			logger.Error(ctx, "Failed to query topics", err, map[string]interface{}{})
			return contextutils.WrapError(err, "failed to query topics")
		}
		defer func() { _ = rows.Close() }()

		count := 0
		fmt.Printf("%-38s %-30s %-15s %-5s %-8s %-6s\n", "ID", "Title", "Category", "Diff", "Active", "Owner")
		for rows.Next() {
			var (
				id, title, category string
				difficulty          int
				isActive            bool
				owner               sql.NullInt64
			)
			if err := rows.Scan(&id, &title, &category, &difficulty, &isActive, &owner); err != nil {
				return contextutils.WrapError(err, "failed to scan topic")
			}

			ownerStr := "-"
			if owner.Valid {
				ownerStr = fmt.Sprintf("%d", owner.Int64)
			}

			fmt.Printf("%-38s %-30s %-15s %-5d %-8t %-6s\n", id, title, category, difficulty, isActive, ownerStr)
			count++
		}
		if err := rows.Err(); err != nil {
			return contextutils.WrapError(err, "failed to iterate topics")
		}

		logger.Info(ctx, "Listed topics", map[string]interface{}{"total": count})
		return nil
	}
}
