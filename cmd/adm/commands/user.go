// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"phraseapp/internal/observability"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the phrase application.

Available commands:
  list           - List all users
  create         - Create a new user
  reset-password - Reset password for a specific user
  delete         - Delete a user`,
	}

	userCmd.AddCommand(listCmd(userService, logger, databaseURL))
	userCmd.AddCommand(createCmd(userService, logger))
	userCmd.AddCommand(resetPasswordCmd(userService, logger))
	userCmd.AddCommand(deleteCmd(userService, logger))

	return userCmd
}

func listCmd(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Long:  `List all users in the database with their basic information.`,
		RunE:  runListUsers(userService, logger, databaseURL),
	}
}

func createCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create [username]",
		Short: "Create a new user",
		Long:  `Create a new user. You will be prompted for the password.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runCreateUser(userService, logger, &email),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address for the new user")

	return cmd
}

func resetPasswordCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password [username]",
		Short: "Reset password for a user",
		Long:  `Reset the password for a specific user. If username is not provided, you will be prompted for it.`,
		RunE:  runResetPassword(userService, logger),
	}
}

func deleteCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [username]",
		Short: "Delete a user",
		Long:  `Delete a user and all of their saved settings and preferences.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteUser(userService, logger),
	}
}

func runListUsers(userService *services.UserService, logger *observability.Logger, databaseURL string) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Admin command diagnostics", map[string]interface{}{"config_file": os.Getenv("PHRASEAPP_CONFIG_FILE"), "database_url": maskDatabaseURL(databaseURL)})

		users, err := userService.GetAllUsers(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to get users", err, map[string]interface{}{})
			return contextutils.WrapError(err, "failed to get users")
		}

		if len(users) == 0 {
			fmt.Println("No users found in the database")
			return nil
		}

		fmt.Printf("%-5s %-20s %-30s %-12s %-12s\n", "ID", "Username", "Email", "Last Active", "Created")
		for _, user := range users {
			email := "N/A"
			if user.Email.Valid {
				email = user.Email.String
			}

			lastActive := "never"
			if user.LastActive.Valid {
				lastActive = user.LastActive.Time.Format("2006-01-02")
			}

			fmt.Printf("%-5d %-20s %-30s %-12s %-12s\n",
				user.ID,
				user.Username,
				email,
				lastActive,
				user.CreatedAt.Format("2006-01-02"),
			)
		}

		logger.Info(ctx, "Listed users", map[string]interface{}{"total": len(users)})
		return nil
	}
}

func runCreateUser(userService *services.UserService, logger *observability.Logger, email *string) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		username := args[0]

		password, err := promptPassword("Enter password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return contextutils.ErrorWithContextf("passwords do not match")
		}

		user, err := userService.CreateUserWithPassword(ctx, username, *email, password)
		if err != nil {
			logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"username": username})
			return contextutils.WrapErrorf(err, "failed to create user '%s'", username)
		}

		fmt.Printf("User '%s' created (ID: %d)\n", user.Username, user.ID)
		return nil
	}
}

func runResetPassword(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		var username string
		if len(args) > 0 {
			username = args[0]
		} else {
			fmt.Print("Enter username: ")
			if _, err := fmt.Scanln(&username); err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read username: %v", err)
			}
		}

		if username == "" {
			return contextutils.ErrorWithContextf("username is required")
		}

		newPassword, err := promptPassword("Enter new password: ")
		if err != nil {
			return err
		}
		if newPassword == "" {
			return contextutils.ErrorWithContextf("password cannot be empty")
		}

		confirmPassword, err := promptPassword("Confirm new password: ")
		if err != nil {
			return err
		}
		if newPassword != confirmPassword {
			return contextutils.ErrorWithContextf("passwords do not match")
		}

		user, err := userService.GetUserByUsername(ctx, username)
		if err != nil {
			logger.Error(ctx, "Failed to get user", err, map[string]interface{}{"username": username})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user '%s': %v", username, err)
		}
		if user == nil {
			return contextutils.ErrorWithContextf("user '%s' not found", username)
		}

		if err := userService.UpdateUserPassword(ctx, user.ID, newPassword); err != nil {
			logger.Error(ctx, "Failed to update password", err, map[string]interface{}{"username": username, "user_id": user.ID})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to update password for user '%s': %v", username, err)
		}

		fmt.Printf("Password successfully reset for user '%s' (ID: %d)\n", username, user.ID)
		return nil
	}
}

func runDeleteUser(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		username := args[0]

		user, err := userService.GetUserByUsername(ctx, username)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user '%s': %v", username, err)
		}
		if user == nil {
			return contextutils.ErrorWithContextf("user '%s' not found", username)
		}

		if err := userService.DeleteUser(ctx, user.ID); err != nil {
			logger.Error(ctx, "Failed to delete user", err, map[string]interface{}{"username": username, "user_id": user.ID})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to delete user '%s': %v", username, err)
		}

		fmt.Printf("User '%s' deleted (ID: %d)\n", username, user.ID)
		return nil
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	return string(passwordBytes), nil
}
