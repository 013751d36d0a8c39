package services

import (
	"context"
	"database/sql"
	"errors"

	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/lib/pq"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateUserWithPassword(ctx context.Context, username, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	UpdateLastActive(ctx context.Context, userID int) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID int) error
}

// UserService provides methods for user management
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

const userSelectFields = `id, username, email, password_hash, last_active, created_at, updated_at`

// NewUserService creates a new user service
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

func (s *UserService) scanUserFromRow(row *sql.Row) (result0 *models.User, err error) {
	user := &models.User{}
	err = row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.LastActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// getUserByQuery is a shared method for getting a user by any query
func (s *UserService) getUserByQuery(ctx context.Context, query string, args ...interface{}) (result0 *models.User, err error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	user, err := s.scanUserFromRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found is not an error here
		}
		return nil, contextutils.WrapError(err, "failed to query user")
	}
	return user, nil
}

// CreateUserWithPassword creates a new user with a bcrypt-hashed password
func (s *UserService) CreateUserWithPassword(ctx context.Context, username, email, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user_with_password",
		attribute.String("user.username", username),
	)
	defer observability.FinishSpan(span, &err)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	var emailValue sql.NullString
	if email != "" {
		emailValue = sql.NullString{String: email, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userSelectFields,
		username, emailValue, string(hashedPassword),
	)
	user, err := s.scanUserFromRow(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordExists, "username or email already taken")
		}
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

// GetUserByID retrieves a user by ID, returning nil when not found
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id",
		observability.AttributeUserID(id),
	)
	defer observability.FinishSpan(span, &err)

	return s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE id = $1`, id)
}

// GetUserByUsername retrieves a user by username, returning nil when not found
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_username",
		attribute.String("user.username", username),
	)
	defer observability.FinishSpan(span, &err)

	return s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE username = $1`, username)
}

// AuthenticateUser verifies user credentials and returns the user if valid
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user",
		attribute.String("user.username", username),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "user not found")
	}

	if !user.PasswordHash.Valid {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "user has no password set")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password))
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid password")
	}

	return user, nil
}

// UpdateLastActive records user activity
func (s *UserService) UpdateLastActive(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_last_active",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `UPDATE users SET last_active = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update last active")
	}
	return nil
}

// GetAllUsers returns all users ordered by username
func (s *UserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_all_users")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY username`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query users")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err = rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.LastActive, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate users")
	}

	return users, nil
}

// UpdateUserPassword replaces a user's password hash
func (s *UserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, string(hashedPassword), userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update password")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read rows affected")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", userID)
	}
	return nil
}

// DeleteUser removes a user and all dependent rows
func (s *UserService) DeleteUser(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "delete_user",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete user")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read rows affected")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", userID)
	}
	return nil
}
