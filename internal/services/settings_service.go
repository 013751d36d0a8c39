package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SettingsServiceInterface defines the interface for per-user phrase settings
// and language pair preferences
type SettingsServiceInterface interface {
	GetSettings(ctx context.Context, userID int) (*models.UserPhrasesSettings, error)
	CreateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error)
	UpdateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error)
	GetPreferences(ctx context.Context, userID int) (*models.UserPreferences, error)
	SetPreferences(ctx context.Context, userID int, from, to string) (*models.UserPreferences, error)
}

// SettingsService stores per-user phrase generation settings
type SettingsService struct {
	db     *sql.DB
	topics TopicServiceInterface
	logger *observability.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *sql.DB, topics TopicServiceInterface, logger *observability.Logger) *SettingsService {
	return &SettingsService{
		db:     db,
		topics: topics,
		logger: logger,
	}
}

// dedupeIDs removes duplicate IDs while preserving order
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// validateTopicIDs fails with the list of unknown IDs when any referenced
// topic does not exist
func (s *SettingsService) validateTopicIDs(ctx context.Context, topicIDs []string) (err error) {
	missing, err := s.topics.MissingTopicIDs(ctx, topicIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return contextutils.WrapErrorf(contextutils.ErrTopicReferenceInvalid, "unknown topic ids: %s", strings.Join(missing, ", "))
	}
	return nil
}

// loadTopicIDs loads the join rows for a settings record
func (s *SettingsService) loadTopicIDs(ctx context.Context, settingsID string) (result0 []string, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_id FROM user_phrases_settings_topics WHERE settings_id = $1 ORDER BY topic_id`,
		settingsID,
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query settings topics")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	topicIDs := []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan topic id")
		}
		topicIDs = append(topicIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate topic ids")
	}
	return topicIDs, nil
}

// GetSettings retrieves the user's saved settings, returning nil when absent
func (s *SettingsService) GetSettings(ctx context.Context, userID int) (result0 *models.UserPhrasesSettings, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "get_settings",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	settings := &models.UserPhrasesSettings{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, count, instruction, level, phrase_length, created_at, updated_at
		FROM user_phrases_settings WHERE user_id = $1`, userID,
	).Scan(
		&settings.ID, &settings.UserID, &settings.Count, &settings.Instruction,
		&settings.Level, &settings.PhraseLength, &settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, contextutils.WrapError(err, "failed to query settings")
	}

	settings.TopicIDs, err = s.loadTopicIDs(ctx, settings.ID)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// CreateSettings saves settings for a user that has none yet
func (s *SettingsService) CreateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (result0 *models.UserPhrasesSettings, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "create_settings",
		observability.AttributeUserID(userID),
		attribute.Int("topics.count", len(req.TopicIDs)),
	)
	defer observability.FinishSpan(span, &err)

	existing, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrSettingsExist, "settings already exist for user %d", userID)
	}

	topicIDs := dedupeIDs(req.TopicIDs)
	if err = s.validateTopicIDs(ctx, topicIDs); err != nil {
		return nil, err
	}

	level := string(language.ParseLevel(req.Level))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	settings := &models.UserPhrasesSettings{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_phrases_settings (id, user_id, count, instruction, level, phrase_length)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, count, instruction, level, phrase_length, created_at, updated_at`,
		uuid.NewString(), userID, req.Count, req.Instruction, level, req.PhraseLength,
	).Scan(
		&settings.ID, &settings.UserID, &settings.Count, &settings.Instruction,
		&settings.Level, &settings.PhraseLength, &settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert settings")
	}

	if err = s.insertTopicLinks(ctx, tx, settings.ID, topicIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit settings")
	}

	settings.TopicIDs = topicIDs
	return settings, nil
}

// UpdateSettings replaces the settings of a user that already has some. The
// topic links are replaced wholesale inside the same transaction.
func (s *SettingsService) UpdateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (result0 *models.UserPhrasesSettings, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "update_settings",
		observability.AttributeUserID(userID),
		attribute.Int("topics.count", len(req.TopicIDs)),
	)
	defer observability.FinishSpan(span, &err)

	existing, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrSettingsNotFound, "no settings for user %d", userID)
	}

	topicIDs := dedupeIDs(req.TopicIDs)
	if err = s.validateTopicIDs(ctx, topicIDs); err != nil {
		return nil, err
	}

	level := string(language.ParseLevel(req.Level))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	settings := &models.UserPhrasesSettings{}
	err = tx.QueryRowContext(ctx, `
		UPDATE user_phrases_settings
		SET count = $1, instruction = $2, level = $3, phrase_length = $4, updated_at = NOW()
		WHERE user_id = $5
		RETURNING id, user_id, count, instruction, level, phrase_length, created_at, updated_at`,
		req.Count, req.Instruction, level, req.PhraseLength, userID,
	).Scan(
		&settings.ID, &settings.UserID, &settings.Count, &settings.Instruction,
		&settings.Level, &settings.PhraseLength, &settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update settings")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_phrases_settings_topics WHERE settings_id = $1`, settings.ID); err != nil {
		return nil, contextutils.WrapError(err, "failed to clear settings topics")
	}
	if err = s.insertTopicLinks(ctx, tx, settings.ID, topicIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit settings")
	}

	// Re-read the links so the response reflects what was stored
	settings.TopicIDs, err = s.loadTopicIDs(ctx, settings.ID)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) insertTopicLinks(ctx context.Context, tx *sql.Tx, settingsID string, topicIDs []string) (err error) {
	for _, topicID := range topicIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO user_phrases_settings_topics (settings_id, topic_id) VALUES ($1, $2)`,
			settingsID, topicID,
		); err != nil {
			return contextutils.WrapError(err, "failed to insert settings topic link")
		}
	}
	return nil
}

// GetPreferences retrieves the user's language pair, returning nil when absent
func (s *SettingsService) GetPreferences(ctx context.Context, userID int) (result0 *models.UserPreferences, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "get_preferences",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	prefs := &models.UserPreferences{}
	err = s.db.QueryRowContext(ctx, `
		SELECT user_id, from_language, to_language, created_at, updated_at
		FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&prefs.UserID, &prefs.From, &prefs.To, &prefs.CreatedAt, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, contextutils.WrapError(err, "failed to query preferences")
	}
	return prefs, nil
}

// SetPreferences upserts the user's language pair
func (s *SettingsService) SetPreferences(ctx context.Context, userID int, from, to string) (result0 *models.UserPreferences, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "set_preferences",
		observability.AttributeUserID(userID),
		observability.AttributeLanguagePair(from, to),
	)
	defer observability.FinishSpan(span, &err)

	if !contextutils.IsValidLanguage(from) || !contextutils.IsValidLanguage(to) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid language pair %q -> %q", from, to)
	}

	prefs := &models.UserPreferences{}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_preferences (user_id, from_language, to_language)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET from_language = EXCLUDED.from_language, to_language = EXCLUDED.to_language, updated_at = NOW()
		RETURNING user_id, from_language, to_language, created_at, updated_at`,
		userID, from, to,
	).Scan(&prefs.UserID, &prefs.From, &prefs.To, &prefs.CreatedAt, &prefs.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to upsert preferences")
	}
	return prefs, nil
}
