package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"phraseapp/internal/config"
	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// TopicServiceInterface defines the interface for topic management
type TopicServiceInterface interface {
	ListTopics(ctx context.Context, userID int, query *models.TopicListQuery) ([]models.Topic, error)
	GetTopic(ctx context.Context, topicID string) (*models.Topic, error)
	MissingTopicIDs(ctx context.Context, topicIDs []string) ([]string, error)
	CreateTopic(ctx context.Context, userID int, req *models.CreateTopicRequest) (*models.Topic, error)
	UpdateTopic(ctx context.Context, userID int, topicID string, req *models.UpdateTopicRequest) (*models.Topic, error)
	DeleteTopic(ctx context.Context, userID int, topicID string, soft bool) (*models.Topic, error)
}

// TopicService provides topic CRUD with ownership rules
type TopicService struct {
	db     *sql.DB
	logger *observability.Logger
}

const topicSelectFields = `id, title, description, category, level, difficulty, is_active, created_by_user_id, created_at, updated_at`

// NewTopicService creates a new topic service
func NewTopicService(db *sql.DB, logger *observability.Logger) *TopicService {
	return &TopicService{
		db:     db,
		logger: logger,
	}
}

func scanTopic(scanner interface {
	Scan(dest ...interface{}) error
}) (result0 *models.Topic, err error) {
	topic := &models.Topic{}
	var createdBy sql.NullInt64
	err = scanner.Scan(
		&topic.ID, &topic.Title, &topic.Description, &topic.Category,
		&topic.Level, &topic.Difficulty, &topic.IsActive, &createdBy,
		&topic.CreatedAt, &topic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		owner := int(createdBy.Int64)
		topic.CreatedByUserID = &owner
	}
	return topic, nil
}

// ListTopics returns active topics matching the query filters. Custom topics
// owned by other users are excluded; the caller's own custom topics are
// included when includeCustom is set.
func (s *TopicService) ListTopics(ctx context.Context, userID int, query *models.TopicListQuery) (result0 []models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "list_topics",
		observability.AttributeUserID(userID),
		attribute.String("filter.category", query.Category),
		attribute.String("filter.level", query.Level),
		attribute.Int("filter.difficulty", query.Difficulty),
		attribute.Bool("filter.include_custom", query.IncludeCustom),
		attribute.Bool("filter.active_only", query.Active()),
	)
	defer observability.FinishSpan(span, &err)

	limit := query.Limit
	if limit <= 0 {
		limit = config.TopicListDefaultLimit
	}
	if limit > config.TopicListMaxLimit {
		limit = config.TopicListMaxLimit
	}

	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	if query.Active() {
		conditions = append(conditions, "is_active = TRUE")
	}

	if query.IncludeCustom {
		conditions = append(conditions, fmt.Sprintf("(created_by_user_id IS NULL OR created_by_user_id = $%d)", argIdx))
		args = append(args, userID)
		argIdx++
	} else {
		conditions = append(conditions, "created_by_user_id IS NULL")
	}

	if query.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, query.Category)
		argIdx++
	}
	if query.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", argIdx))
		args = append(args, query.Level)
		argIdx++
	}
	if query.Difficulty > 0 {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argIdx))
		args = append(args, query.Difficulty)
		argIdx++
	}

	sqlQuery := fmt.Sprintf(
		`SELECT %s FROM topics WHERE %s ORDER BY title LIMIT $%d`,
		topicSelectFields, strings.Join(conditions, " AND "), argIdx,
	)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query topics")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	topics := []models.Topic{}
	for rows.Next() {
		topic, scanErr := scanTopic(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan topic")
		}
		topics = append(topics, *topic)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate topics")
	}

	span.SetAttributes(attribute.Int("topics.count", len(topics)))
	return topics, nil
}

// GetTopic retrieves a topic by ID, returning nil when not found
func (s *TopicService) GetTopic(ctx context.Context, topicID string) (result0 *models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "get_topic",
		observability.AttributeTopicID(topicID),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+topicSelectFields+` FROM topics WHERE id = $1`, topicID)
	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, contextutils.WrapError(err, "failed to query topic")
	}
	return topic, nil
}

// GetTopicsByIDs retrieves the topics for the given IDs. Missing IDs are
// simply absent from the result.
func (s *TopicService) GetTopicsByIDs(ctx context.Context, topicIDs []string) (result0 []models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "get_topics_by_ids",
		attribute.Int("topics.requested", len(topicIDs)),
	)
	defer observability.FinishSpan(span, &err)

	if len(topicIDs) == 0 {
		return []models.Topic{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+topicSelectFields+` FROM topics WHERE id = ANY($1)`,
		pq.Array(topicIDs),
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query topics")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	topics := []models.Topic{}
	for rows.Next() {
		topic, scanErr := scanTopic(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan topic")
		}
		topics = append(topics, *topic)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate topics")
	}

	span.SetAttributes(attribute.Int("topics.found", len(topics)))
	return topics, nil
}

// MissingTopicIDs returns the subset of topicIDs that do not exist
func (s *TopicService) MissingTopicIDs(ctx context.Context, topicIDs []string) (result0 []string, err error) {
	topics, err := s.GetTopicsByIDs(ctx, topicIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(topics))
	for _, t := range topics {
		found[t.ID] = true
	}

	missing := []string{}
	for _, id := range topicIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// CreateTopic creates a custom topic owned by the given user
func (s *TopicService) CreateTopic(ctx context.Context, userID int, req *models.CreateTopicRequest) (result0 *models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "create_topic",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = 1
	}

	var description, category sql.NullString
	if req.Description != "" {
		description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.Category != "" {
		category = sql.NullString{String: req.Category, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO topics (id, title, description, category, level, difficulty, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+topicSelectFields,
		uuid.NewString(), req.Title, description, category,
		language.ParseLevel(req.Level).String(), difficulty, userID,
	)
	topic, err := scanTopic(row)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create topic")
	}

	s.logger.Info(ctx, "Topic created", map[string]interface{}{
		"topic_id": topic.ID,
		"user_id":  userID,
	})
	return topic, nil
}

// UpdateTopic applies a partial update after checking ownership
func (s *TopicService) UpdateTopic(ctx context.Context, userID int, topicID string, req *models.UpdateTopicRequest) (result0 *models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "update_topic",
		observability.AttributeUserID(userID),
		observability.AttributeTopicID(topicID),
	)
	defer observability.FinishSpan(span, &err)

	topic, err := s.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrTopicNotFound, "topic %s not found", topicID)
	}
	if !topic.EditableBy(userID) {
		return nil, contextutils.WrapErrorf(contextutils.ErrForbidden, "topic %s is owned by another user", topicID)
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	argIdx := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *req.Title)
		argIdx++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, sql.NullString{String: *req.Description, Valid: *req.Description != ""})
		argIdx++
	}
	if req.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, sql.NullString{String: *req.Category, Valid: *req.Category != ""})
		argIdx++
	}
	if req.Level != nil {
		sets = append(sets, fmt.Sprintf("level = $%d", argIdx))
		args = append(args, language.ParseLevel(*req.Level).String())
		argIdx++
	}
	if req.Difficulty != nil {
		sets = append(sets, fmt.Sprintf("difficulty = $%d", argIdx))
		args = append(args, *req.Difficulty)
		argIdx++
	}
	if req.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *req.IsActive)
		argIdx++
	}

	sqlQuery := fmt.Sprintf(
		`UPDATE topics SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argIdx, topicSelectFields,
	)
	args = append(args, topicID)

	row := s.db.QueryRowContext(ctx, sqlQuery, args...)
	updated, err := scanTopic(row)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update topic")
	}

	return updated, nil
}

// DeleteTopic deactivates (soft) or removes (hard) a topic after checking
// ownership. The affected topic is returned either way.
func (s *TopicService) DeleteTopic(ctx context.Context, userID int, topicID string, soft bool) (result0 *models.Topic, err error) {
	ctx, span := observability.TraceTopicFunction(ctx, "delete_topic",
		observability.AttributeUserID(userID),
		observability.AttributeTopicID(topicID),
		attribute.Bool("delete.soft", soft),
	)
	defer observability.FinishSpan(span, &err)

	topic, err := s.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrTopicNotFound, "topic %s not found", topicID)
	}
	if !topic.EditableBy(userID) {
		return nil, contextutils.WrapErrorf(contextutils.ErrForbidden, "topic %s is owned by another user", topicID)
	}

	if soft {
		row := s.db.QueryRowContext(ctx,
			`UPDATE topics SET is_active = FALSE, updated_at = NOW() WHERE id = $1 RETURNING `+topicSelectFields,
			topicID,
		)
		deactivated, scanErr := scanTopic(row)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to deactivate topic")
		}
		return deactivated, nil
	}

	if _, err = s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, topicID); err != nil {
		return nil, contextutils.WrapError(err, "failed to delete topic")
	}
	return topic, nil
}
