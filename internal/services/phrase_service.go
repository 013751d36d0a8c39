package services

import (
	"context"

	"phraseapp/internal/config"
	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// PhraseServiceInterface defines the interface for phrase generation and
// translation feedback orchestration
type PhraseServiceInterface interface {
	GeneratePhrases(ctx context.Context, user *models.User, req *models.GeneratePhrasesRequest) ([]models.Phrase, error)
	GenerateFeedback(ctx context.Context, user *models.User, req *models.FeedbackRequest) (*models.FeedbackResponse, error)
}

// PhraseService coordinates the AI service, topics, and user settings
type PhraseService struct {
	ai       AIServiceInterface
	topics   TopicServiceInterface
	settings SettingsServiceInterface
	logger   *observability.Logger
}

// NewPhraseService creates a new phrase service
func NewPhraseService(ai AIServiceInterface, topics TopicServiceInterface, settings SettingsServiceInterface, logger *observability.Logger) *PhraseService {
	return &PhraseService{
		ai:       ai,
		topics:   topics,
		settings: settings,
		logger:   logger,
	}
}

// GeneratePhrases generates a fresh phrase batch for the request. Phrases the
// model tagged with a topic outside the requested set are dropped. Every
// returned phrase carries a server-generated UUID.
func (s *PhraseService) GeneratePhrases(ctx context.Context, user *models.User, req *models.GeneratePhrasesRequest) (result0 []models.Phrase, err error) {
	ctx, span := observability.TracePhraseFunction(ctx, "generate_phrases",
		observability.AttributeUserID(user.ID),
		observability.AttributeCount(req.Count),
		attribute.Int("topics.count", len(req.Topics)),
	)
	defer observability.FinishSpan(span, &err)

	in := &GenerationInput{
		From:         language.NormalizeToName(req.From),
		To:           language.NormalizeToName(req.To),
		Topics:       req.Topics,
		Count:        req.Count,
		Instruction:  req.Instruction,
		Level:        language.ParseLevel(req.Level),
		PhraseLength: req.PhraseLength,
	}
	if in.Count <= 0 {
		in.Count = config.GenerationCountDefault
	}
	if in.Instruction == "" {
		in.Instruction = config.DefaultInstruction
	}
	if in.PhraseLength <= 0 {
		in.PhraseLength = config.GenerationPhraseLenDefault
	}

	generated, err := s.ai.GeneratePhrases(ctx, user.Username, in)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(req.Topics))
	for _, t := range req.Topics {
		requested[t.ID] = true
	}

	phrases := make([]models.Phrase, 0, len(generated))
	dropped := 0
	for _, g := range generated {
		if !requested[g.TopicID] {
			dropped++
			continue
		}
		phrases = append(phrases, models.Phrase{
			ID:      uuid.NewString(),
			Text:    g.Text,
			TopicID: g.TopicID,
		})
	}

	if dropped > 0 {
		s.logger.Warn(ctx, "Dropped phrases tagged with unrequested topics", map[string]interface{}{
			"dropped":  dropped,
			"returned": len(phrases),
			"user_id":  user.ID,
		})
		span.SetAttributes(attribute.Int("phrases.dropped", dropped))
	}

	span.SetAttributes(attribute.Int("phrases.returned", len(phrases)))
	return phrases, nil
}

// GenerateFeedback evaluates a user translation. The language pair comes from
// the user's preferences and the level from their saved settings; both must
// exist.
func (s *PhraseService) GenerateFeedback(ctx context.Context, user *models.User, req *models.FeedbackRequest) (result0 *models.FeedbackResponse, err error) {
	ctx, span := observability.TracePhraseFunction(ctx, "generate_feedback",
		observability.AttributeUserID(user.ID),
		observability.AttributeTopicID(req.TopicID),
	)
	defer observability.FinishSpan(span, &err)

	prefs, err := s.settings.GetPreferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "language preferences are not configured")
	}

	level := language.DefaultLevel
	settings, err := s.settings.GetSettings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		level = language.ParseLevel(settings.Level)
	}

	topic, err := s.topics.GetTopic(ctx, req.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrTopicNotFound, "topic %s not found", req.TopicID)
	}

	in := &FeedbackInput{
		From:             language.NormalizeToName(prefs.From),
		To:               language.NormalizeToName(prefs.To),
		Level:            level,
		TopicTitle:       topic.Title,
		TopicDescription: topic.Description.String,
		TopicCategory:    topic.Category.String,
		TopicDifficulty:  topic.Difficulty,
		PhraseText:       req.PhraseText,
		UserTranslation:  req.UserTranslation,
	}

	result, err := s.ai.GenerateFeedback(ctx, user.Username, in)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("feedback.is_correct", result.IsCorrect))
	return &models.FeedbackResponse{
		IsCorrect:   result.IsCorrect,
		Feedback:    result.Feedback,
		Suggestions: result.Suggestions,
		TopicID:     req.TopicID,
	}, nil
}
