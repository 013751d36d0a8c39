package services

import (
	"context"
	"database/sql"
	"testing"

	"phraseapp/internal/config"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAIService is a mock implementation of AIServiceInterface
type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) GeneratePhrases(ctx context.Context, username string, in *GenerationInput) ([]models.GeneratedPhrase, error) {
	args := m.Called(ctx, username, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GeneratedPhrase), args.Error(1)
}

func (m *MockAIService) GenerateFeedback(ctx context.Context, username string, in *FeedbackInput) (*models.FeedbackResult, error) {
	args := m.Called(ctx, username, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackResult), args.Error(1)
}

func (m *MockAIService) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAIService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTopicService is a mock implementation of TopicServiceInterface
type MockTopicService struct {
	mock.Mock
}

func (m *MockTopicService) ListTopics(ctx context.Context, userID int, query *models.TopicListQuery) ([]models.Topic, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Topic), args.Error(1)
}

func (m *MockTopicService) GetTopic(ctx context.Context, topicID string) (*models.Topic, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

func (m *MockTopicService) MissingTopicIDs(ctx context.Context, topicIDs []string) ([]string, error) {
	args := m.Called(ctx, topicIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTopicService) CreateTopic(ctx context.Context, userID int, req *models.CreateTopicRequest) (*models.Topic, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

func (m *MockTopicService) UpdateTopic(ctx context.Context, userID int, topicID string, req *models.UpdateTopicRequest) (*models.Topic, error) {
	args := m.Called(ctx, userID, topicID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

func (m *MockTopicService) DeleteTopic(ctx context.Context, userID int, topicID string, soft bool) (*models.Topic, error) {
	args := m.Called(ctx, userID, topicID, soft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

// MockSettingsService is a mock implementation of SettingsServiceInterface
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetSettings(ctx context.Context, userID int) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

func (m *MockSettingsService) CreateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

func (m *MockSettingsService) UpdateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

func (m *MockSettingsService) GetPreferences(ctx context.Context, userID int) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}

func (m *MockSettingsService) SetPreferences(ctx context.Context, userID int, from, to string) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}

func newPhraseServiceWithMocks() (*PhraseService, *MockAIService, *MockTopicService, *MockSettingsService) {
	ai := &MockAIService{}
	topics := &MockTopicService{}
	settings := &MockSettingsService{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewPhraseService(ai, topics, settings, logger), ai, topics, settings
}

func testUser() *models.User {
	return &models.User{ID: 7, Username: "maria"}
}

func TestPhraseService_GeneratePhrases_FiltersUnrequestedTopics(t *testing.T) {
	svc, ai, _, _ := newPhraseServiceWithMocks()

	requested := "11111111-1111-4111-8111-111111111111"
	adversarial := "99999999-9999-4999-8999-999999999999"

	ai.On("GeneratePhrases", mock.Anything, "maria", mock.Anything).Return([]models.GeneratedPhrase{
		{Text: "Dove si trova la stazione?", TopicID: requested},
		{Text: "Questa frase è fuori tema.", TopicID: adversarial},
		{Text: "Quanto costa il biglietto?", TopicID: requested},
		{Text: "", TopicID: ""},
	}, nil)

	req := &models.GeneratePhrasesRequest{
		From:   "it",
		To:     "en",
		Topics: []models.TopicRef{{ID: requested, Title: "Travel"}},
		Count:  4,
	}

	phrases, err := svc.GeneratePhrases(context.Background(), testUser(), req)
	require.NoError(t, err)
	require.Len(t, phrases, 2)
	for _, p := range phrases {
		assert.Equal(t, requested, p.TopicID)
		assert.NotEmpty(t, p.ID, "each phrase gets a server-generated id")
	}
	assert.NotEqual(t, phrases[0].ID, phrases[1].ID)
	ai.AssertExpectations(t)
}

func TestPhraseService_GeneratePhrases_AppliesDefaultsAndNormalizesLanguages(t *testing.T) {
	svc, ai, _, _ := newPhraseServiceWithMocks()

	var captured *GenerationInput
	ai.On("GeneratePhrases", mock.Anything, "maria", mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*GenerationInput)
		}).
		Return([]models.GeneratedPhrase{}, nil)

	req := &models.GeneratePhrasesRequest{
		From:   "it",
		To:     "en",
		Topics: []models.TopicRef{{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel"}},
	}

	phrases, err := svc.GeneratePhrases(context.Background(), testUser(), req)
	require.NoError(t, err)
	assert.Empty(t, phrases, "empty batch is success")

	require.NotNil(t, captured)
	assert.Equal(t, "Italian", captured.From)
	assert.Equal(t, "English", captured.To)
	assert.Equal(t, config.GenerationCountDefault, captured.Count)
	assert.Equal(t, config.DefaultInstruction, captured.Instruction)
	assert.Equal(t, config.GenerationPhraseLenDefault, captured.PhraseLength)
	assert.Equal(t, "B1", captured.Level.String())
}

func TestPhraseService_GeneratePhrases_PropagatesAIError(t *testing.T) {
	svc, ai, _, _ := newPhraseServiceWithMocks()

	ai.On("GeneratePhrases", mock.Anything, "maria", mock.Anything).
		Return(nil, contextutils.ErrAIRequestFailed)

	req := &models.GeneratePhrasesRequest{
		From:   "it",
		To:     "en",
		Topics: []models.TopicRef{{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel"}},
	}

	_, err := svc.GeneratePhrases(context.Background(), testUser(), req)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
}

func TestPhraseService_GenerateFeedback_Success(t *testing.T) {
	svc, ai, topics, settings := newPhraseServiceWithMocks()

	topicID := "11111111-1111-4111-8111-111111111111"
	settings.On("GetPreferences", mock.Anything, 7).Return(&models.UserPreferences{
		UserID: 7, From: "it", To: "en",
	}, nil)
	settings.On("GetSettings", mock.Anything, 7).Return(&models.UserPhrasesSettings{
		Level: "B2",
	}, nil)
	topics.On("GetTopic", mock.Anything, topicID).Return(&models.Topic{
		ID:          topicID,
		Title:       "Ordering food",
		Description: sql.NullString{String: "restaurant conversations", Valid: true},
		Category:    sql.NullString{String: "daily-life", Valid: true},
		Difficulty:  2,
	}, nil)

	var captured *FeedbackInput
	ai.On("GenerateFeedback", mock.Anything, "maria", mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*FeedbackInput)
		}).
		Return(&models.FeedbackResult{IsCorrect: true}, nil)

	req := &models.FeedbackRequest{
		TopicID:         topicID,
		PhraseText:      "Vorrei un tavolo per due.",
		UserTranslation: "I would like a table for two.",
	}

	resp, err := svc.GenerateFeedback(context.Background(), testUser(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsCorrect)
	assert.Empty(t, resp.Feedback)
	assert.Equal(t, topicID, resp.TopicID)

	require.NotNil(t, captured)
	assert.Equal(t, "Italian", captured.From)
	assert.Equal(t, "English", captured.To)
	assert.Equal(t, "B2", captured.Level.String())
	assert.Equal(t, "Ordering food", captured.TopicTitle)
	assert.Equal(t, 2, captured.TopicDifficulty)
}

func TestPhraseService_GenerateFeedback_MissingPreferences(t *testing.T) {
	svc, _, _, settings := newPhraseServiceWithMocks()

	settings.On("GetPreferences", mock.Anything, 7).Return(nil, nil)

	req := &models.FeedbackRequest{
		TopicID:         "11111111-1111-4111-8111-111111111111",
		PhraseText:      "Vorrei un tavolo per due.",
		UserTranslation: "x",
	}

	_, err := svc.GenerateFeedback(context.Background(), testUser(), req)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestPhraseService_GenerateFeedback_TopicNotFound(t *testing.T) {
	svc, _, topics, settings := newPhraseServiceWithMocks()

	settings.On("GetPreferences", mock.Anything, 7).Return(&models.UserPreferences{From: "it", To: "en"}, nil)
	settings.On("GetSettings", mock.Anything, 7).Return(nil, nil)
	topics.On("GetTopic", mock.Anything, mock.Anything).Return(nil, nil)

	req := &models.FeedbackRequest{
		TopicID:         "11111111-1111-4111-8111-111111111111",
		PhraseText:      "Vorrei un tavolo per due.",
		UserTranslation: "x",
	}

	_, err := svc.GenerateFeedback(context.Background(), testUser(), req)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrTopicNotFound))
}
