package handlers

import (
	"context"
	"io"

	"phraseapp/internal/models"
	"phraseapp/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of services.UserServiceInterface
type MockUserService struct {
	mock.Mock
}

// CreateUserWithPassword mocks user creation
func (m *MockUserService) CreateUserWithPassword(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetUserByID mocks user lookup by ID
func (m *MockUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetUserByUsername mocks user lookup by username
func (m *MockUserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// AuthenticateUser mocks credential verification
func (m *MockUserService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// UpdateLastActive mocks the last-active timestamp update
func (m *MockUserService) UpdateLastActive(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// GetAllUsers mocks listing all users
func (m *MockUserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// DeleteUser mocks user deletion
func (m *MockUserService) DeleteUser(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTopicService is a mock implementation of services.TopicServiceInterface
type MockTopicService struct {
	mock.Mock
}

// ListTopics mocks topic listing
func (m *MockTopicService) ListTopics(ctx context.Context, userID int, query *models.TopicListQuery) ([]models.Topic, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Topic), args.Error(1)
}

// GetTopic mocks topic lookup
func (m *MockTopicService) GetTopic(ctx context.Context, topicID string) (*models.Topic, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

// MissingTopicIDs mocks topic reference validation
func (m *MockTopicService) MissingTopicIDs(ctx context.Context, topicIDs []string) ([]string, error) {
	args := m.Called(ctx, topicIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// CreateTopic mocks topic creation
func (m *MockTopicService) CreateTopic(ctx context.Context, userID int, req *models.CreateTopicRequest) (*models.Topic, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

// UpdateTopic mocks topic updates
func (m *MockTopicService) UpdateTopic(ctx context.Context, userID int, topicID string, req *models.UpdateTopicRequest) (*models.Topic, error) {
	args := m.Called(ctx, userID, topicID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

// DeleteTopic mocks topic deletion
func (m *MockTopicService) DeleteTopic(ctx context.Context, userID int, topicID string, soft bool) (*models.Topic, error) {
	args := m.Called(ctx, userID, topicID, soft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

// MockSettingsService is a mock implementation of services.SettingsServiceInterface
type MockSettingsService struct {
	mock.Mock
}

// GetSettings mocks settings lookup
func (m *MockSettingsService) GetSettings(ctx context.Context, userID int) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

// CreateSettings mocks settings creation
func (m *MockSettingsService) CreateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

// UpdateSettings mocks settings replacement
func (m *MockSettingsService) UpdateSettings(ctx context.Context, userID int, req *models.SaveSettingsRequest) (*models.UserPhrasesSettings, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPhrasesSettings), args.Error(1)
}

// GetPreferences mocks language pair lookup
func (m *MockSettingsService) GetPreferences(ctx context.Context, userID int) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}

// SetPreferences mocks language pair upserts
func (m *MockSettingsService) SetPreferences(ctx context.Context, userID int, from, to string) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}

// MockPhraseService is a mock implementation of services.PhraseServiceInterface
type MockPhraseService struct {
	mock.Mock
}

// GeneratePhrases mocks phrase generation
func (m *MockPhraseService) GeneratePhrases(ctx context.Context, user *models.User, req *models.GeneratePhrasesRequest) ([]models.Phrase, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Phrase), args.Error(1)
}

// GenerateFeedback mocks translation feedback
func (m *MockPhraseService) GenerateFeedback(ctx context.Context, user *models.User, req *models.FeedbackRequest) (*models.FeedbackResponse, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackResponse), args.Error(1)
}

// MockTranscriptionService is a mock implementation of services.TranscriptionServiceInterface
type MockTranscriptionService struct {
	mock.Mock
}

// Transcribe mocks the speech-to-text call
func (m *MockTranscriptionService) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	args := m.Called(ctx, audio, filename, contentType)
	return args.String(0), args.Error(1)
}

// Enabled mocks the configured check
func (m *MockTranscriptionService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// Interface conformance checks
var (
	_ services.UserServiceInterface          = (*MockUserService)(nil)
	_ services.TopicServiceInterface         = (*MockTopicService)(nil)
	_ services.SettingsServiceInterface      = (*MockSettingsService)(nil)
	_ services.PhraseServiceInterface        = (*MockPhraseService)(nil)
	_ services.TranscriptionServiceInterface = (*MockTranscriptionService)(nil)
)
