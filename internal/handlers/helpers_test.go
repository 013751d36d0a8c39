package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"phraseapp/internal/config"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	"phraseapp/internal/phrasecache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testEnv wires a router with mocked services for handler tests
type testEnv struct {
	router        *gin.Engine
	users         *MockUserService
	topics        *MockTopicService
	settings      *MockSettingsService
	phrases       *MockPhraseService
	transcription *MockTranscriptionService
	store         *phrasecache.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.SessionSecret = "test-secret"
	cfg.Server.Debug = true
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Transcription.MaxUploadBytes = config.MaxTranscriptionUploadBytes
	cfg.IsTest = true

	env := &testEnv{
		users:         new(MockUserService),
		topics:        new(MockTopicService),
		settings:      new(MockSettingsService),
		phrases:       new(MockPhraseService),
		transcription: new(MockTranscriptionService),
		store:         phrasecache.NewStore(),
	}

	logger := observability.NewLogger(&cfg.OpenTelemetry)
	env.router = NewRouter(cfg, env.users, env.topics, env.settings, env.phrases, env.transcription, env.store, logger)
	return env
}

func testUser() *models.User {
	return &models.User{ID: 7, Username: "maria"}
}

// login performs a real login request against the router and returns the
// session cookies to attach to subsequent requests.
func (e *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()

	e.users.On("AuthenticateUser", mock.Anything, "maria", "password123").Return(testUser(), nil).Once()
	e.users.On("UpdateLastActive", mock.Anything, 7).Return(nil).Maybe()

	body, err := json.Marshal(models.LoginRequest{Username: "maria", Password: "password123"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// doJSON performs a JSON request with the given session cookies
func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	e.router.ServeHTTP(w, req)
	return w
}
