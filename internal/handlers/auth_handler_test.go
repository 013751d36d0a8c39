package handlers

import (
	"net/http"
	"testing"

	"phraseapp/internal/models"
	contextutils "phraseapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSignup_Success(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("CreateUserWithPassword", mock.Anything, "maria", "maria@example.com", "password123").
		Return(testUser(), nil).Once()

	w := env.doJSON(t, http.MethodPost, "/v1/auth/signup", models.SignupRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"maria"`)
	assert.NotEmpty(t, w.Result().Cookies())
	env.users.AssertExpectations(t)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("CreateUserWithPassword", mock.Anything, "maria", "", "password123").
		Return(nil, contextutils.ErrRecordExists).Once()

	w := env.doJSON(t, http.MethodPost, "/v1/auth/signup", models.SignupRequest{
		Username: "maria",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/v1/auth/signup", models.SignupRequest{
		Username: "maria",
		Password: "short",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.users.AssertNotCalled(t, "CreateUserWithPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("AuthenticateUser", mock.Anything, "maria", "wrong-password").
		Return(nil, contextutils.ErrInvalidCredentials).Once()

	w := env.doJSON(t, http.MethodPost, "/v1/auth/login", models.LoginRequest{
		Username: "maria",
		Password: "wrong-password",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginAndStatus(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	env.users.On("GetUserByID", mock.Anything, 7).Return(testUser(), nil).Once()

	w := env.doJSON(t, http.MethodGet, "/v1/auth/status", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
	assert.Contains(t, w.Body.String(), `"maria"`)
}

func TestStatus_NoSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/v1/auth/status", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.doJSON(t, http.MethodPost, "/v1/auth/logout", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	// The cleared session no longer grants access
	cleared := w.Result().Cookies()
	w2 := env.doJSON(t, http.MethodGet, "/v1/phrases/session", nil, cleared)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
}

func TestProtectedRoute_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/v1/topics", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
