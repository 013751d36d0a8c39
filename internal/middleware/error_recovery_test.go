package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "phraseapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorRecoveryMiddleware_RecoversPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorRecoveryMiddleware(nil))
	router.GET("/panic", func(_ *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestStandardizeAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *contextutils.AppError
		want int
	}{
		{"topic not found", contextutils.ErrTopicNotFound, http.StatusNotFound},
		{"settings not found", contextutils.ErrSettingsNotFound, http.StatusNotFound},
		{"phrase not found", contextutils.ErrPhraseNotFound, http.StatusNotFound},
		{"settings exist", contextutils.ErrSettingsExist, http.StatusConflict},
		{"submission pending", contextutils.ErrPhraseSubmissionPending, http.StatusConflict},
		{"topic reference invalid", contextutils.ErrTopicReferenceInvalid, http.StatusBadRequest},
		{"invalid input", contextutils.ErrInvalidInput, http.StatusBadRequest},
		{"forbidden", contextutils.ErrForbidden, http.StatusForbidden},
		{"unauthorized", contextutils.ErrUnauthorized, http.StatusUnauthorized},
		{"transcription unconfigured", contextutils.ErrTranscriptionUnconfigured, http.StatusServiceUnavailable},
		{"ai request failed", contextutils.ErrAIRequestFailed, http.StatusInternalServerError},
		{"ai provider unavailable", contextutils.ErrAIProviderUnavailable, http.StatusServiceUnavailable},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			StandardizeAppError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandleAppError_WrappedError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := contextutils.WrapErrorf(contextutils.ErrTopicNotFound, "topic %s not found", "abc")
	appErr, ok := err.(*contextutils.AppError)
	assert.True(t, ok)

	HandleAppError(c, appErr)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TOPIC_NOT_FOUND")
}
