package handlers

import (
	"net/http"

	"phraseapp/internal/config"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SpeechHandler proxies audio uploads to the transcription backend
type SpeechHandler struct {
	transcriptionService services.TranscriptionServiceInterface
	config               *config.Config
	logger               *observability.Logger
}

// NewSpeechHandler creates a new SpeechHandler instance
func NewSpeechHandler(transcriptionService services.TranscriptionServiceInterface, cfg *config.Config, logger *observability.Logger) *SpeechHandler {
	return &SpeechHandler{
		transcriptionService: transcriptionService,
		config:               cfg,
		logger:               logger,
	}
}

// Transcribe accepts a multipart audio upload and returns its transcription
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "transcribe")
	defer observability.FinishSpan(span, nil)

	if !h.transcriptionService.Enabled() {
		HandleAppError(c, contextutils.ErrTranscriptionUnconfigured)
		return
	}

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		HandleValidationError(c, "audio", "", "a multipart file field named 'audio' is required")
		return
	}

	maxBytes := h.config.Transcription.MaxUploadBytes
	if fileHeader.Size > maxBytes {
		HandleValidationError(c, "audio", fileHeader.Filename, "file exceeds the maximum upload size")
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		attribute.String("speech.filename", fileHeader.Filename),
		attribute.Int64("speech.size_bytes", fileHeader.Size),
	)

	file, err := fileHeader.Open()
	if err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to open uploaded file"))
		return
	}
	defer func() { _ = file.Close() }()

	contentType := fileHeader.Header.Get("Content-Type")
	text, err := h.transcriptionService.Transcribe(c.Request.Context(), file, fileHeader.Filename, contentType)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Transcription failed", err, map[string]interface{}{"user_id": userID, "filename": fileHeader.Filename})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TranscriptionResponse{Text: text})
}
