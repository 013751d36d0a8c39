package services

import (
	"context"
	"io"

	"phraseapp/internal/config"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
)

// TranscriptionServiceInterface defines the interface for speech-to-text
type TranscriptionServiceInterface interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error)
	Enabled() bool
}

// TranscriptionService proxies audio uploads to a Whisper-compatible API
type TranscriptionService struct {
	client  *oai.Client
	cfg     *config.TranscriptionConfig
	enabled bool
	logger  *observability.Logger
}

// NewTranscriptionService creates a new transcription service. When no API
// key is configured the service stays disabled and Transcribe fails with
// ErrTranscriptionUnconfigured.
func NewTranscriptionService(cfg *config.TranscriptionConfig, logger *observability.Logger) *TranscriptionService {
	service := &TranscriptionService{
		cfg:    cfg,
		logger: logger,
	}

	if !cfg.Enabled() {
		logger.Warn(context.Background(), "Transcription disabled, no API key configured", nil)
		return service
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := oai.NewClient(opts...)
	service.client = &client
	service.enabled = true

	logger.Info(context.Background(), "Transcription service configured", map[string]interface{}{
		"model":   cfg.Model,
		"api_key": contextutils.MaskAPIKey(cfg.APIKey),
	})
	return service
}

// Enabled reports whether a speech backend is configured
func (s *TranscriptionService) Enabled() bool {
	return s.enabled
}

// Transcribe converts an audio upload to text
func (s *TranscriptionService) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (result0 string, err error) {
	ctx, span := observability.TraceSpeechFunction(ctx, "transcribe",
		attribute.String("audio.filename", filename),
		attribute.String("audio.content_type", contentType),
		attribute.String("transcription.model", s.cfg.Model),
	)
	defer observability.FinishSpan(span, &err)

	if !s.enabled {
		return "", contextutils.WrapError(contextutils.ErrTranscriptionUnconfigured, "no transcription backend configured")
	}

	transcription, err := s.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  oai.File(audio, filename, contentType),
		Model: oai.AudioModel(s.cfg.Model),
	})
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrTranscriptionFailed, "transcription request failed: %w", err)
	}

	span.SetAttributes(attribute.Int("transcription.length", len(transcription.Text)))
	return transcription.Text, nil
}
