package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"phraseapp/internal/config"
	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// JSON Schema definitions used with the 'grammar' field on OpenAI-compatible
// requests. Providers that don't support grammar fall back to prompt-based
// structure guidance (see SupportsGrammarField).
const (
	// PhraseBatchSchema constrains generation output to phrase/topic pairs
	PhraseBatchSchema = `{
		"type": "object",
		"properties": {
			"phrases": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"text": {"type": "string"},
						"topicId": {"type": "string"}
					},
					"required": ["text", "topicId"]
				}
			}
		},
		"required": ["phrases"]
	}`

	// FeedbackSchema constrains translation feedback output
	FeedbackSchema = `{
		"type": "object",
		"properties": {
			"isCorrect": {"type": "boolean"},
			"feedback": {"type": "string"},
			"suggestions": {"type": "array", "items": {"type": "string"}, "maxItems": 3}
		},
		"required": ["isCorrect"]
	}`
)

// GenerationInput carries everything the generation prompt needs. From and To
// are language names, not codes.
type GenerationInput struct {
	From         string
	To           string
	Topics       []models.TopicRef
	Count        int
	Instruction  string
	Level        language.Level
	PhraseLength int
}

// FeedbackInput carries everything the feedback prompt needs
type FeedbackInput struct {
	From             string
	To               string
	Level            language.Level
	TopicTitle       string
	TopicDescription string
	TopicCategory    string
	TopicDifficulty  int
	PhraseText       string
	UserTranslation  string
}

// AIServiceInterface defines the interface for LLM-backed phrase operations
type AIServiceInterface interface {
	GeneratePhrases(ctx context.Context, username string, in *GenerationInput) ([]models.GeneratedPhrase, error)
	GenerateFeedback(ctx context.Context, username string, in *FeedbackInput) (*models.FeedbackResult, error)
	TestConnection(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ConcurrencyStats provides metrics about AI request concurrency
type ConcurrencyStats struct {
	ActiveRequests  int            `json:"active_requests"`
	MaxConcurrent   int            `json:"max_concurrent"`
	QueuedRequests  int            `json:"queued_requests"`
	TotalRequests   int64          `json:"total_requests"`
	UserActiveCount map[string]int `json:"user_active_count"`
	MaxPerUser      int            `json:"max_per_user"`
}

// AIService generates phrases and translation feedback using OpenAI-compatible APIs
type AIService struct {
	httpClient *http.Client
	debug      bool
	cfg        *config.Config

	// Template management
	templateManager *AITemplateManager

	// Concurrency control
	globalSemaphore chan struct{} // Limits total concurrent requests
	maxConcurrent   int           // Maximum concurrent requests globally
	maxPerUser      int           // Maximum concurrent requests per user

	// Per-user concurrency tracking
	userRequestCount map[string]int // Username -> active request count
	concurrencyMu    sync.RWMutex   // Protects user maps

	// Metrics
	totalRequests  int64        // Total requests processed
	activeRequests int          // Current active requests
	statsMu        sync.RWMutex // Protects stats

	// Observability
	logger *observability.Logger

	// Shutdown control
	shutdownCtx context.Context
	shutdownMu  sync.RWMutex
}

// NewAIService creates a new AI service instance
func NewAIService(cfg *config.Config, logger *observability.Logger) *AIService {
	templateManager, err := NewAITemplateManager()
	if err != nil {
		logger.Error(context.Background(), "Failed to create template manager", err, map[string]interface{}{})
		panic(err) // Use panic for fatal errors in initialization
	}

	// Use a timeout slightly less than AIRequestTimeout to allow context cancellation
	httpClient := &http.Client{
		Timeout: config.AIRequestTimeout - 5*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	maxConcurrent := cfg.Server.MaxAIConcurrent
	maxPerUser := cfg.Server.MaxAIPerUser

	service := &AIService{
		httpClient:       httpClient,
		debug:            cfg.Server.Debug,
		cfg:              cfg,
		templateManager:  templateManager,
		globalSemaphore:  make(chan struct{}, maxConcurrent),
		maxConcurrent:    maxConcurrent,
		maxPerUser:       maxPerUser,
		userRequestCount: make(map[string]int),
		shutdownCtx:      context.Background(),
		logger:           logger,
	}

	logger.Info(context.Background(), "AI service configured", map[string]interface{}{
		"provider": cfg.AI.Provider,
		"model":    cfg.AI.Model,
		"api_key":  contextutils.MaskAPIKey(cfg.AI.APIKey),
	})

	return service
}

// Shutdown gracefully shuts down the AI service and cleans up resources
func (s *AIService) Shutdown(ctx context.Context) error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	shutdownCtx, cancel := context.WithCancel(ctx)
	s.shutdownCtx = shutdownCtx
	defer cancel()

	timeout := config.AIShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	// Wait for active requests to complete
	ticker := time.NewTicker(config.AIShutdownPollInterval)
	defer ticker.Stop()

	for i := 0; i < int(timeout/config.AIShutdownPollInterval); i++ {
		s.statsMu.RLock()
		active := s.activeRequests
		s.statsMu.RUnlock()

		if active == 0 {
			break
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}

	s.concurrencyMu.Lock()
	s.userRequestCount = make(map[string]int)
	s.concurrencyMu.Unlock()

	s.logger.Info(ctx, "AI service shutdown completed")
	return nil
}

// isShutdown checks if the service is shutting down
func (s *AIService) isShutdown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	select {
	case <-s.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// OpenAIRequest represents a request to the OpenAI-compatible API
type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Grammar     string    `json:"grammar,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Message represents a chat message in the API request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponse represents a response from the OpenAI-compatible API
type OpenAIResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice represents a choice in the API response
type Choice struct {
	Message Message `json:"message"`
}

// APIError represents an error response from the API
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// phraseBatchPayload mirrors PhraseBatchSchema
type phraseBatchPayload struct {
	Phrases []models.GeneratedPhrase `json:"phrases"`
}

// buildGenerationPrompt renders the phrase generation prompt
func (s *AIService) buildGenerationPrompt(in *GenerationInput) (result0 string, err error) {
	topics := make([]PromptTopic, 0, len(in.Topics))
	parts := make([]string, 0, len(in.Topics))
	for _, t := range in.Topics {
		topics = append(topics, PromptTopic{ID: t.ID, Title: t.Title, Description: t.Description})
		if t.Description != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", t.Title, t.Description))
		} else {
			parts = append(parts, t.Title)
		}
	}

	minWords := int(math.Round(float64(in.PhraseLength) * 0.8))
	if minWords < 1 {
		minWords = 1
	}
	maxWords := int(math.Round(float64(in.PhraseLength) * 1.2))

	data := AITemplateData{
		From:             in.From,
		To:               in.To,
		Count:            in.Count,
		Level:            in.Level.String(),
		LevelDescription: in.Level.Description(),
		Topics:           topics,
		TopicsText:       strings.Join(parts, ", "),
		HasInstruction:   in.Instruction != "" && in.Instruction != config.DefaultInstruction,
		Instruction:      in.Instruction,
		PhraseLength:     in.PhraseLength,
		MinWords:         minWords,
		MaxWords:         maxWords,
	}

	return s.templateManager.RenderTemplate(PhraseGenerationTemplate, data)
}

// buildFeedbackPrompt renders the translation feedback prompt
func (s *AIService) buildFeedbackPrompt(in *FeedbackInput) (result0 string, err error) {
	data := AITemplateData{
		From:             in.From,
		To:               in.To,
		Level:            in.Level.String(),
		TopicTitle:       in.TopicTitle,
		TopicDescription: in.TopicDescription,
		TopicCategory:    in.TopicCategory,
		TopicDifficulty:  in.TopicDifficulty,
		PhraseText:       in.PhraseText,
		UserTranslation:  in.UserTranslation,
	}

	return s.templateManager.RenderTemplate(TranslationFeedbackTemplate, data)
}

// addJSONStructureGuidance appends JSON structure requirements to prompts for
// providers that don't support the grammar field
func (s *AIService) addJSONStructureGuidance(prompt, schema string) string {
	guidance, err := s.templateManager.RenderTemplate(JSONStructureGuidanceTemplate, AITemplateData{
		SchemaForPrompt: schema,
	})
	if err != nil {
		s.logger.Error(context.Background(), "Failed to render JSON structure guidance template", err, map[string]interface{}{})
		panic(err)
	}

	return prompt + guidance
}

// GeneratePhrases generates a batch of practice phrases tagged with topic IDs.
// The result is unfiltered; callers enforce topic membership.
func (s *AIService) GeneratePhrases(ctx context.Context, username string, in *GenerationInput) (result0 []models.GeneratedPhrase, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_phrases",
		attribute.String("user.username", username),
		attribute.String("ai.provider", s.cfg.AI.Provider),
		attribute.String("ai.model", s.cfg.AI.Model),
		observability.AttributeLanguagePair(in.From, in.To),
		observability.AttributeLevel(in.Level.String()),
		observability.AttributeCount(in.Count),
		attribute.Int("topics.count", len(in.Topics)),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.buildGenerationPrompt(in)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to build generation prompt")
	}

	grammar := PhraseBatchSchema
	if !s.SupportsGrammarField(s.cfg.AI.Provider) {
		prompt = s.addJSONStructureGuidance(prompt, PhraseBatchSchema)
		grammar = ""
	}

	var response string
	err = s.withConcurrencyControl(ctx, username, func() error {
		var callErr error
		response, callErr = s.callChatCompletions(ctx, username, prompt, grammar)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	payload := extractJSONContent(response)
	if err = s.validateSchema(ctx, PhraseBatchSchema, payload); err != nil {
		return nil, err
	}

	var batch phraseBatchPayload
	if err = json.Unmarshal([]byte(payload), &batch); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse phrase batch: %w", err)
	}

	span.SetAttributes(attribute.Int("phrases.returned", len(batch.Phrases)))
	return batch.Phrases, nil
}

// GenerateFeedback evaluates a student translation against the original phrase
func (s *AIService) GenerateFeedback(ctx context.Context, username string, in *FeedbackInput) (result0 *models.FeedbackResult, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_feedback",
		attribute.String("user.username", username),
		attribute.String("ai.provider", s.cfg.AI.Provider),
		attribute.String("ai.model", s.cfg.AI.Model),
		observability.AttributeLanguagePair(in.From, in.To),
		observability.AttributeLevel(in.Level.String()),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.buildFeedbackPrompt(in)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to build feedback prompt")
	}

	grammar := FeedbackSchema
	if !s.SupportsGrammarField(s.cfg.AI.Provider) {
		prompt = s.addJSONStructureGuidance(prompt, FeedbackSchema)
		grammar = ""
	}

	var response string
	err = s.withConcurrencyControl(ctx, username, func() error {
		var callErr error
		response, callErr = s.callChatCompletions(ctx, username, prompt, grammar)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	payload := extractJSONContent(response)
	if err = s.validateSchema(ctx, FeedbackSchema, payload); err != nil {
		return nil, err
	}

	var result models.FeedbackResult
	if err = json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse feedback: %w", err)
	}

	if len(result.Suggestions) > config.MaxFeedbackSuggestions {
		result.Suggestions = result.Suggestions[:config.MaxFeedbackSuggestions]
	}

	span.SetAttributes(attribute.Bool("feedback.is_correct", result.IsCorrect))
	return &result, nil
}

// TestConnection verifies the configured provider answers a trivial prompt
func (s *AIService) TestConnection(ctx context.Context) (err error) {
	ctx, span := observability.TraceAIFunction(ctx, "test_connection",
		attribute.String("ai.provider", s.cfg.AI.Provider),
		attribute.String("ai.model", s.cfg.AI.Model),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.callChatCompletions(ctx, "", "Reply with the single word: ok", "")
	return err
}

// validateSchema validates a JSON document against a schema
func (s *AIService) validateSchema(ctx context.Context, schema, document string) (err error) {
	_, span := observability.TraceAIFunction(ctx, "validate_schema",
		attribute.Int("document.length", len(document)),
	)
	defer observability.FinishSpan(span, &err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		span.SetAttributes(attribute.String("validation.result", "validate_error"))
		return contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, e := range result.Errors() {
			errorMessages = append(errorMessages, e.String())
		}
		span.SetAttributes(attribute.String("validation.result", "invalid"))
		return contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "response failed schema validation: %s", strings.Join(errorMessages, "; "))
	}

	span.SetAttributes(attribute.String("validation.result", "valid"))
	return nil
}

// extractJSONContent strips markdown code fences some models wrap around JSON
func extractJSONContent(response string) string {
	content := strings.TrimSpace(response)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	return content
}

// callChatCompletions makes a request to the configured OpenAI-compatible API
func (s *AIService) callChatCompletions(ctx context.Context, username, prompt, grammar string) (result0 string, err error) {
	_, span := observability.TraceAIFunction(ctx, "call_chat_completions",
		attribute.String("ai.provider", s.cfg.AI.Provider),
		attribute.String("ai.model", s.cfg.AI.Model),
		attribute.String("ai.username", username),
		attribute.Int("prompt.length", len(prompt)),
		attribute.Bool("grammar.enabled", grammar != ""),
	)
	defer func() {
		if err != nil {
			span.RecordError(err, trace.WithStackTrace(true))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if s.cfg.AI.Provider == "" {
		span.SetAttributes(attribute.String("call.result", "empty_provider"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "provider is required")
	}
	if s.cfg.AI.Model == "" {
		span.SetAttributes(attribute.String("call.result", "empty_model"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "model is required")
	}
	if prompt == "" {
		span.SetAttributes(attribute.String("call.result", "empty_prompt"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "prompt cannot be empty")
	}

	provider := s.cfg.GetProvider(s.cfg.AI.Provider)
	if provider == nil || provider.URL == "" {
		span.SetAttributes(attribute.String("call.result", "no_url_configured"), attribute.String("provider", s.cfg.AI.Provider))
		return "", contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "no base URL configured for provider '%s'", s.cfg.AI.Provider)
	}
	apiURL := provider.URL

	userPrefix := ""
	if username != "" {
		userPrefix = fmt.Sprintf("[user=%s] ", username)
	}

	s.logger.Debug(ctx, "Starting AI request", map[string]interface{}{
		"user_prefix": userPrefix,
		"url":         apiURL + "/chat/completions",
		"model":       s.cfg.AI.Model,
		"provider":    s.cfg.AI.Provider,
	})

	reqBody := OpenAIRequest{
		Model:       s.cfg.AI.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: config.DefaultAITemperature,
		MaxTokens:   s.cfg.MaxTokensFor(s.cfg.AI.Provider, s.cfg.AI.Model),
	}
	if grammar != "" && provider.SupportsGrammar {
		reqBody.Grammar = grammar
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "marshal_failed"))
		return "", contextutils.WrapErrorf(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_creation_failed"))
		return "", contextutils.WrapErrorf(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "phraseapp/1.0")
	if s.cfg.AI.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AI.APIKey)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error(ctx, "AI HTTP request failed", err, map[string]interface{}{
			"user_prefix": userPrefix,
			"duration":    duration.String(),
		})
		span.SetAttributes(attribute.String("call.result", "http_request_failed"), attribute.String("duration", duration.String()))
		return "", contextutils.WrapErrorf(contextutils.ErrAIProviderUnavailable, "HTTP request failed after %v: %w", duration, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	s.logger.Info(ctx, "AI request completed", map[string]interface{}{
		"user_prefix": userPrefix,
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "body_read_failed"))
		return "", contextutils.WrapErrorf(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("call.result", "http_error"), attribute.Int("status_code", resp.StatusCode))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d to %s: %s", resp.StatusCode, apiURL+"/chat/completions", string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		span.SetAttributes(attribute.String("call.result", "json_unmarshal_failed"))
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse AI response as JSON: %w", err)
	}

	if openAIResp.Error != nil {
		span.SetAttributes(attribute.String("call.result", "api_error"), attribute.String("error_type", openAIResp.Error.Type))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		span.SetAttributes(attribute.String("call.result", "no_choices"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no response from provider")
	}

	content := openAIResp.Choices[0].Message.Content
	if content == "" {
		span.SetAttributes(attribute.String("call.result", "empty_content"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "provider returned empty content")
	}

	span.SetAttributes(attribute.String("call.result", "success"), attribute.Int("content_length", len(content)), attribute.String("duration", duration.String()))
	return content, nil
}

// GetConcurrencyStats returns a snapshot of the concurrency limiter state
func (s *AIService) GetConcurrencyStats() ConcurrencyStats {
	s.statsMu.RLock()
	s.concurrencyMu.RLock()
	defer s.statsMu.RUnlock()
	defer s.concurrencyMu.RUnlock()

	userActiveCount := make(map[string]int)
	for username, count := range s.userRequestCount {
		if count > 0 {
			userActiveCount[username] = count
		}
	}

	return ConcurrencyStats{
		ActiveRequests:  s.activeRequests,
		MaxConcurrent:   s.maxConcurrent,
		QueuedRequests:  0, // requests fail fast instead of queueing
		TotalRequests:   s.totalRequests,
		UserActiveCount: userActiveCount,
		MaxPerUser:      s.maxPerUser,
	}
}

// acquireGlobalSlot attempts to acquire a global concurrency slot
func (s *AIService) acquireGlobalSlot(ctx context.Context) error {
	select {
	case s.globalSemaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return contextutils.WrapErrorf(contextutils.ErrTimeout, "request cancelled while waiting for global AI slot: %w", ctx.Err())
	default:
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "AI service at capacity (%d concurrent requests), please try again", s.maxConcurrent)
	}
}

// releaseGlobalSlot releases a global concurrency slot
func (s *AIService) releaseGlobalSlot(ctx context.Context) {
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	select {
	case <-s.globalSemaphore:
		s.statsMu.Lock()
		if s.activeRequests > 0 {
			s.activeRequests--
		}
		s.statsMu.Unlock()
	default:
		s.logger.Warn(ctx, "Attempted to release global AI slot but none were acquired", nil)
	}
}

// acquireUserSlot acquires a user-specific concurrency slot
func (s *AIService) acquireUserSlot(_ context.Context, username string) error {
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	currentCount := s.userRequestCount[username]
	if currentCount >= s.maxPerUser {
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "user concurrency limit exceeded for %s: %d/%d", username, currentCount, s.maxPerUser)
	}

	s.userRequestCount[username] = currentCount + 1
	return nil
}

// releaseUserSlot releases a user-specific concurrency slot
func (s *AIService) releaseUserSlot(ctx context.Context, username string) {
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	currentCount := s.userRequestCount[username]
	if currentCount > 0 {
		s.userRequestCount[username] = currentCount - 1
	} else {
		s.logger.Warn(ctx, "Attempted to release user AI slot but none were acquired", map[string]interface{}{
			"username": username,
		})
	}
}

// incrementTotalRequests increments the total request counter
func (s *AIService) incrementTotalRequests() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.totalRequests++
}

// withConcurrencyControl wraps an AI operation with concurrency limits
func (s *AIService) withConcurrencyControl(ctx context.Context, username string, operation func() error) error {
	if s.isShutdown() {
		return contextutils.WrapError(contextutils.ErrServiceUnavailable, "AI service is shutting down")
	}

	s.incrementTotalRequests()

	if err := s.acquireGlobalSlot(ctx); err != nil {
		return err
	}

	s.statsMu.Lock()
	s.activeRequests++
	s.statsMu.Unlock()

	defer func() {
		s.releaseGlobalSlot(ctx)
	}()

	if err := s.acquireUserSlot(ctx, username); err != nil {
		return err
	}
	defer s.releaseUserSlot(ctx, username)

	return operation()
}

// SupportsGrammarField reports whether the provider supports the grammar field
func (s *AIService) SupportsGrammarField(provider string) bool {
	return s.cfg.SupportsGrammarField(provider)
}
