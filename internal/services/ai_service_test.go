package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"phraseapp/internal/config"
	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIService(t *testing.T, providerURL string, supportsGrammar bool) *AIService {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			MaxAIConcurrent: 5,
			MaxAIPerUser:    2,
		},
		Providers: []config.ProviderConfig{
			{
				Name:            "Test Provider",
				Code:            "test",
				URL:             providerURL,
				SupportsGrammar: supportsGrammar,
				Models:          []config.AIModel{{Name: "Test Model", Code: "test-model", MaxTokens: 512}},
			},
		},
		AI: config.AIConfig{Provider: "test", Model: "test-model", APIKey: "test-key"},
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewAIService(cfg, logger)
}

func chatCompletionResponse(content string) string {
	resp := OpenAIResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestBuildGenerationPrompt(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1", true)

	in := &GenerationInput{
		From: "Italian",
		To:   "English",
		Topics: []models.TopicRef{
			{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel", Description: "airports and trains"},
			{ID: "22222222-2222-4222-8222-222222222222", Title: "Food"},
		},
		Count:        10,
		Instruction:  "None",
		Level:        language.LevelB1,
		PhraseLength: 5,
	}

	prompt, err := svc.buildGenerationPrompt(in)
	require.NoError(t, err)

	assert.Contains(t, prompt, "# Language Learning Phrase Generator")
	assert.Contains(t, prompt, "expert English language teacher")
	assert.Contains(t, prompt, "10 phrases in Italian")
	assert.Contains(t, prompt, "Travel (airports and trains), Food")
	assert.Contains(t, prompt, "11111111-1111-4111-8111-111111111111: Travel (airports and trains)")
	assert.Contains(t, prompt, "22222222-2222-4222-8222-222222222222: Food")
	// phraseLength 5 gives a 4-6 word window
	assert.Contains(t, prompt, "**4-6 words** (target: 5 words")
	// "None" instruction falls back to the level-focused line
	assert.Contains(t, prompt, "**Focus**: Conversational phrases appropriate for B1 level learners")
	assert.NotContains(t, prompt, "Special Requirements")
	assert.Contains(t, prompt, language.LevelB1.Description())
}

func TestBuildGenerationPrompt_WithInstruction(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1", true)

	in := &GenerationInput{
		From:         "Spanish",
		To:           "German",
		Topics:       []models.TopicRef{{ID: "33333333-3333-4333-8333-333333333333", Title: "Work"}},
		Count:        5,
		Instruction:  "use formal register",
		Level:        language.LevelC1,
		PhraseLength: 12,
	}

	prompt, err := svc.buildGenerationPrompt(in)
	require.NoError(t, err)

	assert.Contains(t, prompt, "**Special Requirements**: use formal register")
	assert.NotContains(t, prompt, "**Focus**:")
	// phraseLength 12 gives a 10-14 word window
	assert.Contains(t, prompt, "**10-14 words**")
}

func TestBuildFeedbackPrompt(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1", true)

	in := &FeedbackInput{
		From:             "Italian",
		To:               "English",
		Level:            language.LevelA2,
		TopicTitle:       "Ordering food",
		TopicDescription: "restaurant conversations",
		TopicCategory:    "daily-life",
		TopicDifficulty:  2,
		PhraseText:       "Vorrei un tavolo per due.",
		UserTranslation:  "I would like a table for two.",
	}

	prompt, err := svc.buildFeedbackPrompt(in)
	require.NoError(t, err)

	assert.Contains(t, prompt, "expert language teacher")
	assert.Contains(t, prompt, "CEFR Level: A2")
	assert.Contains(t, prompt, "Difficulty Level: 2/10")
	assert.Contains(t, prompt, `Original phrase (Italian): "Vorrei un tavolo per due."`)
	assert.Contains(t, prompt, `Student translation (English): "I would like a table for two."`)
}

func TestExtractJSONContent(t *testing.T) {
	plain := `{"phrases": []}`
	assert.Equal(t, plain, extractJSONContent(plain))
	assert.Equal(t, plain, extractJSONContent("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, extractJSONContent("```\n"+plain+"\n```"))
	assert.Equal(t, plain, extractJSONContent("  "+plain+"  "))
}

func TestGeneratePhrases_Success(t *testing.T) {
	var gotRequest OpenAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		content := `{"phrases": [{"text": "Dove si trova il binario?", "topicId": "11111111-1111-4111-8111-111111111111"}]}`
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(chatCompletionResponse(content))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	in := &GenerationInput{
		From:         "Italian",
		To:           "English",
		Topics:       []models.TopicRef{{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel"}},
		Count:        1,
		Instruction:  "None",
		Level:        language.LevelB1,
		PhraseLength: 5,
	}

	phrases, err := svc.GeneratePhrases(context.Background(), "maria", in)
	require.NoError(t, err)
	require.Len(t, phrases, 1)
	assert.Equal(t, "Dove si trova il binario?", phrases[0].Text)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", phrases[0].TopicID)

	// Grammar-capable provider gets the schema in the request
	assert.Equal(t, "test-model", gotRequest.Model)
	assert.NotEmpty(t, gotRequest.Grammar)
	assert.Equal(t, 512, gotRequest.MaxTokens)
	assert.InDelta(t, 0.7, gotRequest.Temperature, 0.001)
}

func TestGeneratePhrases_NoGrammarProviderGetsGuidance(t *testing.T) {
	var gotRequest OpenAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		content := `{"phrases": []}`
		if _, err := w.Write([]byte(chatCompletionResponse(content))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, false)
	in := &GenerationInput{
		From:         "Italian",
		To:           "English",
		Topics:       []models.TopicRef{{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel"}},
		Count:        1,
		Instruction:  "None",
		Level:        language.LevelB1,
		PhraseLength: 5,
	}

	phrases, err := svc.GeneratePhrases(context.Background(), "maria", in)
	require.NoError(t, err)
	assert.Empty(t, phrases)

	assert.Empty(t, gotRequest.Grammar)
	require.Len(t, gotRequest.Messages, 1)
	assert.Contains(t, gotRequest.Messages[0].Content, "Respond with ONLY a valid JSON document")
}

func TestGeneratePhrases_InvalidSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `{"phrases": [{"text": "missing topic id"}]}`
		if _, err := w.Write([]byte(chatCompletionResponse(content))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	in := &GenerationInput{
		From:         "Italian",
		To:           "English",
		Topics:       []models.TopicRef{{ID: "11111111-1111-4111-8111-111111111111", Title: "Travel"}},
		Count:        1,
		Instruction:  "None",
		Level:        language.LevelB1,
		PhraseLength: 5,
	}

	_, err := svc.GeneratePhrases(context.Background(), "maria", in)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIResponseInvalid))
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if _, err := w.Write([]byte(chatCompletionResponse("ok"))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	assert.NoError(t, svc.TestConnection(context.Background()))
}

func TestTestConnection_ProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	assert.Error(t, svc.TestConnection(context.Background()))
}

func TestGenerateFeedback_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `{"isCorrect": false, "feedback": "Wrong verb tense.", "suggestions": ["I would like a table for two."]}`
		if _, err := w.Write([]byte(chatCompletionResponse(content))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	in := &FeedbackInput{
		From:            "Italian",
		To:              "English",
		Level:           language.LevelB1,
		TopicTitle:      "Ordering food",
		TopicDifficulty: 2,
		PhraseText:      "Vorrei un tavolo per due.",
		UserTranslation: "I want table for two.",
	}

	result, err := svc.GenerateFeedback(context.Background(), "maria", in)
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, "Wrong verb tense.", result.Feedback)
	assert.Len(t, result.Suggestions, 1)
}

func TestGenerateFeedback_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"error": {"message": "boom"}}`)); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL, true)
	in := &FeedbackInput{
		From:            "Italian",
		To:              "English",
		Level:           language.LevelB1,
		TopicTitle:      "Ordering food",
		PhraseText:      "Vorrei un tavolo per due.",
		UserTranslation: "x",
	}

	_, err := svc.GenerateFeedback(context.Background(), "maria", in)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
}

func TestCallChatCompletions_ConfigValidation(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1", true)

	_, err := svc.callChatCompletions(context.Background(), "maria", "", "")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIConfigInvalid))

	svc.cfg.AI.Provider = "unknown"
	_, err = svc.callChatCompletions(context.Background(), "maria", "prompt", "")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIConfigInvalid))
	assert.True(t, strings.Contains(err.Error(), "no base URL configured"))
}

func TestWithConcurrencyControl_UserLimit(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1", true)

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	errs := make(chan error, 3)

	for i := 0; i < 2; i++ {
		go func() {
			errs <- svc.withConcurrencyControl(context.Background(), "maria", func() error {
				started <- struct{}{}
				<-release
				return nil
			})
		}()
	}

	<-started
	<-started

	// Third request for the same user exceeds max_per_user=2
	err := svc.withConcurrencyControl(context.Background(), "maria", func() error { return nil })
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrServiceUnavailable))

	// A different user still has capacity
	err = svc.withConcurrencyControl(context.Background(), "other", func() error { return nil })
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	stats := svc.GetConcurrencyStats()
	assert.Equal(t, 5, stats.MaxConcurrent)
	assert.Equal(t, 2, stats.MaxPerUser)
	assert.GreaterOrEqual(t, stats.TotalRequests, int64(4))
}

func TestTranscriptionService_Unconfigured(t *testing.T) {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	svc := NewTranscriptionService(&config.TranscriptionConfig{Model: "whisper-1"}, logger)

	assert.False(t, svc.Enabled())
	_, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.wav", "audio/wav")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrTranscriptionUnconfigured))
}
