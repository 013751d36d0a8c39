package handlers

import (
	"net/http"

	"phraseapp/internal/config"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	"phraseapp/internal/phrasecache"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// PhraseHandler handles phrase generation, feedback, and the session
// phrase store.
type PhraseHandler struct {
	phraseService services.PhraseServiceInterface
	userService   services.UserServiceInterface
	store         *phrasecache.Store
	config        *config.Config
	logger        *observability.Logger
}

// NewPhraseHandler creates a new PhraseHandler instance
func NewPhraseHandler(
	phraseService services.PhraseServiceInterface,
	userService services.UserServiceInterface,
	store *phrasecache.Store,
	cfg *config.Config,
	logger *observability.Logger,
) *PhraseHandler {
	return &PhraseHandler{
		phraseService: phraseService,
		userService:   userService,
		store:         store,
		config:        cfg,
		logger:        logger,
	}
}

// GeneratePhrases generates a new batch of practice phrases and replaces
// the user's session phrases with it.
func (h *PhraseHandler) GeneratePhrases(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_phrases")
	defer observability.FinishSpan(span, nil)

	var req models.GeneratePhrasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(user.ID),
		attribute.Int("phrases.topic_count", len(req.Topics)),
		observability.AttributeLanguagePair(req.From, req.To),
	)

	// Regeneration discards the previous batch up front so the session never
	// serves stale phrases while the new request is in flight.
	h.store.Clear(user.ID)

	phrases, err := h.phraseService.GeneratePhrases(c.Request.Context(), user, &req)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Phrase generation failed", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, err)
		return
	}

	h.store.Replace(user.ID, phrases)

	span.SetAttributes(observability.AttributeCount(len(phrases)))

	c.JSON(http.StatusOK, gin.H{"phrases": phrases})
}

// Feedback evaluates a user's translation of a phrase
func (h *PhraseHandler) Feedback(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "translation_feedback")
	defer observability.FinishSpan(span, nil)

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(user.ID),
		observability.AttributeTopicID(req.TopicID),
	)

	resp, err := h.phraseService.GenerateFeedback(c.Request.Context(), user, &req)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Translation feedback failed", err, map[string]interface{}{"user_id": user.ID, "topic_id": req.TopicID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSessionPhrases returns the user's current session phrases in
// generation order.
func (h *PhraseHandler) GetSessionPhrases(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_session_phrases")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	phrases := h.store.List(userID)

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeCount(len(phrases)),
	)

	c.JSON(http.StatusOK, gin.H{"phrases": phrases})
}

// SubmitTranslation submits a translation for a session phrase. The phrase
// is marked loading while feedback is generated; on failure the submission
// rolls back so the user can retry.
func (h *PhraseHandler) SubmitTranslation(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_translation")
	defer observability.FinishSpan(span, nil)

	phraseID := c.Param("id")

	var req models.SubmitTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(user.ID),
		observability.AttributePhraseID(phraseID),
	)

	phrase, err := h.store.BeginSubmission(user.ID, phraseID, req.UserTranslation)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	feedbackReq := &models.FeedbackRequest{
		TopicID:         phrase.TopicID,
		PhraseText:      phrase.Text,
		UserTranslation: req.UserTranslation,
	}

	resp, err := h.phraseService.GenerateFeedback(c.Request.Context(), user, feedbackReq)
	if err != nil {
		h.store.RollbackSubmission(user.ID, phraseID)
		h.logger.Error(c.Request.Context(), "Translation submission failed", err, map[string]interface{}{"user_id": user.ID, "phrase_id": phraseID})
		HandleAppError(c, err)
		return
	}

	updated, err := h.store.CompleteSubmission(user.ID, phraseID, &models.FeedbackResult{
		IsCorrect:   resp.IsCorrect,
		Feedback:    resp.Feedback,
		Suggestions: resp.Suggestions,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
