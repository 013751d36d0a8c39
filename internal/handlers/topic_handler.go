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

// TopicHandler handles topic catalog HTTP requests
type TopicHandler struct {
	topicService services.TopicServiceInterface
	config       *config.Config
	logger       *observability.Logger
}

// NewTopicHandler creates a new TopicHandler instance
func NewTopicHandler(topicService services.TopicServiceInterface, cfg *config.Config, logger *observability.Logger) *TopicHandler {
	return &TopicHandler{
		topicService: topicService,
		config:       cfg,
		logger:       logger,
	}
}

// ListTopics returns active topics visible to the current user
func (h *TopicHandler) ListTopics(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_topics")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var query models.TopicListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidRequestBody(c, err)
		return
	}

	topics, err := h.topicService.ListTopics(c.Request.Context(), userID, &query)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list topics", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeCount(len(topics)),
	)

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GetTopic returns a single topic by ID
func (h *TopicHandler) GetTopic(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_topic")
	defer observability.FinishSpan(span, nil)

	topicID := c.Param("id")
	if !contextutils.IsValidUUID(topicID) {
		HandleValidationError(c, "topic id", topicID, "must be a UUID")
		return
	}
	span.SetAttributes(observability.AttributeTopicID(topicID))

	topic, err := h.topicService.GetTopic(c.Request.Context(), topicID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if topic == nil {
		HandleAppError(c, contextutils.ErrTopicNotFound)
		return
	}

	c.JSON(http.StatusOK, topic)
}

// CreateTopic creates a custom topic owned by the current user
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_topic")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req models.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	topic, err := h.topicService.CreateTopic(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create topic", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeTopicID(topic.ID),
	)

	c.JSON(http.StatusCreated, topic)
}

// UpdateTopic updates a topic the current user may edit
func (h *TopicHandler) UpdateTopic(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_topic")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	topicID := c.Param("id")
	if !contextutils.IsValidUUID(topicID) {
		HandleValidationError(c, "topic id", topicID, "must be a UUID")
		return
	}

	var req models.UpdateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeTopicID(topicID),
	)

	topic, err := h.topicService.UpdateTopic(c.Request.Context(), userID, topicID, &req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, topic)
}

// DeleteTopic deletes a topic. Soft deletion is the default; pass
// softDelete=false to remove the row entirely.
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_topic")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	topicID := c.Param("id")
	if !contextutils.IsValidUUID(topicID) {
		HandleValidationError(c, "topic id", topicID, "must be a UUID")
		return
	}

	var query models.DeleteTopicQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidRequestBody(c, err)
		return
	}
	soft := query.Soft()

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeTopicID(topicID),
		attribute.Bool("topic.soft_delete", soft),
	)

	topic, err := h.topicService.DeleteTopic(c.Request.Context(), userID, topicID, soft)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	message := "Topic deactivated"
	if !soft {
		message = "Topic deleted"
	}

	c.JSON(http.StatusOK, models.DeleteTopicResponse{
		Message: message,
		Topic:   topic,
	})
}
