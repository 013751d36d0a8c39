package handlers

import (
	"net/http"

	"phraseapp/internal/config"
	"phraseapp/internal/language"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles phrase settings and language preference requests
type SettingsHandler struct {
	settingsService services.SettingsServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(settingsService services.SettingsServiceInterface, cfg *config.Config, logger *observability.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		config:          cfg,
		logger:          logger,
	}
}

// GetSettings returns the user's saved phrase generation settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_phrase_settings")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	span.SetAttributes(observability.AttributeUserID(userID))

	settings, err := h.settingsService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to load phrase settings", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	if settings == nil {
		HandleAppError(c, contextutils.ErrSettingsNotFound)
		return
	}

	c.JSON(http.StatusOK, settings.View())
}

// CreateSettings saves phrase generation settings for a user that has none
func (h *SettingsHandler) CreateSettings(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_phrase_settings")
	defer observability.FinishSpan(span, nil)

	h.saveSettings(c, false)
}

// UpdateSettings replaces existing phrase generation settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_phrase_settings")
	defer observability.FinishSpan(span, nil)

	h.saveSettings(c, true)
}

func (h *SettingsHandler) saveSettings(c *gin.Context, update bool) {
	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req models.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	var settings *models.UserPhrasesSettings
	var err error
	if update {
		settings, err = h.settingsService.UpdateSettings(c.Request.Context(), userID, &req)
	} else {
		settings, err = h.settingsService.CreateSettings(c.Request.Context(), userID, &req)
	}
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save phrase settings", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	// The settings payload may carry the language pair as a convenience
	if req.From != "" && req.To != "" {
		if _, err := h.settingsService.SetPreferences(c.Request.Context(), userID, req.From, req.To); err != nil {
			h.logger.Error(c.Request.Context(), "Failed to save language preferences", err, map[string]interface{}{"user_id": userID})
			HandleAppError(c, err)
			return
		}
	}

	status := http.StatusOK
	if !update {
		status = http.StatusCreated
	}
	c.JSON(status, settings.View())
}

// GetPreferences returns the user's saved language pair
func (h *SettingsHandler) GetPreferences(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_preferences")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	span.SetAttributes(observability.AttributeUserID(userID))

	prefs, err := h.settingsService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to load preferences", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	if prefs == nil {
		HandleAppError(c, contextutils.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, models.PreferencesView{From: prefs.From, To: prefs.To})
}

// UpdatePreferences upserts the user's language pair
func (h *SettingsHandler) UpdatePreferences(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_preferences")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req models.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeLanguagePair(req.From, req.To),
	)

	prefs, err := h.settingsService.SetPreferences(c.Request.Context(), userID, req.From, req.To)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save preferences", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PreferencesView{From: prefs.From, To: prefs.To})
}

// GetLevels returns the supported CEFR levels with descriptions
func (h *SettingsHandler) GetLevels(c *gin.Context) {
	levels := make([]string, 0, len(language.Levels))
	descriptions := make(map[string]string, len(language.Levels))
	for _, l := range language.Levels {
		levels = append(levels, l.String())
		descriptions[l.String()] = l.Description()
	}

	c.JSON(http.StatusOK, gin.H{
		"levels":             levels,
		"level_descriptions": descriptions,
	})
}

// GetLanguages returns the supported languages
func (h *SettingsHandler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": language.Languages()})
}
