// Package handlers contains the HTTP handlers and router wiring for the
// phrase learning API.
package handlers

import (
	"net/http"

	"phraseapp/internal/config"
	"phraseapp/internal/middleware"
	"phraseapp/internal/models"
	"phraseapp/internal/observability"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

// Signup handles new user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	defer observability.FinishSpan(span, nil)

	if h.config.Server.SignupsDisabled {
		HandleAppError(c, contextutils.NewAppError(
			contextutils.ErrorCodeForbidden,
			contextutils.SeverityWarn,
			"Signups are disabled",
			"",
		))
		return
	}

	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	span.SetAttributes(attribute.String("auth.username", req.Username))

	user, err := h.userService.CreateUserWithPassword(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create user", err, map[string]interface{}{"username": req.Username})
		HandleAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)
	if err := session.Save(); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
	})
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestBody(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("auth.username", req.Username),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Authentication failed for user", map[string]interface{}{"username": req.Username})
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}
	if user == nil {
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	if err := h.userService.UpdateLastActive(c.Request.Context(), user.ID); err != nil {
		// Log but do not fail login
		h.logger.Warn(c.Request.Context(), "Failed to update last active for user", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
	}

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)
	if err := session.Save(); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	if userID := session.Get(middleware.UserIDKey); userID != nil {
		if id, ok := userID.(int); ok {
			span.SetAttributes(attribute.Int("user.id", id))
		}
	}

	session.Clear()
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// Status returns the current authentication status
func (h *AuthHandler) Status(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "auth_status")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		attribute.Int("user.id", userID),
	)

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error getting user by ID", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.ErrInternalError)
		return
	}

	if user == nil {
		// Stale session, clear it
		session := sessions.Default(c)
		session.Clear()
		if err := session.Save(); err != nil {
			h.logger.Error(c.Request.Context(), "Error saving session", err, map[string]interface{}{"user_id": userID})
		}
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	if err := h.userService.UpdateLastActive(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn(c.Request.Context(), "Error updating last active", map[string]interface{}{"user_id": user.ID})
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user,
	})
}

// currentUser loads the authenticated user for the request. RequireAuth
// guarantees a session, so a missing user means it went stale.
func currentUser(c *gin.Context, userService services.UserServiceInterface) (*models.User, bool) {
	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return nil, false
	}

	user, err := userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to load user"))
		return nil, false
	}
	if user == nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return nil, false
	}
	return user, true
}
