package handlers

import (
	"phraseapp/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUserIDFromSession retrieves the current user ID from the session.
// Returns (0, false) if not authenticated or if the stored value is invalid.
func GetUserIDFromSession(c *gin.Context) (int, bool) {
	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(int)
	if !ok {
		return 0, false
	}
	return id, true
}

// GetUsernameFromSession retrieves the current username from the session.
func GetUsernameFromSession(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	username := session.Get(middleware.UsernameKey)
	if username == nil {
		return "", false
	}
	name, ok := username.(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
