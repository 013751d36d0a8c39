package handlers

import (
	"fmt"

	"phraseapp/internal/middleware"
	contextutils "phraseapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// HandleAppError handles any AppError and sends the appropriate HTTP response
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	)

	middleware.StandardizeAppError(c, appErr)
}

// invalidRequestBody wraps a binding failure into a 400 AppError
func invalidRequestBody(c *gin.Context, err error) {
	middleware.StandardizeAppError(c, contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		"Invalid request body",
		err.Error(),
		err,
	))
}
