package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/telemetry"
)

// ErrorBody is the payload every failed request returns under "error".
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts with the standard error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := requestFields(c)
	fields["status"] = status
	fields["code"] = code
	fields["message"] = message
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// Internal aborts with a 500 carrying only message; cause is logged, never returned.
func Internal(c *gin.Context, message string, cause error) {
	if cause != nil {
		fields := requestFields(c)
		fields["error"] = cause
		telemetry.Error("http.internal_cause", fields)
	}
	Error(c, http.StatusInternalServerError, "internal_error", message, nil)
}

func requestFields(c *gin.Context) map[string]any {
	fields := map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	return fields
}
