package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/telemetry"
)

const (
	loanIDKey     = "loanId"
	borrowerIDKey = "borrowerId"
)

// TagLoan records the loan a request operated on for the access log.
func TagLoan(c *gin.Context, loanID string) {
	if loanID != "" {
		c.Set(loanIDKey, loanID)
	}
}

// TagBorrower records the borrower profile a request operated on for the access log.
func TagBorrower(c *gin.Context, borrowerID string) {
	if borrowerID != "" {
		c.Set(borrowerIDKey, borrowerID)
	}
}

// Logging writes one access log line per request. 5xx logs at error, 4xx at warn.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"role":        UserRoleFromContext(c),
			"is_guest":    IsGuest(c),
			"loan_id":     c.GetString(loanIDKey),
			"borrower_id": c.GetString(borrowerIDKey),
			"client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("http.request", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("http.request", fields)
		default:
			telemetry.Info("http.request", fields)
		}
	}
}
