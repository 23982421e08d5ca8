package middlewares

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/gin-gonic/gin"
)

const internalMessage = "Internal server error"

type ErrorBody struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Path       string      `json:"path"`
	Timestamp  string      `json:"timestamp"`
	Details    interface{} `json:"details,omitempty"`
}

// ErrorHandler renders the last error pushed with c.Error as the error envelope.
// It must be registered before every middleware that can fail.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperr.From(c.Errors.Last().Err)
		status := appErr.Kind.Status()

		msg := appErr.Message
		var details interface{}
		if status >= http.StatusInternalServerError {
			msg = internalMessage
		} else {
			details = appErr.Details
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"message", appErr.Message,
			"request_id", RequestIDFrom(c),
		}
		if status >= http.StatusInternalServerError {
			if appErr.Err != nil {
				attrs = append(attrs, "err", appErr.Err.Error())
			}
			log.ErrorContext(c.Request.Context(), "request failed", attrs...)
		} else {
			log.WarnContext(c.Request.Context(), "request rejected", attrs...)
		}

		c.JSON(status, ErrorBody{
			Success:    false,
			StatusCode: status,
			Message:    msg,
			Path:       c.Request.URL.Path,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Details:    details,
		})
	}
}

// Recovery turns a panic into the same 500 envelope; the stack never reaches the client.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		var cause error
		if e, ok := recovered.(error); ok {
			cause = e
		} else {
			cause = errors.New(fmt.Sprint(recovered))
		}
		abortWith(c, apperr.Internal(cause, "panic recovered"))
	})
}

// NoRoute keeps 404s for unknown paths in the same envelope.
func NoRoute(c *gin.Context) {
	abortWith(c, apperr.NotFound("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
}
