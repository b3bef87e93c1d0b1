package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/recipebook/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler recovers panics raised by later handlers, logs them and answers
// with a 500. JSON-speaking clients get an ErrorResponse body, everyone else
// plain text.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic while handling request",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				if WantsJSON(c) {
					c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
					return
				}
				c.Header("Content-Type", "text/plain; charset=utf-8")
				c.AbortWithStatus(http.StatusInternalServerError)
				_, _ = c.Writer.WriteString("Internal Server Error")
			}
		}()

		c.Next()

		// Errors attached with c.Error but never answered still get logged.
		for _, e := range c.Errors {
			log.Warn("request error", "error", e.Err, "path", c.Request.URL.Path, "status", c.Writer.Status())
		}
	}
}

// WantsJSON reports whether the caller expects a JSON body: the delete
// endpoint always answers JSON, otherwise the Accept header decides.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/delete-recipe/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
