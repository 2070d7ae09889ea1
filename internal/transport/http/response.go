package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
)

// StatusFor maps a typed error onto an HTTP status code.
func StatusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindGeneration:
		return http.StatusBadRequest
	case errors.KindConflict:
		return http.StatusConflict
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondMessage writes {"message": message}.
func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// RespondError writes err with the status StatusFor picks. Client errors
// carry {"message"}; server errors carry {"error"} and are logged.
func RespondError(c *gin.Context, logger *logging.Logger, err error) {
	status := StatusFor(err)
	message := errors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorTag("HTTP", "%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	RespondMessage(c, status, message)
}
