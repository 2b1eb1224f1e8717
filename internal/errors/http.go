package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/mediacat/internal/logger"
)

// httpStatus maps the catalog taxonomy onto HTTP status codes.
func httpStatus(err error) int {
	var ce *CatalogError
	if As(err, &ce) {
		switch ce.Type {
		case ErrorTypeNotFound:
			return http.StatusNotFound
		case ErrorTypeValidation:
			return http.StatusBadRequest
		case ErrorTypeUpstream:
			return http.StatusBadGateway
		case ErrorTypePartial:
			return http.StatusMultiStatus
		}
	}
	switch {
	case Is(err, ErrMediaNotFound), Is(err, ErrPointNotFound), Is(err, ErrPointNotReferenced):
		return http.StatusNotFound
	case Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ToGinResponse sends an error as a standardized JSON response
func ToGinResponse(c *gin.Context, err error) {
	status := httpStatus(err)

	logger.Error("HTTP error response",
		"status", status,
		"error", err,
		"path", c.Request.URL.Path,
		"method", c.Request.Method)

	c.JSON(status, gin.H{"error": err.Error()})
}

// HandleValidationError sends a validation error response
func HandleValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
