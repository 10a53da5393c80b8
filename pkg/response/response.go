package response

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/ratelimiter"
	"anoa.com/linkbio/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const internalErrorMessage = "Erro interno do servidor"

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// IsAdmin reports whether RequireAuth resolved an admin session.
func IsAdmin(c *gin.Context) bool {
	return c.GetString("user_role") == "admin"
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitErr.Message})
		return
	}

	code := apperror.MapErrorToStatus(err)

	// Internal failures are logged, never shown
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
		c.JSON(code, gin.H{"error": internalErrorMessage})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BindError answers a request whose body or query failed validation.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
}
