package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trakr/internal/chain"
	"trakr/internal/middleware"
	"trakr/internal/repository"
)

// ErrorResponse is the envelope every failed request is answered with.
type ErrorResponse struct {
	Error string `json:"error"`
}

// currentEmail returns the email the auth middleware stored, writing a 401
// when it is missing.
func currentEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(middleware.EmailKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return "", false
	}
	email, ok := value.(string)
	if !ok || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return "", false
	}
	return email, true
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// errorStatus maps repository errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotMember),
		errors.Is(err, repository.ErrPermissionDenied):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrProjectNotFound),
		errors.Is(err, repository.ErrColumnNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrEpicNotFound),
		errors.Is(err, repository.ErrRoleNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrNameConflict),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrLastMember),
		errors.Is(err, repository.ErrFallbackColumn),
		errors.Is(err, repository.ErrInvalidMove),
		errors.Is(err, repository.ErrDefaultRole),
		errors.Is(err, chain.ErrBrokenChain):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInvalidResetToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope for err. Unmapped errors are logged
// and answered with fallback so internals never leak to clients.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	if status == http.StatusUnauthorized && errors.Is(err, repository.ErrPermissionDenied) {
		c.JSON(status, gin.H{"error": "You don't have permission to do this"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
