package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"secure-share-api/internal/domain/errs"
)

// writeError maps the domain error taxonomy onto HTTP. Internal failures are logged
// under op and only described to the client outside release mode.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	if ve, ok := errs.IsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrKeyUnwrap), errors.Is(err, errs.ErrStorage):
		// unusable key or blob on a live record: 500 below
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case errors.Is(err, errs.ErrKeyMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid decryption key"})
		return
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	case errors.Is(err, errs.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
		return
	}

	logger.Error(op+"() error", zap.Error(err))

	body := gin.H{"error": "internal server error"}
	if gin.Mode() != gin.ReleaseMode {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
