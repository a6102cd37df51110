package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
)

// writeError maps the error taxonomy to HTTP status codes in one place.
// Anything outside the taxonomy is an unexpected store failure and becomes
// a 500 without leaking details.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		logger.Error("Unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": e.Msg})
}
