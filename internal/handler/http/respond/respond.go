// Package respond writes JSON responses for the read API without leaking
// internal error details.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsbrief/internal/domain/entity"
)

type errorBody struct {
	Error string `json:"error"`
}

// Error maps err to a status and writes {"error": ...}. Validation and
// not-found errors are returned verbatim; everything else is logged with
// secrets masked and reported as an internal error.
func Error(c *gin.Context, err error) {
	code, msg := classify(err)
	if code == http.StatusInternalServerError {
		slog.Default().Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", SanitizeError(err)))
	}
	c.AbortWithStatusJSON(code, errorBody{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, entity.ErrValidationFailed), errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
