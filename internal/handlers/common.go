package handlers

import (
	"errors"

	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// respondError maps pipeline sentinel errors onto the unified API envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyRated), errors.Is(err, services.ErrBusy):
		response.Conflict(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}
