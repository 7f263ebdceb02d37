package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/models"
	"lead-workflow/internal/utils"
)

func respondOK(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func respondMessage(c *gin.Context, status int, success bool, message string) {
	c.JSON(status, gin.H{"success": success, "message": message})
}

// respondError maps a service error onto a status code. Client errors carry
// the error text; anything else is logged and answered with failure.
func respondError(c *gin.Context, log logger.Logger, err error, notFound, failure string) {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidID),
		errors.Is(err, models.ErrInvalidTarget):
		respondMessage(c, http.StatusBadRequest, false, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		respondMessage(c, http.StatusUnauthorized, false, "Unauthorized")
	case errors.Is(err, models.ErrNotFound):
		respondMessage(c, http.StatusNotFound, false, notFound)
	case errors.Is(err, models.ErrDuplicate):
		respondMessage(c, http.StatusConflict, false, err.Error())
	default:
		log.Error(failure, "path", c.FullPath(), "error", err)
		respondMessage(c, http.StatusInternalServerError, false, failure)
	}
}

// requireSession answers 401 when the auth middleware did not run.
func requireSession(c *gin.Context) (*utils.Session, bool) {
	session, ok := utils.SessionFrom(c)
	if !ok {
		respondMessage(c, http.StatusUnauthorized, false, "Unauthorized")
		return nil, false
	}
	return session, true
}
