package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/services"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

var ErrNoPermission = errors.New("you do not have permission to perform this action")

// currentUser rebuilds the acting user from the auth middleware's claims.
func currentUser(c *gin.Context) *models.User {
	user := &models.User{}
	if id, exists := c.Get("user_id"); exists {
		user.ID = id.(uint)
	}
	if role, exists := c.Get("role"); exists {
		user.Role = role.(string)
	}
	return user
}

// respondServiceError maps the booking service's error taxonomy onto HTTP
// statuses.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var capacityErr *services.CapacityError
	var authErr *services.AuthorizationError
	var transitionErr *services.StateTransitionError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &capacityErr):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.As(err, &authErr):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.As(err, &transitionErr):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrConcurrencyConflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, errors.New("booking not found"))
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
