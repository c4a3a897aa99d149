// README: Shared response helpers and domain-error to status-code mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
	"uride/internal/modules/rating"
	"uride/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeRideError maps lifecycle errors onto HTTP statuses. The error text is
// the sentinel message, not the wrapped detail, to keep internals out of
// responses.
func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrNotAuthenticated):
		writeError(c, http.StatusUnauthorized, identity.ErrNotAuthenticated.Error())
	case errors.Is(err, ride.ErrUnauthorized):
		writeError(c, http.StatusForbidden, ride.ErrUnauthorized.Error())
	case errors.Is(err, ride.ErrNoActiveRide):
		writeError(c, http.StatusNotFound, ride.ErrNoActiveRide.Error())
	case errors.Is(err, ride.ErrInvalidTransition):
		writeError(c, http.StatusConflict, ride.ErrInvalidTransition.Error())
	case errors.Is(err, ride.ErrRideExists):
		writeError(c, http.StatusConflict, ride.ErrRideExists.Error())
	case errors.Is(err, ride.ErrPersistence):
		writeError(c, http.StatusInternalServerError, ride.ErrPersistence.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal server error")
	}
}

func writeRatingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rating.ErrInvalidStars):
		writeError(c, http.StatusBadRequest, rating.ErrInvalidStars.Error())
	case errors.Is(err, rating.ErrNotCompleted):
		writeError(c, http.StatusConflict, rating.ErrNotCompleted.Error())
	case errors.Is(err, rating.ErrNotYourRide):
		writeError(c, http.StatusForbidden, rating.ErrNotYourRide.Error())
	default:
		writeRideError(c, err)
	}
}
