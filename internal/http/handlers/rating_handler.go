// README: Post-ride rating endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
	"uride/internal/modules/rating"
	"uride/internal/types"
)

type RatingHandler struct {
	ratings *rating.Service
}

func NewRatingHandler(ratings *rating.Service) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type submitRatingPayload struct {
	Stars  int    `json:"stars" binding:"required"`
	Review string `json:"review"`
}

func (h *RatingHandler) Submit(c *gin.Context) {
	var req submitRatingPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	r, err := h.ratings.Submit(c.Request.Context(), rating.SubmitCommand{
		RideID: types.ID(c.Param("id")),
		Stars:  req.Stars,
		Review: req.Review,
	})
	if err != nil {
		writeRatingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RatingHandler) Received(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}

	ratings, err := h.ratings.ListForUser(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "rating list failed")
		return
	}
	avg, err := h.ratings.Average(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "rating average failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings, "average": avg})
}
