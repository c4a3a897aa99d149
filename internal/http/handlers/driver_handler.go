// README: Driver directory endpoints: availability and nearby lookup.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
	"uride/internal/modules/directory"
	"uride/internal/types"
)

type DriverHandler struct {
	directory    directory.Directory
	nearbyRadius float64
}

func NewDriverHandler(dir directory.Directory, nearbyRadiusMeters float64) *DriverHandler {
	if nearbyRadiusMeters <= 0 {
		nearbyRadiusMeters = 5000
	}
	return &DriverHandler{directory: dir, nearbyRadius: nearbyRadiusMeters}
}

type availabilityPayload struct {
	Lat       float64 `json:"lat" binding:"required"`
	Lng       float64 `json:"lng" binding:"required"`
	Available *bool   `json:"available" binding:"required"`
}

func (h *DriverHandler) SetAvailability(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if actor.Role != identity.RoleDriver {
		writeError(c, http.StatusForbidden, "only drivers set availability")
		return
	}

	var req availabilityPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	pos := types.Point{Lat: req.Lat, Lng: req.Lng}
	if err := h.directory.SetAvailability(c.Request.Context(), actor.ID, pos, *req.Available); err != nil {
		writeError(c, http.StatusInternalServerError, "availability update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *req.Available})
}

func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng query parameters required")
		return
	}
	radius := h.nearbyRadius
	if raw := c.Query("radius_m"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			radius = v
		}
	}

	drivers, err := h.directory.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "driver lookup failed")
		return
	}

	available := drivers[:0:0]
	for _, d := range drivers {
		if d.Available {
			available = append(available, d)
		}
	}
	if len(available) == 0 {
		writeError(c, http.StatusNotFound, "no drivers available near pickup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": available})
}
