// README: Ride lifecycle endpoints for riders and drivers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uride/internal/modules/ride"
	"uride/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(rides *ride.Service) *RideHandler {
	return &RideHandler{rides: rides}
}

type pointPayload struct {
	Lat     float64 `json:"lat" binding:"required"`
	Lng     float64 `json:"lng" binding:"required"`
	Address string  `json:"address"`
}

func (p pointPayload) toPoint() types.Point {
	return types.Point{Lat: p.Lat, Lng: p.Lng, Address: p.Address}
}

type requestRidePayload struct {
	Pickup  pointPayload `json:"pickup" binding:"required"`
	Dropoff pointPayload `json:"dropoff" binding:"required"`
}

func (h *RideHandler) Request(c *gin.Context) {
	var req requestRidePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	r, err := h.rides.Request(c.Request.Context(), ride.RequestCommand{
		Pickup:  req.Pickup.toPoint(),
		Dropoff: req.Dropoff.toPoint(),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RideHandler) Accept(c *gin.Context) {
	r, err := h.rides.Accept(c.Request.Context(), ride.AcceptCommand{RideID: rideID(c)})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) Arrive(c *gin.Context) {
	r, err := h.rides.Arrive(c.Request.Context(), ride.ArriveCommand{RideID: rideID(c)})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) Start(c *gin.Context) {
	r, err := h.rides.Start(c.Request.Context(), ride.StartCommand{RideID: rideID(c)})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) Complete(c *gin.Context) {
	r, err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{RideID: rideID(c)})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type cancelPayload struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	var req cancelPayload
	// Body is optional on cancel.
	_ = c.ShouldBindJSON(&req)

	r, err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{RideID: rideID(c), Reason: req.Reason})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) Current(c *gin.Context) {
	r, err := h.rides.CurrentRide(c.Request.Context())
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) History(c *gin.Context) {
	rides, err := h.rides.History(c.Request.Context())
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.rides.Get(c.Request.Context(), rideID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func rideID(c *gin.Context) types.ID {
	return types.ID(c.Param("id"))
}
