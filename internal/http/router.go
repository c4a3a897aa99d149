// README: Route table and middleware chain.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uride/internal/http/handlers"
	"uride/internal/http/middleware"
	"uride/internal/identity"
	"uride/internal/modules/directory"
	"uride/internal/modules/notify"
	"uride/internal/modules/rating"
	"uride/internal/modules/ride"
	"uride/internal/ws"
)

type Deps struct {
	Rides        *ride.Service
	Directory    directory.Directory
	Inbox        *notify.Inbox
	Tokens       *notify.DeviceTokens
	Ratings      *rating.Service
	Issuer       *identity.TokenIssuer
	Verifier     middleware.ActorVerifier
	Hub          *ws.Hub
	Log          *slog.Logger
	NearbyRadius float64
}

func NewRouter(deps Deps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.Logging(log), middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rides := handlers.NewRideHandler(deps.Rides)
	drivers := handlers.NewDriverHandler(deps.Directory, deps.NearbyRadius)
	notifications := handlers.NewNotificationHandler(deps.Inbox, deps.Tokens)
	ratings := handlers.NewRatingHandler(deps.Ratings)

	api := router.Group("/api")
	if deps.Issuer != nil {
		auth := handlers.NewAuthHandler(deps.Issuer)
		api.POST("/auth/token", auth.Token)
	}

	authed := api.Group("", middleware.Auth(deps.Verifier))
	{
		authed.POST("/rides", rides.Request)
		authed.GET("/rides/current", rides.Current)
		authed.GET("/rides/history", rides.History)
		authed.GET("/rides/:id", rides.Get)
		authed.POST("/rides/:id/accept", rides.Accept)
		authed.POST("/rides/:id/arrive", rides.Arrive)
		authed.POST("/rides/:id/start", rides.Start)
		authed.POST("/rides/:id/complete", rides.Complete)
		authed.POST("/rides/:id/cancel", rides.Cancel)
		authed.POST("/rides/:id/rating", ratings.Submit)

		authed.GET("/drivers/nearby", drivers.Nearby)
		authed.PUT("/drivers/availability", drivers.SetAvailability)

		authed.GET("/notifications", notifications.List)
		authed.GET("/notifications/unread_count", notifications.UnreadCount)
		authed.POST("/notifications/:id/read", notifications.MarkRead)
		authed.POST("/notifications/read_all", notifications.MarkAllRead)
		authed.POST("/notifications/device", notifications.RegisterDevice)

		authed.GET("/ratings", ratings.Received)

		if deps.Hub != nil {
			authed.GET("/ws", deps.Hub.Handler)
		}
	}

	return router
}
