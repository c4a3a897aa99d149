// README: API entrypoint: wires stores, matching, notifications, and the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uride/internal/config"
	uridehttp "uride/internal/http"
	"uride/internal/http/middleware"
	"uride/internal/identity"
	"uride/internal/infra"
	"uride/internal/kv"
	"uride/internal/logger"
	"uride/internal/maps"
	"uride/internal/modules/directory"
	"uride/internal/modules/geo"
	"uride/internal/modules/matching"
	"uride/internal/modules/notify"
	"uride/internal/modules/rating"
	"uride/internal/modules/ride"
	"uride/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logger.New("uride-api", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Error("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	store := kv.NewRedisStore(redisClient)

	var archive ride.Archive
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = ride.NewPGArchive(pool)
	} else {
		log.Warn("no database configured, ride audit events disabled")
	}

	issuer := identity.NewTokenIssuer(cfg.Auth.JWTSecret)
	var verifier middleware.ActorVerifier = issuer
	var fcmSink notify.Sink
	tokens := notify.NewDeviceTokens(store)
	if cfg.Auth.FirebaseProjectID != "" {
		fb, err := infra.NewFirebase(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentials)
		if err != nil {
			log.Error("firebase init failed", "error", err)
			os.Exit(1)
		}
		fbVerifier, err := fb.ActorVerifier(ctx)
		if err != nil {
			log.Error("firebase auth init failed", "error", err)
			os.Exit(1)
		}
		verifier = fbVerifier
		msg, err := fb.Messaging(ctx)
		if err != nil {
			log.Error("firebase messaging init failed", "error", err)
			os.Exit(1)
		}
		fcmSink = notify.NewFCMSink(msg, tokens)
	}

	var geocoder ride.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			log.Error("maps client init failed", "error", err)
			os.Exit(1)
		}
		geocoder = g
	}

	hub := ws.NewHub(log)
	inbox := notify.NewInbox(store)
	sinks := []notify.Sink{hub}
	if fcmSink != nil {
		sinks = append(sinks, fcmSink)
	}
	notifier := notify.NewService(inbox, nil, log, sinks...)

	rideStore := ride.NewKVStore(store)
	rides := ride.NewService(ride.Deps{
		Store:    rideStore,
		Calc:     geo.NewCalculator(geo.Rates(cfg.Fare)),
		Notifier: notifier,
		Archive:  archive,
		Geocoder: geocoder,
		Log:      log,
	})

	dir := directory.NewRedisDirectory(redisClient)
	matcher := matching.NewService(dir, rides, matching.Config{
		RadiusMeters: cfg.Matching.RadiusMeters,
		ProposeDelay: cfg.Matching.ProposeDelay,
	}, log)
	rides.SetMatcher(matcher)

	ratings := rating.NewService(rideStore, store, log)

	router := uridehttp.NewRouter(uridehttp.Deps{
		Rides:        rides,
		Directory:    dir,
		Inbox:        inbox,
		Tokens:       tokens,
		Ratings:      ratings,
		Issuer:       issuer,
		Verifier:     verifier,
		Hub:          hub,
		Log:          log,
		NearbyRadius: cfg.Matching.RadiusMeters,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
	go func() {
		log.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
