// README: Config loader with env defaults for HTTP, stores, fares, matching, and auth.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type FareConfig struct {
	BaseFare    float64
	PerKmRate   float64
	AvgSpeedKmh float64
}

type MatchingConfig struct {
	RadiusMeters float64
	ProposeDelay time.Duration
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Fare     FareConfig
	Matching MatchingConfig
	Auth     struct {
		JWTSecret           string
		FirebaseProjectID   string
		FirebaseCredentials string
	}
	Maps struct {
		APIKey string
	}
	Log struct {
		Level string
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("URIDE_HTTP_ADDR", ":8080")
	cfg.DB.DSN = os.Getenv("URIDE_DB_DSN")
	cfg.Redis.Addr = envOrDefault("URIDE_REDIS_ADDR", "localhost:6379")
	cfg.Fare.BaseFare = envOrDefaultFloat("URIDE_BASE_FARE", 2.5)
	cfg.Fare.PerKmRate = envOrDefaultFloat("URIDE_PER_KM_RATE", 1.5)
	cfg.Fare.AvgSpeedKmh = envOrDefaultFloat("URIDE_AVG_SPEED_KMH", 40)
	cfg.Matching.RadiusMeters = envOrDefaultFloat("URIDE_MATCH_RADIUS_M", 5000)
	cfg.Matching.ProposeDelay = envOrDefaultDuration("URIDE_MATCH_DELAY", 3*time.Second)
	cfg.Auth.JWTSecret = envOrDefault("URIDE_JWT_SECRET", "dev-secret")
	cfg.Auth.FirebaseProjectID = os.Getenv("URIDE_FIREBASE_PROJECT_ID")
	cfg.Auth.FirebaseCredentials = os.Getenv("URIDE_FIREBASE_CREDENTIALS")
	cfg.Maps.APIKey = os.Getenv("URIDE_MAPS_API_KEY")
	cfg.Log.Level = envOrDefault("URIDE_LOG_LEVEL", "info")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
