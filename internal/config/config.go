package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Firebase FirebaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Env  string
	Port string
}

type FirebaseConfig struct {
	// ServiceAccountJSON is the raw service account credential. Private key
	// newlines must be escaped (\\n) when set through the environment.
	ServiceAccountJSON string
}

type RedisConfig struct {
	// Addr empty disables the token cache entirely.
	Addr     string
	Password string
	TokenTTL time.Duration
}

type CORSConfig struct {
	Origins []string
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// Load .env file (ignore error if not exists - e.g. in Docker)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading from environment variables")
	}

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_CACHE_TTL", "5m"))
	if err != nil {
		tokenTTL = 5 * time.Minute
	}

	return &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "development"),
			Port: getEnv("APP_PORT", "8080"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			TokenTTL: tokenTTL,
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
