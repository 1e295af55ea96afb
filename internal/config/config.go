package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	AppEnv             string
	StripeSecretKey    string
	StreamKey          string
	StreamSecret       string
	ClerkSecretKey     string
	ClerkBaseURL       string
	TaskSyncURL        string
	TaskSyncAPIKey     string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		StreamKey:          getEnv("STREAM_KEY", ""),
		StreamSecret:       getEnv("STREAM_SECRET", ""),
		ClerkSecretKey:     getEnv("CLERK_SECRET_KEY", ""),
		ClerkBaseURL:       getEnv("CLERK_BASE_URL", ""),
		TaskSyncURL:        getEnv("TASK_SYNC_URL", ""),
		TaskSyncAPIKey:     getEnv("TASK_SYNC_API_KEY", ""),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", ""),
	}, nil
}

// DatabaseURL loads the .env file and returns DB_URL, for tooling that needs
// the database connection without the full server config.
func DatabaseURL() string {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return getEnv("DB_URL", "")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
