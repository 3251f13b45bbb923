package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port          string
	Env           string
	PublicBaseURL string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float64
	GeminiConcurrentReqs int

	// Chat
	ChatTimeout     time.Duration
	ChatIdleTTL     time.Duration
	ChatHistorySize int

	// Maps & places
	GoogleMapsAPIKey string
	PlacesBaseURL    string
	GeocodingBaseURL string
	OverpassURL      string
	OpenMeteoURL     string

	// Storage
	StorageType       string
	StoragePath       string
	S3EndpointURL     string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	port := getEnvOrDefault("PORT", "8080")

	cfg := &Config{
		Port:          port,
		Env:           getEnvOrDefault("ENV", "development"),
		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:"+port),

		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:    getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.7),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		ChatTimeout:     getEnvAsDurationOrDefault("CHAT_TIMEOUT", 60*time.Second),
		ChatIdleTTL:     getEnvAsDurationOrDefault("CHAT_IDLE_TTL", 30*time.Minute),
		ChatHistorySize: getEnvAsIntOrDefault("CHAT_HISTORY_SIZE", 100),

		GoogleMapsAPIKey: getEnvOrDefault("GOOGLE_MAPS_API_KEY", ""),
		PlacesBaseURL:    getEnvOrDefault("PLACES_BASE_URL", "https://places.googleapis.com"),
		GeocodingBaseURL: getEnvOrDefault("GEOCODING_BASE_URL", "https://maps.googleapis.com"),
		OverpassURL:      getEnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OpenMeteoURL:     getEnvOrDefault("OPEN_METEO_URL", "https://api.open-meteo.com"),

		StorageType:       getEnvOrDefault("STORAGE_TYPE", "local"),
		StoragePath:       getEnvOrDefault("STORAGE_PATH", "./uploads"),
		S3EndpointURL:     getEnvOrDefault("S3_ENDPOINT_URL", ""),
		S3Region:          getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Bucket:          getEnvOrDefault("S3_BUCKET", "hangout-profile-images"),
		S3AccessKeyID:     getEnvOrDefault("AWS_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnvOrDefault("AWS_SECRET_ACCESS_KEY", ""),

		SMTPHost: getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort: getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser: getEnvOrDefault("SMTP_USER", ""),
		SMTPPass: getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "noreply@hangout.guide"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// getEnvAsDurationOrDefault accepts Go duration strings ("90s", "5m").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
