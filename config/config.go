package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Everything comes from the
// environment (optionally seeded from a .env file) with simple defaults.
type Config struct {
	Port      string
	MediaRoot string // Base directory for artist folders and their tracks
	SiteName  string // Default display name shown by the UI

	AdminPassword  string // Secret gating the admin/upload page
	ViewerPassword string // Secret gating the public listening pages

	// MinIO-backed remote store. When the endpoint or keys are absent the
	// remote backend stays disabled and the app runs purely off MediaRoot.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// UploadTokenTTL bounds the lifetime of presigned upload credentials.
	UploadTokenTTL time.Duration

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a
// default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or
// defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the
	// environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		MediaRoot: getEnv("MEDIA_ROOT", "public/songs"),
		SiteName:  getEnv("SITE_NAME", "beatdrop"),

		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		ViewerPassword: os.Getenv("VIEWER_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "beatdrop"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),

		UploadTokenTTL: getEnvDuration("UPLOAD_TOKEN_TTL", 15*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// RemoteConfigured reports whether enough MinIO settings are present to
// build the remote backend.
func (c *Config) RemoteConfigured() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}
