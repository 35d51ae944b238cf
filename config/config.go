package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with defaults suitable for local
// development.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string

	// StorageDriver selects where cover images live: "local" keeps them on
	// disk under CoverUploadDir, "minio" uses signed uploads against a bucket.
	StorageDriver  string
	UploadDir      string
	CoverUploadDir string
	MaxImageSize   int64 // bytes
	AllowedTypes   []string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	// MinioPublicBaseURL is the base of the public read URL handed to
	// clients, e.g. "https://storage.example.com". Defaults to the endpoint.
	MinioPublicBaseURL string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

// Reload re-reads the .env file, letting its values override what an earlier
// Load already placed in the process environment. Used by the watcher so
// edits to .env actually take effect.
func Reload() *Config {
	if err := godotenv.Overload(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

func fromEnv() *Config {
	uploadBase := getEnv("UPLOAD_DIR", "uploads")
	endpoint := getEnv("MINIO_ENDPOINT", "127.0.0.1:9000")

	publicBase := getEnv("MINIO_PUBLIC_BASE_URL", "")
	if publicBase == "" {
		scheme := "http"
		if getEnvBool("MINIO_USE_SSL", false) {
			scheme = "https"
		}
		publicBase = scheme + "://" + endpoint
	}

	return &Config{
		HTTPPort: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "songvault"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		StorageDriver:  getEnv("STORAGE_DRIVER", "minio"),
		UploadDir:      uploadBase,
		CoverUploadDir: filepath.Join(uploadBase, "covers"),
		MaxImageSize:   int64(getEnvInt("MAX_IMAGE_SIZE", 2<<20)),
		AllowedTypes:   splitList(getEnv("ALLOWED_IMAGE_TYPES", "image/jpeg,image/png,image/gif")),

		MinioEndpoint:      endpoint,
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "songvault"),
		MinioRegion:        getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),
		MinioPublicBaseURL: strings.TrimRight(publicBase, "/"),

		LogLevel:      getEnv("LOG_LEVEL", "debug"),
		LogPath:       getEnv("LOG_PATH", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE", 28),
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
