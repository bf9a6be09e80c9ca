package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds JWT signing settings and the bootstrap superuser identity.
type AuthConfig struct {
	JWTSecret       string
	AccessTTLMin    int
	RefreshTTLHours int
	AdminUsername   string
	AdminEmail      string
	AdminPassword   string
}

// ClassifierConfig holds settings for the external inference server hosting
// the leaf and fruit EfficientNet models.
type ClassifierConfig struct {
	ServerURL  string
	TimeoutSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost           string
	Port              string
	RequestTimeoutSec int
	Database          DatabaseConfig
	MinIO             MinIOConfig
	Auth              AuthConfig
	Classifier        ClassifierConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:           getEnv("APP_HOST", "localhost:8000"),
		Port:              getEnv("PORT", "8000"),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 300),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AccessTTLMin:    getEnvInt("JWT_ACCESS_TTL_MIN", 60),
			RefreshTTLHours: getEnvInt("JWT_REFRESH_TTL_HOURS", 168),
			AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
			AdminEmail:      getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		},
		Classifier: ClassifierConfig{
			ServerURL:  getEnv("MODEL_SERVER_URL", ""),
			TimeoutSec: getEnvInt("MODEL_TIMEOUT_SEC", 60),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
