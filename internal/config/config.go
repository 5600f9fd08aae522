package config

import (
	"os"
	"strconv"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	AppHost string
	Port    string
}

// StorageConfig holds the on-disk data root. Documents, rendered pages, and
// the quota ledger all live under subtrees of DataDir.
type StorageConfig struct {
	DataDir string
}

// RenderConfig holds settings for the external page rasterizer.
type RenderConfig struct {
	// PdftoppmPath is the binary invoked for rasterization. Resolved via PATH
	// when it contains no path separator.
	PdftoppmPath string
	DPI          int
	TimeoutSec   int
}

// QuotaConfig holds daily free-tier quota settings.
// Backend selects the counter store: "file" (default) or "redis".
type QuotaConfig struct {
	FreeDailyLimit int
	Backend        string
	Redis          RedisConfig
}

// RedisConfig holds connection settings for the redis quota backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

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

// MinIOConfig holds object storage settings for the optional upload mirror.
// The mirror is enabled only when Endpoint is non-empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Server   ServerConfig
	Storage  StorageConfig
	Render   RenderConfig
	Quota    QuotaConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			AppHost: getEnv("APP_HOST", "localhost:8080"),
			Port:    getEnv("PORT", "8080"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Render: RenderConfig{
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
			DPI:          getEnvInt("RENDER_DPI", 144),
			TimeoutSec:   getEnvInt("RENDER_TIMEOUT_SEC", 60),
		},
		Quota: QuotaConfig{
			FreeDailyLimit: getEnvInt("FREE_DAILY_LIMIT", 30),
			Backend:        getEnv("QUOTA_BACKEND", "file"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_DB", 0),
			},
		},
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
