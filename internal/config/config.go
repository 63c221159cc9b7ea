package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Log       LogConfig
	AdminAPI  AdminAPIConfig
	Reconcile ReconcileConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Addr string
}

type LogConfig struct {
	Level       string
	Development bool
}

// AdminAPIConfig - привилегированный канал, через который идет эскалация
type AdminAPIConfig struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

type ReconcileConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Deadline    time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "portal"),
			Password: getEnv("DB_PASSWORD", "portal"),
			DBName:   getEnv("DB_NAME", "uniportal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
		AdminAPI: AdminAPIConfig{
			URL:        getEnv("ADMIN_API_URL", ""),
			ServiceKey: getEnv("ADMIN_API_KEY", ""),
			Timeout:    getEnvDuration("RECONCILE_ADMIN_TIMEOUT", 5*time.Second),
		},
		Reconcile: ReconcileConfig{
			MaxRetries:  getEnvInt("RECONCILE_MAX_RETRIES", 2),
			BaseBackoff: getEnvDuration("RECONCILE_BASE_BACKOFF", 200*time.Millisecond),
			MaxBackoff:  getEnvDuration("RECONCILE_MAX_BACKOFF", 2*time.Second),
			Deadline:    getEnvDuration("RECONCILE_DEADLINE", 12*time.Second),
		},
	}
}

// EscalationEnabled сообщает, настроен ли альтернативный канал
func (c AdminAPIConfig) EscalationEnabled() bool {
	return c.URL != "" && c.ServiceKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
