package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for the service, loaded from the
// environment once at startup.
type Config struct {
	Server   ServerConfig
	OTP      OTPConfig
	Telegram TelegramConfig
	Eskiz    EskizConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// ServerConfig configures the HTTP server and runtime environment.
type ServerConfig struct {
	Port        string
	Environment string
	CORSOrigins string
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server:   loadServerConfig(),
		OTP:      loadOTPConfig(),
		Telegram: loadTelegramConfig(),
		Eskiz:    loadEskizConfig(),
		Redis:    loadRedisConfig(),
		Auth:     loadAuthConfig(),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

// IsProduction reports whether the service runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
