package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, read from environment
// variables with sensible development defaults.
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Uploads UploadsConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
	// SeedDefaults creates the default admin/editor users at startup.
	SeedDefaults bool
}

type UploadsConfig struct {
	Dir           string
	MaxUploadSize int64 // bytes
	MaxImageWidth int
	JPEGQuality   int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "change_this_dev_secret"),
			TokenExpiry:  getDurationEnv("TOKEN_EXPIRY", 60*time.Minute),
			SeedDefaults: getEnv("AUTO_CREATE_DEFAULT_ADMIN", "1") == "1",
		},
		Uploads: UploadsConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 5*1024*1024),
			MaxImageWidth: getIntEnv("MAX_IMAGE_WIDTH", 1200),
			JPEGQuality:   getIntEnv("JPEG_QUALITY", 85),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
