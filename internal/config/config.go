package config

import (
	"os"
	"strconv"
	"time"
)

type PixConfig struct {
	DefaultKey      string
	FallbackName    string
	FallbackCity    string
	QRImageSize     int
	QRCacheTTL      time.Duration
}

func LoadPixConfig() *PixConfig {
	return &PixConfig{
		DefaultKey:      getEnv("PIX_DEFAULT_KEY", ""),
		FallbackName:    getEnv("PIX_FALLBACK_NAME", "PAGAMENTO"),
		FallbackCity:    getEnv("PIX_FALLBACK_CITY", "BRASIL"),
		QRImageSize:     getEnvAsInt("PIX_QR_IMAGE_SIZE", 256),
		QRCacheTTL:      getEnvAsDuration("PIX_QR_CACHE_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
