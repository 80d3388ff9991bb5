package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectID      string
	Region         string
	Port           string
	LogLevel       string
	VertexModel    string
	LedgerTimezone string        // IANA name for the canonical ledger day; UTC if unset
	StreamTimeout  time.Duration // wall-clock budget for one generation
	HistoryLimit   int           // most recent messages forwarded to the model
}

func New() *Config {
	// .env is a local-dev convenience; missing file is fine.
	_ = godotenv.Load()

	return &Config{
		ProjectID:      os.Getenv("PROJECTID"),
		Region:         os.Getenv("REGION"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       os.Getenv("LOGLEVEL"),
		VertexModel:    getEnv("VERTEXMODEL", "gemini-1.5-flash"),
		LedgerTimezone: getEnv("LEDGERTIMEZONE", "UTC"),
		StreamTimeout:  getEnvDuration("STREAMTIMEOUT", 30*time.Second),
		HistoryLimit:   getEnvInt("HISTORYLIMIT", 12),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
