package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	// Empty disables the catalog snapshot store.
	PostgresDSN string

	NATSURL     string
	NATSSubject string

	AtlasBaseURL        string
	AtlasArchiveURL     string
	AtlasTimeoutSeconds int
	AtlasRateLimitRPS   float64

	DownloadDir string

	CatalogTTLMinutes int
	SessionTTLMinutes int

	// Empty uses the embedded vocabulary tables.
	VocabPath string

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "downloads.requested"),

		AtlasBaseURL:        mustEnv("ATLAS_BASE_URL", "https://www.ebi.ac.uk/gxa"),
		AtlasArchiveURL:     mustEnv("ATLAS_ARCHIVE_URL", "https://ftp.ebi.ac.uk/pub/databases/microarray/data/atlas/experiments"),
		AtlasTimeoutSeconds: mustEnvInt("ATLAS_TIMEOUT_SECONDS", 30),
		AtlasRateLimitRPS:   mustEnvFloat("ATLAS_RATE_LIMIT_RPS", 1),

		DownloadDir: mustEnv("DOWNLOAD_DIR", "./data/downloads"),

		CatalogTTLMinutes: mustEnvInt("CATALOG_TTL_MINUTES", 15),
		SessionTTLMinutes: mustEnvInt("SESSION_TTL_MINUTES", 30),

		VocabPath: mustEnv("VOCAB_PATH", ""),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
