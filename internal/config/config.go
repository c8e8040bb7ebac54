package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	ServerAddr  string
	LogLevel    slog.Level
	LogFormat   string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOSecure    bool

	// MaxAttachmentSize is in bytes and bounds each file and each request total.
	MaxAttachmentSize int64
	AdminKey          string
	BotToken          string

	MediaWorkerURL        string
	ProxyTimeout          time.Duration
	MetadataDomainLimit   int
	MetadataIngestEnabled bool

	EnrichWorkers   int
	EnrichQueueSize int
	EnrichRate      float64

	MessageCacheTTL time.Duration
}

// fileConfig mirrors the optional TOML file. Environment variables win over it.
type fileConfig struct {
	App struct {
		ServerAddr            string  `toml:"server_addr"`
		RedisURL              string  `toml:"redis_url"`
		LogLevel              string  `toml:"log_level"`
		LogFormat             string  `toml:"log_format"`
		MinIOEndpoint         string  `toml:"minio_endpoint"`
		MinIOBucket           string  `toml:"minio_bucket"`
		MaxAttachmentSizeMB   float64 `toml:"max_attachment_size_mb"`
		MediaWorkerURL        string  `toml:"media_worker_url"`
		ProxyTimeout          string  `toml:"proxy_timeout"`
		MetadataDomainLimit   int     `toml:"metadata_domain_limit"`
		MetadataIngestEnabled *bool   `toml:"metadata_ingest_enabled"`
		EnrichWorkers         int     `toml:"enrich_workers"`
		EnrichQueueSize       int     `toml:"enrich_queue_size"`
		EnrichRate            float64 `toml:"enrich_rate"`
		MessageCacheTTL       string  `toml:"message_cache_ttl"`
	} `toml:"app"`
}

const (
	DefaultServerAddr          = ":8080"
	DefaultRedisURL            = "redis://localhost:6379"
	DefaultMinIOBucket         = "attachments"
	DefaultMaxAttachmentSizeMB = 30
	DefaultProxyTimeout        = 10 * time.Second
	DefaultMetadataDomainLimit = 100
	DefaultEnrichWorkers       = 4
	DefaultEnrichQueueSize     = 256
	DefaultEnrichRate          = 20
	DefaultMessageCacheTTL     = 10 * time.Minute
)

func Load() *Config {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			panic(fmt.Sprintf("reading config file %s: %v", path, err))
		}
	}
	app := file.App

	ingest := true
	if app.MetadataIngestEnabled != nil {
		ingest = *app.MetadataIngestEnabled
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    envOrDefault("REDIS_URL", orString(app.RedisURL, DefaultRedisURL)),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ServerAddr:  envOrDefault("SERVER_ADDR", orString(app.ServerAddr, DefaultServerAddr)),
		LogLevel:    parseLogLevel(envOrDefault("LOG_LEVEL", app.LogLevel)),
		LogFormat:   envOrDefault("LOG_FORMAT", orString(app.LogFormat, "text")),

		MinIOEndpoint:  envOrDefault("MINIO_ENDPOINT", app.MinIOEndpoint),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    envOrDefault("MINIO_BUCKET", orString(app.MinIOBucket, DefaultMinIOBucket)),
		MinIOSecure:    envBool("MINIO_SECURE", false),

		MaxAttachmentSize: megabytes(envFloat("MAX_ATTACHMENT_SIZE_MB", orFloat(app.MaxAttachmentSizeMB, DefaultMaxAttachmentSizeMB))),
		AdminKey:          os.Getenv("ADMIN_KEY"),
		BotToken:          os.Getenv("BOT_TOKEN"),

		MediaWorkerURL:        strings.TrimRight(envOrDefault("MEDIA_WORKER_URL", app.MediaWorkerURL), "/"),
		ProxyTimeout:          envDuration("PROXY_TIMEOUT", orDuration(app.ProxyTimeout, DefaultProxyTimeout)),
		MetadataDomainLimit:   envInt("METADATA_DOMAIN_LIMIT", orInt(app.MetadataDomainLimit, DefaultMetadataDomainLimit)),
		MetadataIngestEnabled: envBool("METADATA_INGEST_ENABLED", ingest),

		EnrichWorkers:   envInt("ENRICH_WORKERS", orInt(app.EnrichWorkers, DefaultEnrichWorkers)),
		EnrichQueueSize: envInt("ENRICH_QUEUE_SIZE", orInt(app.EnrichQueueSize, DefaultEnrichQueueSize)),
		EnrichRate:      envFloat("ENRICH_RATE", orFloat(app.EnrichRate, DefaultEnrichRate)),

		MessageCacheTTL: envDuration("MESSAGE_CACHE_TTL", orDuration(app.MessageCacheTTL, DefaultMessageCacheTTL)),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func megabytes(mb float64) int64 {
	return int64(mb * 1024 * 1024)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func orString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func orDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
