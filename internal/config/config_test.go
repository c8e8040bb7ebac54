package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/liventcord")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
	assert.Equal(t, DefaultRedisURL, cfg.RedisURL)
	assert.Equal(t, int64(30*1024*1024), cfg.MaxAttachmentSize)
	assert.Equal(t, DefaultMetadataDomainLimit, cfg.MetadataDomainLimit)
	assert.True(t, cfg.MetadataIngestEnabled)
	assert.Equal(t, DefaultProxyTimeout, cfg.ProxyTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		assert.Contains(t, r, "DATABASE_URL")
		assert.Contains(t, r, "JWT_SECRET")
	}()
	Load()
}

func TestLoad_FileThenEnv(t *testing.T) {
	setRequired(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
server_addr = ":9090"
max_attachment_size_mb = 2.5
media_worker_url = "http://proxy.local/"
proxy_timeout = "3s"
metadata_ingest_enabled = false
enrich_workers = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENRICH_WORKERS", "2")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, int64(2.5*1024*1024), cfg.MaxAttachmentSize)
	assert.Equal(t, "http://proxy.local", cfg.MediaWorkerURL)
	assert.Equal(t, 3*time.Second, cfg.ProxyTimeout)
	assert.False(t, cfg.MetadataIngestEnabled)
	assert.Equal(t, 2, cfg.EnrichWorkers, "environment must override the file")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "parseLogLevel(%q)", in)
	}
}
