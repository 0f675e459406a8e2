package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"port": 8080,
	"jwt_secret": "secret",
	"database": {"dsn": "postgres://localhost/vitaldash?sslmode=disable"},
	"ai": {
		"generators": [{"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "k"}}],
		"embedders": [{"provider": "gemini", "model": "text-embedding-004", "data": {"api_key": "k"}}]
	},
	"index": {"dir": "/tmp/vitaldash-index"}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, 750, cfg.Index.ChunkSize)
	require.Equal(t, 120, cfg.Index.ChunkOverlap)
	require.Equal(t, 4, cfg.Index.TopK)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "* * * * *", cfg.Schedule.ReminderSpec)
	require.Equal(t, 60, cfg.AI.TimeoutSeconds)
}

func TestLoadRejectsOverlapNotBelowChunkSize(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/vitaldash"},
		"ai": {
			"generators": [{"provider": "gemini", "model": "m", "data": {}}],
			"embedders": [{"provider": "gemini", "model": "m", "data": {}}]
		},
		"index": {"dir": "/tmp/x", "chunk_size": 100, "chunk_overlap": 100}
	}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRequiresEmbedders(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/vitaldash"},
		"ai": {"generators": [{"provider": "gemini", "model": "m", "data": {}}]},
		"index": {"dir": "/tmp/x"}
	}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
