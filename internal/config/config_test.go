package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PROCODE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9090/Monolith", cfg.Server.URL)
	require.Equal(t, 60*time.Second, cfg.Server.Timeout)
	require.Equal(t, 3, cfg.Client.RetryAttempts)
	require.Equal(t, "pro-code-training", cfg.Vector.TrainingTag)
	require.Equal(t, 512, cfg.Vector.ContentLength)
	require.Equal(t, filepath.Join(home, ".local", "share", "procode", "dev.db"), cfg.Dev.DatabasePath)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "procode.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
url = "https://semoss.example.com/Monolith/"
timeout = "5s"

[vector]
embedder_engine = "emb-123"
query_limit = 8
`), 0o644))
	t.Setenv("PROCODE_CONFIG", path)
	t.Setenv("PROCODE_VECTOR_QUERY_LIMIT", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://semoss.example.com/Monolith", cfg.Server.URL)
	require.Equal(t, 5*time.Second, cfg.Server.Timeout)
	require.Equal(t, "emb-123", cfg.Vector.EmbedderEngine)
	require.Equal(t, 3, cfg.Vector.QueryLimit)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nurl="), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PROCODE_CONFIG", "")
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Server.URL = "http://127.0.0.1:8080/Monolith"
	cfg.Client.RetryBackoff = time.Second
	cfg.Vector.EmbedderEngine = "emb-9"
	cfg.Dev.Password = "not-saved"
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "not-saved")

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Server.URL, again.Server.URL)
	require.Equal(t, time.Second, again.Client.RetryBackoff)
	require.Equal(t, "emb-9", again.Vector.EmbedderEngine)
	require.Equal(t, "dev", again.Dev.Password)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"info\"\n"), 0o644))

	var level atomic.Value
	require.NoError(t, Watch(path, func(cfg Config, err error) {
		if err == nil {
			level.Store(cfg.Log.Level)
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))
	require.Eventually(t, func() bool {
		v, _ := level.Load().(string)
		return v == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.Error(t, Watch(filepath.Join(t.TempDir(), "absent.toml"), func(Config, error) {}))
}
