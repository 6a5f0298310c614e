package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, 3, cfg.Fetch.MaxRetries)
	require.Equal(t, 5*time.Second, cfg.RetryDelay())
	require.Equal(t, []string{"zhihu"}, cfg.SourceNames())
	require.Equal(t, "https://www.zhihu.com", cfg.Sources["zhihu"].BaseURL)
	require.Equal(t, "zhihu_hot_items", cfg.DB.Collections.Items)
}

func TestLoadConfigFileLocalOverrideAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
db:
  driver: memory
fetch:
  max_retries: 1
  retry_delay_sec: 0
  headers:
    Accept-Language: zh-CN
sources:
  mirror:
    url: http://mirror.example.com/hot
schedule:
  interval_sec: 60
`)
	writeFile(t, filepath.Join(dir, "config.local.yaml"), `
fetch:
  max_retries: 2
`)
	t.Setenv("ZH_COOKIE", "z_c0=abc")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "memory", cfg.DB.Driver)
	require.Equal(t, 2, cfg.Fetch.MaxRetries)
	require.Equal(t, time.Minute, cfg.Interval())
	require.Equal(t, []string{"mirror"}, cfg.SourceNames())

	src := cfg.Sources["mirror"]
	require.Equal(t, "mirror", src.Name)
	require.Equal(t, "http://mirror.example.com", src.BaseURL)

	headers := cfg.RequestHeaders()
	require.Equal(t, "z_c0=abc", headers["Cookie"])
	require.Equal(t, "zh-CN", headers["Accept-Language"])
	require.Equal(t, DefaultUserAgent, headers["User-Agent"])
}

func TestLoadConfigLocalOverrideCanSetZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
fetch:
  max_retries: 3
  retry_delay_sec: 5
  timeout_sec: 20
sources:
  zhihu:
    url: https://www.zhihu.com/hot
    base_url: https://zhihu.example.com
`)
	writeFile(t, filepath.Join(dir, "config.local.yaml"), `
fetch:
  max_retries: 0
  retry_delay_sec: 0
sources:
  zhihu:
    url: http://localhost:8080/hot
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 0, cfg.Fetch.MaxRetries)
	require.Zero(t, cfg.RetryDelay())
	require.Equal(t, 20*time.Second, cfg.Timeout())

	src := cfg.Sources["zhihu"]
	require.Equal(t, "http://localhost:8080/hot", src.URL)
	require.Equal(t, "https://zhihu.example.com", src.BaseURL)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "db:\n  driver: redis\n")

	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "unknown db.driver")
}
