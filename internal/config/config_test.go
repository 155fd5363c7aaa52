package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
registry:
  url: ./configs/calendars.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "linkal", cfg.App.Principal)
	assert.Equal(t, "omit", cfg.App.UnknownProps)
	assert.Equal(t, "8443", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 8, cfg.Upstream.MaxParallel)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Metrics.Enabled)

	limit, err := cfg.Upstream.ResponseLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(16<<20), limit)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  principal: team
  unknown_props: not-found
http:
  port: "9000"
  cors:
    allowed_origins: ["https://cal.example.com"]
registry:
  url: postgres://linkal@localhost/linkal
upstream:
  timeout: 3s
  max_parallel: 2
  max_response_size: 512KiB
rate_limit:
  rps: 5
  burst: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "team", cfg.App.Principal)
	assert.Equal(t, "not-found", cfg.App.UnknownProps)
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, []string{"https://cal.example.com"}, cfg.HTTP.CORS.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 2, cfg.Upstream.MaxParallel)
	assert.InDelta(t, 5.0, cfg.RateLimit.RPS, 0.001)

	limit, err := cfg.Upstream.ResponseLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(512<<10), limit)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
registry:
  url: ./a.json
`)
	t.Setenv("REGISTRY_URL", "./b.json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./b.json", cfg.Registry.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, `
registry:
  url: ./a.json
`)
	t.Setenv(EnvConfigPathName, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./a.json", cfg.Registry.URL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing registry", "app:\n  env: local\n"},
		{"bad size", "registry:\n  url: x\nupstream:\n  max_response_size: lots\n"},
		{"bad policy", "registry:\n  url: x\napp:\n  unknown_props: maybe\n"},
		{"bad parallel", "registry:\n  url: x\nupstream:\n  max_parallel: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_NoPath(t *testing.T) {
	t.Setenv(EnvConfigPathName, "")

	_, err := Load("")
	assert.Error(t, err)
}
