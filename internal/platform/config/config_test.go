package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigs creates configs/<name>.yaml files in a temporary working
// directory.
func writeConfigs(t *testing.T, files map[string]string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", name+".yaml"), []byte(content), 0o600))
	}

	t.Chdir(dir)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, AppConfig{Name: "go-async-context", Version: "dev", Environment: "local"}, cfg.App)
	assert.Equal(t, ServerConfig{
		Port:            DefaultServerPort,
		Host:            "0.0.0.0",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  30 * time.Second,
		MaxRequestSize:  DefaultMaxRequestSize,
	}, cfg.Server)
	assert.Equal(t, LogFileConfig{
		Path:       "./logs/app.log",
		MaxSizeMB:  DefaultLogFileMaxSizeMB,
		MaxBackups: DefaultLogFileMaxBackups,
		MaxAgeDays: DefaultLogFileMaxAgeDays,
		Compress:   true,
	}, cfg.Log.File)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.False(t, cfg.Telemetry.Insecure)
	assert.InDelta(t, 1.0, cfg.Telemetry.SamplingRate, 0)

	want := ContextConfig{
		Name:        DefaultContextName,
		MissingRead: "warn",
		Defaults:    map[string]any{"correlationId": "", "requestId": "", "traceId": ""},
	}
	if diff := cmp.Diff(want, cfg.Context); diff != "" {
		t.Errorf("context config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "trace")
	t.Setenv("APP_TELEMETRY_ENABLED", "true")
	t.Setenv("APP_CONTEXT_NAME", "jobs")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "trace", cfg.Log.Level)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "jobs", cfg.Context.Name)
}

func TestLoad_ProfileFiles(t *testing.T) {
	writeConfigs(t, map[string]string{
		"base": `
server:
  request_timeout: 5s
context:
  name: base
  defaults:
    tenant: none
`,
		"qa": `
app:
  environment: qa
context:
  name: qa-requests
  missing_read: error
`,
	})

	cfg, err := Load("qa")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "qa", cfg.App.Environment)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "qa-requests", cfg.Context.Name)
	assert.Equal(t, "error", cfg.Context.MissingRead)
	assert.Equal(t, "none", cfg.Context.Defaults["tenant"])
	assert.Contains(t, cfg.Context.Defaults, "correlationId", "file defaults merge with built-in ones")
}

func TestLoad_EnvBeatsFiles(t *testing.T) {
	writeConfigs(t, map[string]string{
		"base": "context:\n  name: from-file\n",
	})
	t.Setenv("APP_CONTEXT_NAME", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Context.Name)
}

func TestLoad_MissingProfileIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "go-async-context", cfg.App.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	writeConfigs(t, map[string]string{
		"base": "context: [unterminated\n",
	})

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}
