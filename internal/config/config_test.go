package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "battcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "battcli", cfg.Telemetry.ServiceName)
				assert.False(t, cfg.Telemetry.EnableTracing)
				assert.True(t, cfg.Telemetry.EnableMetrics)
				assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
				assert.Equal(t, DefaultParallelism, cfg.Loading.Parallelism)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"BATT_LOGGING_LEVEL":          "debug",
				"BATT_LOADING_PARALLELISM":    "2",
				"BATT_TELEMETRY_METRICS_FILE": "/tmp/battcli.prom",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 2, cfg.Loading.Parallelism)
				assert.Equal(t, "/tmp/battcli.prom", cfg.Telemetry.MetricsFile)
			},
		},
		{
			name: "file values fill unset environment",
			fileContent: `
logging:
  level: warn
  output: both
  file_path: /var/log/battcli.log
telemetry:
  enable_tracing: true
loading:
  parallelism: 8
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "/var/log/battcli.log", cfg.Logging.FilePath)
				assert.True(t, cfg.Telemetry.EnableTracing)
				assert.Equal(t, 8, cfg.Loading.Parallelism)
			},
		},
		{
			name: "file can switch metrics off",
			fileContent: `
logging:
  format: text
telemetry:
  enable_metrics: false
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Telemetry.EnableMetrics)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "environment switch wins over file",
			env:  map[string]string{"BATT_TELEMETRY_ENABLE_METRICS": "true"},
			fileContent: `
telemetry:
  enable_metrics: false
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Telemetry.EnableMetrics)
			},
		},
		{
			name: "explicit environment wins over file",
			env:  map[string]string{"BATT_LOGGING_LEVEL": "error"},
			fileContent: `
logging:
  level: debug
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "error", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid logging output",
			env:     map[string]string{"BATT_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "invalid parallelism",
			env:     map[string]string{"BATT_LOADING_PARALLELISM": "0"},
			wantErr: true,
		},
		{
			name:        "malformed file",
			fileContent: "logging: [unterminated",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.fileContent != "" {
				path = writeConfigFile(t, tt.fileContent)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, AppName, cfg.Telemetry.ServiceName)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}

func TestValidate_LogFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"json", "json"},
		{"TEXT", "text"},
		{"logfmt", "json"},
		{"", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.Format = tt.in

			require.NoError(t, cfg.validate())
			assert.Equal(t, tt.want, cfg.Logging.Format)
		})
	}
}
