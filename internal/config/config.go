package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Loading   LoadingConfig   `yaml:"loading" envconfig:"LOADING"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/battcli.log"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"battcli"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	MetricsFile    string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// LoadingConfig controls how data sources are read
type LoadingConfig struct {
	Parallelism int `yaml:"parallelism" envconfig:"PARALLELISM" default:"4"`
}

// Load loads configuration from environment variables and an optional YAML file.
// Explicitly set environment variables take precedence over file values.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, switches, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, switches, cfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configFile, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileSwitches records which booleans a config file sets, since a decoded
// false is indistinguishable from an absent key
type fileSwitches struct {
	Telemetry struct {
		EnableTracing *bool `yaml:"enable_tracing"`
		EnableMetrics *bool `yaml:"enable_metrics"`
	} `yaml:"telemetry"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, fileSwitches, error) {
	var switches fileSwitches
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, switches, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, switches, err
	}
	if err := yaml.Unmarshal(data, &switches); err != nil {
		return nil, switches, err
	}
	return &cfg, switches, nil
}

// mergeConfigs overlays file values onto envConfig unless the corresponding
// environment variable was set explicitly
func mergeConfigs(fileConfig Config, switches fileSwitches, envConfig Config) Config {
	mergeString(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	mergeString(&envConfig.Logging.Format, fileConfig.Logging.Format, "LOGGING_FORMAT")
	mergeString(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	mergeString(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	mergeString(&envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	mergeString(&envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")
	mergeString(&envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	mergeString(&envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter, "TELEMETRY_METRIC_EXPORTER")
	mergeString(&envConfig.Telemetry.MetricsFile, fileConfig.Telemetry.MetricsFile, "TELEMETRY_METRICS_FILE")
	mergeBool(&envConfig.Telemetry.EnableTracing, switches.Telemetry.EnableTracing, "TELEMETRY_ENABLE_TRACING")
	mergeBool(&envConfig.Telemetry.EnableMetrics, switches.Telemetry.EnableMetrics, "TELEMETRY_ENABLE_METRICS")
	if !envSet("TELEMETRY_SAMPLE_RATIO") && fileConfig.Telemetry.SampleRatio > 0 {
		envConfig.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}

	if !envSet("LOADING_PARALLELISM") && fileConfig.Loading.Parallelism > 0 {
		envConfig.Loading.Parallelism = fileConfig.Loading.Parallelism
	}

	return envConfig
}

func mergeBool(dst *bool, fileValue *bool, envKey string) {
	if fileValue != nil && !envSet(envKey) {
		*dst = *fileValue
	}
}

func mergeString(dst *string, fileValue, envKey string) {
	if fileValue != "" && !envSet(envKey) {
		*dst = fileValue
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
		c.Logging.Format = strings.ToLower(c.Logging.Format)
	default:
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}

	if c.Loading.Parallelism < 1 {
		return fmt.Errorf("loading parallelism must be at least 1, got %d", c.Loading.Parallelism)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "stdout",
			SampleRatio:    1.0,
			EnableMetrics:  true,
			MetricExporter: "prometheus",
		},
		Loading: LoadingConfig{
			Parallelism: DefaultParallelism,
		},
	}
}
