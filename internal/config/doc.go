// Package config provides configuration management for battcli.
//
// Two kinds of configuration live here:
//
// Application configuration (Config) controls logging, telemetry and data
// loading. It is loaded from environment variables and an optional YAML file:
//
//  1. Environment variables set explicitly (highest priority)
//  2. Configuration file (battcli.yaml or configs/battcli.yaml)
//  3. Default values from struct tags (lowest priority)
//
// All environment variables use the BATT_ prefix:
//
//	BATT_LOGGING_LEVEL=debug
//	BATT_LOGGING_OUTPUT=both
//	BATT_TELEMETRY_ENABLE_TRACING=true
//	BATT_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/battcli.prom
//	BATT_LOADING_PARALLELISM=8
//
// Analysis configuration (Analysis) describes one analysis run: data source
// selection, the capacity basis, cycle and profile selection, and export
// toggles. It is produced by LoadAnalysis from YAML or by Builder from CLI
// input, and is validated before any analysis runs:
//
//	cfg, err := config.NewBuilder().
//	    WithPaths("/data/cell_58mAh").
//	    WithManualCapacity(58).
//	    WithCycleInput("1 2 3 10-12").
//	    Build()
//
// Validation failures are reported as a single CONFIG error listing every
// violated rule.
package config
