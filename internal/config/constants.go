package config

// Application constants
const (
	AppName    = "battcli"
	AppVersion = "0.3.0"

	EnvPrefix         = "BATT"
	DefaultConfigFile = "battcli.yaml"
	DefaultLogFile    = "logs/battcli.log"

	DefaultParallelism = 4
)

// Analysis defaults
const (
	DefaultCRate          = 0.2
	DefaultManualCapacity = 58.0

	// DefaultCapacityMAh is the capacity basis used when nothing better is known.
	DefaultCapacityMAh = 58.0

	DefaultYMax = 1.10
	DefaultYMin = 0.65

	DefaultVoltageMin = 2.5
	DefaultVoltageMax = 4.7
	DefaultVoltageGap = 0.1
	DefaultDQDVScale  = 1.0
)
