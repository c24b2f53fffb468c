package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "battcli/internal/errors"
)

// CapacityMode selects how the capacity basis is determined
type CapacityMode string

const (
	CapacityModeAuto   CapacityMode = "auto_crate"
	CapacityModeManual CapacityMode = "manual"
)

// DCIRMode identifies the DCIR measurement protocol of a test
type DCIRMode string

const (
	DCIRModeStandard DCIRMode = "standard"
	DCIRModePulse    DCIRMode = "pulse"
	DCIRModeRSS      DCIRMode = "rss"
)

// ProfileLayout groups profile plots by cycle or by cell
type ProfileLayout string

const (
	ProfileLayoutByCycle ProfileLayout = "by_cycle"
	ProfileLayoutByCell  ProfileLayout = "by_cell"
)

// Analysis is the validated configuration for one analysis run.
// Treat it as read-only once Build or LoadAnalysis has returned it.
type Analysis struct {
	Path     PathConfig     `yaml:"path"`
	Capacity CapacityConfig `yaml:"capacity"`
	Cycle    *CycleConfig   `yaml:"cycle,omitempty"`
	Profile  *ProfileConfig `yaml:"profile,omitempty"`
	Export   ExportConfig   `yaml:"export"`
}

// PathConfig selects data sources, either through a manifest or directly.
type PathConfig struct {
	UseManifest  bool     `yaml:"use_manifest"`
	ManifestFile string   `yaml:"manifest_file" validate:"required_if=UseManifest true"`
	ManualPaths  []string `yaml:"manual_paths"`
	FolderPaths  []string `yaml:"folder_paths"`
}

// CapacityConfig holds the capacity basis settings
type CapacityConfig struct {
	Mode           CapacityMode `yaml:"mode"`
	CRate          float64      `yaml:"c_rate"`
	ManualCapacity float64      `yaml:"manual_capacity"`
}

// CycleRange is an inclusive cycle-number window
type CycleRange struct {
	Start int `yaml:"start" validate:"gt=0"`
	End   int `yaml:"end" validate:"gt=0,gtefield=Start"`
}

// Contains reports whether n lies inside the range
func (r CycleRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// Numbers expands the range into its cycle numbers
func (r CycleRange) Numbers() []int {
	if r.End < r.Start {
		return nil
	}
	out := make([]int, 0, r.End-r.Start+1)
	for n := r.Start; n <= r.End; n++ {
		out = append(out, n)
	}
	return out
}

// CycleConfig holds per-cycle analysis settings
type CycleConfig struct {
	CycleNumbers []int       `yaml:"cycle_numbers" validate:"omitempty,dive,gt=0"`
	Range        *CycleRange `yaml:"range,omitempty"`
	XMax         float64     `yaml:"x_max" validate:"gte=0"`
	YMax         float64     `yaml:"y_max"`
	YMin         float64     `yaml:"y_min"`
	DCIRMode     DCIRMode    `yaml:"dcir_mode" validate:"oneof=standard pulse rss"`
	DCIRScale    float64     `yaml:"dcir_scale" validate:"gte=0"`
}

// ProfileConfig holds voltage profile settings consumed by plotting collaborators
type ProfileConfig struct {
	CycleNumbers []int         `yaml:"cycle_numbers" validate:"omitempty,dive,gt=0"`
	Range        *CycleRange   `yaml:"range,omitempty"`
	Layout       ProfileLayout `yaml:"layout" validate:"oneof=by_cycle by_cell"`
	VoltageMin   float64       `yaml:"voltage_min"`
	VoltageMax   float64       `yaml:"voltage_max" validate:"gtfield=VoltageMin"`
	VoltageGap   float64       `yaml:"voltage_gap" validate:"gte=0"`
	Smoothing    int           `yaml:"smoothing" validate:"gte=0"`
	CutoffCRate  float64       `yaml:"cutoff_crate" validate:"gte=0"`
	DQDVScale    float64       `yaml:"dqdv_scale"`
	SwapDQDVAxes bool          `yaml:"swap_dqdv_axes"`
}

// ExportConfig carries export toggles for reporting collaborators
type ExportConfig struct {
	SaveExcel  bool   `yaml:"save_excel"`
	SaveECT    bool   `yaml:"save_ect"`
	SaveFigure bool   `yaml:"save_figure"`
	ExcelFile  string `yaml:"excel_file"`
	ECTFile    string `yaml:"ect_file"`
	FigureFile string `yaml:"figure_file"`
}

// DefaultAnalysis returns an analysis configuration populated with defaults.
func DefaultAnalysis() Analysis {
	return Analysis{
		Path: PathConfig{UseManifest: true},
		Capacity: CapacityConfig{
			Mode:           CapacityModeAuto,
			CRate:          DefaultCRate,
			ManualCapacity: DefaultManualCapacity,
		},
	}
}

// DefaultCycleConfig returns cycle settings with defaults applied
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		YMax:     DefaultYMax,
		YMin:     DefaultYMin,
		DCIRMode: DCIRModeRSS,
	}
}

// DefaultProfileConfig returns profile settings with defaults applied
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		Layout:     ProfileLayoutByCycle,
		VoltageMin: DefaultVoltageMin,
		VoltageMax: DefaultVoltageMax,
		VoltageGap: DefaultVoltageGap,
		DQDVScale:  DefaultDQDVScale,
	}
}

// CycleNumbers returns the requested cycle numbers: the explicit list when
// given, otherwise the expanded range, otherwise nil.
func (a *Analysis) CycleNumbers() []int {
	if a.Cycle == nil {
		return nil
	}
	if len(a.Cycle.CycleNumbers) > 0 {
		return a.Cycle.CycleNumbers
	}
	if a.Cycle.Range != nil {
		return a.Cycle.Range.Numbers()
	}
	return nil
}

// CapacityBasis returns the capacity used to scale C-rate integrals. In
// manual mode it is the manual value; otherwise resolved is used when
// positive and DefaultCapacityMAh when not.
func (a *Analysis) CapacityBasis(resolved float64) float64 {
	if a.Capacity.Mode == CapacityModeManual {
		return a.Capacity.ManualCapacity
	}
	if resolved > 0 {
		return resolved
	}
	return DefaultCapacityMAh
}

// Validate checks the configuration invariants. All violations are reported
// together in a single configuration error.
func (a *Analysis) Validate() error {
	err := analysisValidator.Struct(a)
	if err == nil {
		return nil
	}

	var violations []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			violations = append(violations, describeFieldError(fe))
		}
	} else {
		violations = append(violations, err.Error())
	}

	return apperrors.NewConfigError("invalid analysis configuration: "+strings.Join(violations, "; "), nil).
		WithContext("violations", violations)
}

// LoadAnalysis reads an analysis configuration from a YAML file on top of
// the defaults and validates it.
func LoadAnalysis(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("analysis config " + path)
		}
		return nil, apperrors.NewStorageError("read analysis config", err)
	}

	cfg := DefaultAnalysis()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.NewConfigError("parse analysis config "+path, err)
	}
	applySectionDefaults(&cfg, data)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySectionDefaults fills zero-valued optional fields of the cycle and
// profile sections that the YAML document did not set.
func applySectionDefaults(cfg *Analysis, raw []byte) {
	var doc struct {
		Cycle   map[string]interface{} `yaml:"cycle"`
		Profile map[string]interface{} `yaml:"profile"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return
	}

	if cfg.Cycle != nil {
		def := DefaultCycleConfig()
		if _, ok := doc.Cycle["y_max"]; !ok {
			cfg.Cycle.YMax = def.YMax
		}
		if _, ok := doc.Cycle["y_min"]; !ok {
			cfg.Cycle.YMin = def.YMin
		}
		if _, ok := doc.Cycle["dcir_mode"]; !ok {
			cfg.Cycle.DCIRMode = def.DCIRMode
		}
	}

	if cfg.Profile != nil {
		def := DefaultProfileConfig()
		if _, ok := doc.Profile["layout"]; !ok {
			cfg.Profile.Layout = def.Layout
		}
		if _, ok := doc.Profile["voltage_min"]; !ok {
			cfg.Profile.VoltageMin = def.VoltageMin
		}
		if _, ok := doc.Profile["voltage_max"]; !ok {
			cfg.Profile.VoltageMax = def.VoltageMax
		}
		if _, ok := doc.Profile["voltage_gap"]; !ok {
			cfg.Profile.VoltageGap = def.VoltageGap
		}
		if _, ok := doc.Profile["dqdv_scale"]; !ok {
			cfg.Profile.DQDVScale = def.DQDVScale
		}
	}
}

var analysisValidator = newAnalysisValidator()

func newAnalysisValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterStructValidation(capacityStructLevel, CapacityConfig{})

	return v
}

func capacityStructLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(CapacityConfig)

	switch c.Mode {
	case CapacityModeAuto:
		if c.CRate <= 0 {
			sl.ReportError(c.CRate, "c_rate", "CRate", "positive_crate", "")
		}
	case CapacityModeManual:
		if c.ManualCapacity <= 0 {
			sl.ReportError(c.ManualCapacity, "manual_capacity", "ManualCapacity", "positive_capacity", "")
		}
	default:
		sl.ReportError(c.Mode, "mode", "Mode", "capacity_mode", "")
	}
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required_if":
		return fmt.Sprintf("%s is required when manifest mode is enabled", field)
	case "positive_crate":
		return fmt.Sprintf("%s must be greater than 0 in auto_crate mode", field)
	case "positive_capacity":
		return fmt.Sprintf("%s must be greater than 0 in manual mode", field)
	case "capacity_mode":
		return fmt.Sprintf("%s must be one of auto_crate, manual (got %q)", field, fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s (got %v)", field, toSnake(fe.Param()), fe.Value())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s (got %v)", field, toSnake(fe.Param()), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s (got %q)", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// toSnake converts a Go field name such as VoltageMin to voltage_min.
func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
