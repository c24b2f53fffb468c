package cycler

import (
	"fmt"
	"log/slog"
	"strings"

	apperrors "battcli/internal/errors"
	"battcli/internal/files"
)

// CyclerType identifies the instrument that produced a data directory
type CyclerType string

const (
	CyclerPNE  CyclerType = "pne"
	CyclerToyo CyclerType = "toyo"
)

// Loader reads cycle tables from one cycler export format
type Loader interface {
	// Type reports which format the loader reads
	Type() CyclerType
	// LoadCycle returns the preprocessed table of cycle n. A missing cycle
	// is reported as a NOT_FOUND error.
	LoadCycle(path string, n int) (*Table, error)
	// Capacity estimates the nominal capacity in mAh. It never fails and
	// falls back to DefaultCapacity.
	Capacity(path string, n int, cRate float64) float64
	// Validate checks that the mapped frame carries every required column
	Validate(f *Frame) error
	// Preprocess sorts and cleans a typed table
	Preprocess(t *Table) *Table
	// CycleSpan returns the lowest and highest cycle number available
	CycleSpan(path string) (start, end int, err error)
}

// Detect picks the cycler type of dir: a Pattern subfolder marks PNE data,
// anything else is treated as Toyo.
func Detect(dir string) CyclerType {
	if files.NewDiscovery("").HasSubdirectory(dir, files.PatternDir) {
		return CyclerPNE
	}
	return CyclerToyo
}

// NewLoader returns a loader for the format detected in dir
func NewLoader(dir string, logger *slog.Logger) Loader {
	l, _ := NewLoaderByType(string(Detect(dir)), logger)
	return l
}

// NewLoaderByType returns the loader for an explicit type name
func NewLoaderByType(name string, logger *slog.Logger) (Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch CyclerType(strings.ToLower(strings.TrimSpace(name))) {
	case CyclerPNE:
		return NewPNELoader(logger), nil
	case CyclerToyo:
		return NewToyoLoader(logger), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown cycler type %q", name), nil).
			WithContext("supported", []string{string(CyclerPNE), string(CyclerToyo)})
	}
}
