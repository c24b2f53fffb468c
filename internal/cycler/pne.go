package cycler

import (
	"fmt"
	"log/slog"
	"math"

	apperrors "battcli/internal/errors"
	"battcli/internal/files"
)

// PNELoader reads SaveData<N>.csv files written by PNE cyclers
type PNELoader struct {
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewPNELoader creates a PNE loader
func NewPNELoader(logger *slog.Logger) *PNELoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PNELoader{discovery: files.NewDiscovery(""), logger: logger}
}

// Type implements Loader
func (l *PNELoader) Type() CyclerType { return CyclerPNE }

// LoadCycle reads SaveData<n>.csv from path or its Restore folder
func (l *PNELoader) LoadCycle(path string, n int) (*Table, error) {
	file, ok := l.discovery.ResolveSaveData(path, n)
	if !ok {
		return nil, apperrors.NewMissingCyclesError([]int{n}).
			WithContext("file", fmt.Sprintf("SaveData%d.csv", n)).
			WithContext("path", path)
	}

	frame, err := ReadFrame(file, ',', EncodingUTF8)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(frame); err != nil {
		return nil, err
	}
	table, err := ToTable(frame)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loaded PNE cycle",
		slog.String("file", file),
		slog.Int("cycle", n),
		slog.Int("rows", table.Len()))
	return l.Preprocess(table), nil
}

// Validate implements Loader
func (l *PNELoader) Validate(f *Frame) error { return Validate(f) }

// Preprocess implements Loader
func (l *PNELoader) Preprocess(t *Table) *Table { return Preprocess(t) }

// Capacity parses the capacity from the directory name, otherwise estimates
// it from the discharge of cycle n divided by its mean discharge C-rate.
func (l *PNELoader) Capacity(path string, n int, cRate float64) float64 {
	if c, ok := NameCapacity(path); ok {
		return c
	}

	table, err := l.LoadCycle(path, n)
	if err != nil {
		l.logger.Debug("capacity estimate fell back to default",
			slog.String("path", path),
			slog.Int("cycle", n),
			slog.String("error", err.Error()))
		return DefaultCapacity
	}

	discharge := table.Discharge()
	if discharge.Len() > 0 {
		integral := discharge.Throughput()
		if mean := math.Abs(discharge.MeanCRate()); integral > 0 && mean > 0 {
			return integral / mean
		}
	}
	return DefaultCapacity
}

// CycleSpan returns the lowest and highest SaveData number present
func (l *PNELoader) CycleSpan(path string) (int, int, error) {
	saves, err := l.discovery.FindSaveDataFiles(path)
	if err != nil {
		return 0, 0, apperrors.NewNotFoundError(path).WithContext("cause", err.Error())
	}
	cycles := files.SortedKeys(saves)
	if len(cycles) == 0 {
		return 0, 0, apperrors.NewNotFoundError(fmt.Sprintf("SaveData*.csv in %s", path))
	}
	return cycles[0], cycles[len(cycles)-1], nil
}
