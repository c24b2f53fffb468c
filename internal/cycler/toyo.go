package cycler

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	apperrors "battcli/internal/errors"
	"battcli/internal/files"
)

// ColCondition labels each Toyo row with the step it belongs to, e.g. "Cycle 3"
const ColCondition = "Condition"

var (
	toyoColumns = map[string]string{
		"Time":        ColTimeMin,
		"Voltage":     ColVoltage,
		"Current":     ColCRate,
		"Temperature": ColTemp,
	}
	conditionCyclePattern = regexp.MustCompile(`(?i)Cycle\s+(\d+)`)
)

// ToyoLoader reads the single consolidated export written by Toyo cyclers.
// The raw export is parsed once per directory and cached.
type ToyoLoader struct {
	discovery *files.Discovery
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]*Frame
}

// NewToyoLoader creates a Toyo loader with an empty cache
func NewToyoLoader(logger *slog.Logger) *ToyoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToyoLoader{
		discovery: files.NewDiscovery(""),
		logger:    logger,
		cache:     make(map[string]*Frame),
	}
}

// Type implements Loader
func (l *ToyoLoader) Type() CyclerType { return CyclerToyo }

// ClearCache drops every cached raw export
func (l *ToyoLoader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Frame)
}

func (l *ToyoLoader) rawFrame(path string) (*Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.cache[path]; ok {
		return f, nil
	}

	exports, err := l.discovery.FindRawExports(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(path).WithContext("cause", err.Error())
	}
	if len(exports) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("raw export (*.csv, *.txt) in %s", path))
	}

	frame, err := ReadFrame(exports[0].Path, '\t', EncodingShiftJIS)
	if err != nil {
		return nil, err
	}
	if !frame.Has(ColCondition) {
		return nil, apperrors.NewSchemaError(exports[0].Path, []string{ColCondition})
	}

	l.logger.Info("loaded Toyo raw export",
		slog.String("file", exports[0].Path),
		slog.Int("rows", len(frame.Rows)))
	l.cache[path] = frame
	return frame, nil
}

// LoadCycle selects the rows labelled "Cycle <n>" and maps them to the
// standard columns. Time is converted from seconds to minutes and re-zeroed.
// Current stays in amps.
func (l *ToyoLoader) LoadCycle(path string, n int) (*Table, error) {
	raw, err := l.rawFrame(path)
	if err != nil {
		return nil, err
	}

	pattern := regexp.MustCompile(fmt.Sprintf(`(?i)Cycle\s+%d(?:\D|$)`, n))
	selected := raw.Select(func(row []string) bool {
		return pattern.MatchString(raw.Value(row, ColCondition))
	})
	if len(selected.Rows) == 0 {
		return nil, apperrors.NewMissingCyclesError([]int{n}).WithContext("path", path)
	}

	selected.Rename(toyoColumns)
	if err := l.Validate(selected); err != nil {
		return nil, err
	}
	table, err := ToTable(selected)
	if err != nil {
		return nil, err
	}
	for i := range table.Samples {
		table.Samples[i].TimeMin /= 60
	}
	return l.Preprocess(table), nil
}

// Validate implements Loader
func (l *ToyoLoader) Validate(f *Frame) error { return Validate(f) }

// Preprocess sorts and cleans t, then shifts time so the cycle starts at 0
func (l *ToyoLoader) Preprocess(t *Table) *Table {
	out := Preprocess(t)
	if out.Len() == 0 {
		return out
	}
	start := out.Samples[0].TimeMin
	for i := range out.Samples {
		out.Samples[i].TimeMin -= start
	}
	return out
}

// Capacity parses the capacity from the directory name, otherwise returns
// the discharge integral of cycle n.
func (l *ToyoLoader) Capacity(path string, n int, cRate float64) float64 {
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
	if integral := table.Discharge().Throughput(); integral > 0 {
		return integral
	}
	return DefaultCapacity
}

// CycleSpan scans the Condition column for "Cycle <n>" labels
func (l *ToyoLoader) CycleSpan(path string) (int, int, error) {
	raw, err := l.rawFrame(path)
	if err != nil {
		return 0, 0, err
	}

	start, end, found := 0, 0, false
	for _, row := range raw.Rows {
		m := conditionCyclePattern.FindStringSubmatch(raw.Value(row, ColCondition))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || n < start {
			start = n
		}
		if !found || n > end {
			end = n
		}
		found = true
	}
	if !found {
		return 0, 0, apperrors.NewParsingError(
			fmt.Sprintf("no cycle numbers found in %s column of %s", ColCondition, path), nil)
	}
	return start, end, nil
}
