package cycledata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"battcli/internal/config"
	"battcli/internal/cycler"
	apperrors "battcli/internal/errors"
	"battcli/internal/infrastructure"
)

// Metadata describes what a container was loaded from
type Metadata struct {
	DataPath     string            `json:"data_path"`
	CyclerType   cycler.CyclerType `json:"cycler_type"`
	Range        config.CycleRange `json:"cycle_range"`
	LoadedCycles []int             `json:"loaded_cycles"`
}

// Container indexes the cycle tables of one data source by cycle number.
// Reads hand out copies, so callers may modify what they get.
type Container struct {
	mu       sync.RWMutex
	cycles   map[int]*cycler.Table
	metadata *Metadata
	logger   *slog.Logger
}

// NewContainer creates an empty container
func NewContainer(logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{
		cycles: make(map[int]*cycler.Table),
		logger: logger,
	}
}

// LoadAll loads every cycle of path in the inclusive range r, or in the
// loader's CycleSpan when r is nil. Cycles the loader reports as not found
// are skipped; any other failure aborts the load.
func (c *Container) LoadAll(ctx context.Context, path string, loader cycler.Loader, r *config.CycleRange) error {
	ctx, span := infrastructure.Tracer().Start(ctx, "cycledata.LoadAll",
		trace.WithAttributes(
			attribute.String("data.path", path),
			attribute.String("cycler.type", string(loader.Type())),
		))
	defer span.End()

	var window config.CycleRange
	if r != nil {
		window = *r
	} else {
		start, end, err := loader.CycleSpan(path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cycle span")
			return fmt.Errorf("failed to determine cycle span of %s: %w", path, err)
		}
		window = config.CycleRange{Start: start, End: end}
	}

	c.logger.InfoContext(ctx, "loading cycles",
		slog.String("path", path),
		slog.String("cycler", string(loader.Type())),
		slog.Int("start", window.Start),
		slog.Int("end", window.End))

	loaded := make(map[int]*cycler.Table)
	var skipped []int
	for n := window.Start; n <= window.End; n++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return err
		}
		table, err := loader.LoadCycle(path, n)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
				skipped = append(skipped, n)
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "load cycle")
			return fmt.Errorf("failed to load cycle %d from %s: %w", n, path, err)
		}
		loaded[n] = table
	}

	c.mu.Lock()
	for n, t := range loaded {
		c.cycles[n] = t
	}
	c.metadata = &Metadata{
		DataPath:     path,
		CyclerType:   loader.Type(),
		Range:        window,
		LoadedCycles: c.sortedKeysLocked(),
	}
	c.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("cycler", string(loader.Type())))
	m := infrastructure.Metrics()
	m.CyclesLoaded.Add(ctx, int64(len(loaded)), attrs)
	m.CyclesSkipped.Add(ctx, int64(len(skipped)), attrs)
	span.SetAttributes(
		attribute.Int("cycles.loaded", len(loaded)),
		attribute.Int("cycles.skipped", len(skipped)),
	)

	if len(skipped) > 0 {
		c.logger.DebugContext(ctx, "skipped missing cycles",
			slog.String("path", path),
			slog.Any("cycles", skipped))
	}
	c.logger.InfoContext(ctx, "cycles loaded",
		slog.String("path", path),
		slog.Int("loaded", len(loaded)),
		slog.Int("skipped", len(skipped)))
	return nil
}

// Put stores a table for cycle n, replacing any previous one
func (c *Container) Put(n int, t *cycler.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles[n] = t.Clone()
	if c.metadata != nil {
		c.metadata.LoadedCycles = c.sortedKeysLocked()
	}
}

// Cycle returns a copy of cycle n
func (c *Container) Cycle(n int) (*cycler.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.cycles[n]
	if !ok {
		return nil, apperrors.NewMissingCyclesError([]int{n})
	}
	return t.Clone(), nil
}

// CycleRange joins the loaded cycles in [start, end] into one table with a
// continuous time axis. Cycles absent from the window are skipped.
func (c *Container) CycleRange(start, end int) (*cycler.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var parts []*cycler.Table
	for n := start; n <= end; n++ {
		if t, ok := c.cycles[n]; ok {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return nil, apperrors.NewEmptyRangeError(start, end)
	}
	return cycler.Concat(parts...), nil
}

// Cycles returns copies of the listed cycles. If any are missing the error
// names all of them.
func (c *Container) Cycles(numbers []int) (map[int]*cycler.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int]*cycler.Table, len(numbers))
	var missing []int
	for _, n := range numbers {
		t, ok := c.cycles[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out[n] = t.Clone()
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMissingCyclesError(missing)
	}
	return out, nil
}

// HasCycle reports whether cycle n is loaded
func (c *Container) HasCycle(n int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cycles[n]
	return ok
}

// LoadedCycleNumbers returns the loaded cycle numbers in ascending order
func (c *Container) LoadedCycleNumbers() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedKeysLocked()
}

// Metadata returns a copy of the load metadata, or nil before any load
func (c *Container) Metadata() *Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.metadata == nil {
		return nil
	}
	md := *c.metadata
	md.LoadedCycles = append([]int(nil), c.metadata.LoadedCycles...)
	return &md
}

// Source returns the data path the container was loaded from
func (c *Container) Source() string {
	if md := c.Metadata(); md != nil {
		return md.DataPath
	}
	return ""
}

// Clear drops every cycle and the metadata
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles = make(map[int]*cycler.Table)
	c.metadata = nil
}

// Len returns the number of loaded cycles
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cycles)
}

// String implements fmt.Stringer
func (c *Container) String() string {
	md := c.Metadata()
	if md == nil {
		return fmt.Sprintf("Container(range=unknown, loaded=%d cycles)", c.Len())
	}
	return fmt.Sprintf("Container(range=%d-%d, loaded=%d cycles)", md.Range.Start, md.Range.End, len(md.LoadedCycles))
}

func (c *Container) sortedKeysLocked() []int {
	keys := make([]int, 0, len(c.cycles))
	for k := range c.cycles {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
