package cycledata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"battcli/internal/config"
	"battcli/internal/cycler"
)

// LoadOptions controls LoadSources
type LoadOptions struct {
	// Parallelism bounds how many sources load at once. Values below 1 mean 1.
	Parallelism int
	// CyclerType forces a loader type; empty means detect per path.
	CyclerType string
	// Range limits every source to the same cycle window; nil loads each
	// source's full span.
	Range *config.CycleRange
	// SkipFailed logs sources that fail to load and leaves them out of the
	// result instead of failing the batch. Cancellation still fails it.
	SkipFailed bool
	Logger     *slog.Logger
}

// Source pairs a loaded container with the loader that filled it
type Source struct {
	Path      string
	Loader    cycler.Loader
	Container *Container
}

// LoadSources loads each path into its own container. Each goroutine builds
// its own loader and container. Unless opts.SkipFailed is set, the first
// failure cancels the rest.
func LoadSources(ctx context.Context, paths []string, opts LoadOptions) (map[string]*Source, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		sources = make(map[string]*Source, len(paths))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range paths {
		g.Go(func() error {
			loader, err := newLoader(path, opts.CyclerType, logger)
			if err != nil {
				return err
			}
			container := NewContainer(logger)
			if err := container.LoadAll(ctx, path, loader, opts.Range); err != nil {
				if !opts.SkipFailed || ctx.Err() != nil {
					return err
				}
				logger.WarnContext(ctx, "skipping source that failed to load",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}

			mu.Lock()
			sources[path] = &Source{Path: path, Loader: loader, Container: container}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return sources, nil
}

func newLoader(path, cyclerType string, logger *slog.Logger) (cycler.Loader, error) {
	if cyclerType == "" {
		return cycler.NewLoader(path, logger), nil
	}
	return cycler.NewLoaderByType(cyclerType, logger)
}

// Containers extracts the containers of sources keyed by path
func Containers(sources map[string]*Source) map[string]*Container {
	out := make(map[string]*Container, len(sources))
	for p, s := range sources {
		out[p] = s.Container
	}
	return out
}
