package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager writes command output files, resolving relative paths against
// baseDir (the working directory when empty)
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger.With(slog.String("component", "output"))}
}

// WriteFile replaces path with data and returns the absolute path written.
// Data goes to a temporary sibling first and is renamed into place, so an
// existing report is never left truncated.
func (m *Manager) WriteFile(path string, data []byte) (string, error) {
	target, err := filepath.Abs(m.resolve(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", target, err)
	}

	m.logger.Info("output written",
		slog.String("path", target),
		slog.Int("size_bytes", len(data)))
	return target, nil
}

func (m *Manager) resolve(path string) string {
	if filepath.IsAbs(path) || m.baseDir == "" {
		return path
	}
	return filepath.Join(m.baseDir, path)
}
