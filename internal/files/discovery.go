package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// RestoreDir is the backup folder PNE cyclers write SaveData files to
	RestoreDir = "Restore"
	// PatternDir marks a PNE data directory
	PatternDir = "Pattern"
)

var saveDataPattern = regexp.MustCompile(`^SaveData(\d+)\.csv$`)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindFilesByExtension lists regular files in dir whose extension matches one
// of exts (case-insensitive), sorted by name.
func (d *Discovery) FindFilesByExtension(dir string, exts ...string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !containsExt(exts, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// FindRawExports returns the *.csv and *.txt files in dir sorted by name.
// A Toyo data directory holds its consolidated export as the first entry.
func (d *Discovery) FindRawExports(dir string) ([]FileInfo, error) {
	return d.FindFilesByExtension(dir, ".csv", ".txt")
}

// FindSaveDataFiles maps cycle number to SaveData<N>.csv found directly in dir
// or in its Restore folder. Files in dir win over their Restore copies.
func (d *Discovery) FindSaveDataFiles(dir string) (map[int]FileInfo, error) {
	fullPath := d.resolve(dir)

	found := make(map[int]FileInfo)
	restore := filepath.Join(fullPath, RestoreDir)
	if d.HasSubdirectory(fullPath, RestoreDir) {
		if err := collectSaveData(restore, found); err != nil {
			return nil, err
		}
	}
	if err := collectSaveData(fullPath, found); err != nil {
		return nil, err
	}
	return found, nil
}

func collectSaveData(dir string, into map[int]FileInfo) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := saveDataPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		into[n] = FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}
	return nil
}

// ResolveSaveData returns the path of SaveData<n>.csv in dir, falling back to
// the Restore folder.
func (d *Discovery) ResolveSaveData(dir string, n int) (string, bool) {
	fullPath := d.resolve(dir)
	name := fmt.Sprintf("SaveData%d.csv", n)
	for _, candidate := range []string{
		filepath.Join(fullPath, name),
		filepath.Join(fullPath, RestoreDir, name),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// HasSubdirectory reports whether dir contains a directory called name
func (d *Discovery) HasSubdirectory(dir, name string) bool {
	info, err := os.Stat(filepath.Join(d.resolve(dir), name))
	return err == nil && info.IsDir()
}

// SortedKeys returns the cycle numbers of a SaveData map in ascending order
func SortedKeys(m map[int]FileInfo) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
