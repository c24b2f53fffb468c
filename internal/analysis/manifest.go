package analysis

import (
	"strings"

	"battcli/internal/cycler"
	apperrors "battcli/internal/errors"
)

// Manifest columns
const (
	ManifestColPath = "cyclepath"
	ManifestColName = "cyclename"
)

// ManifestEntry is one row of a path manifest
type ManifestEntry struct {
	Path string `json:"cyclepath"`
	Name string `json:"cyclename"`
}

// ReadManifest loads a tab-separated UTF-8 manifest listing data paths in
// analysis order
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := cycler.ReadFrame(path, '\t', cycler.EncodingUTF8)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range []string{ManifestColPath, ManifestColName} {
		if !f.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	entries := make([]ManifestEntry, 0, len(f.Rows))
	for _, row := range f.Rows {
		entries = append(entries, ManifestEntry{
			Path: strings.TrimSpace(f.Value(row, ManifestColPath)),
			Name: strings.TrimSpace(f.Value(row, ManifestColName)),
		})
	}
	return entries, nil
}

// ManifestPaths returns the paths of entries in order
func ManifestPaths(entries []ManifestEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
