package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.NotNil(t, discovery)
	assert.Equal(t, "/test/base", discovery.basePath)
}

func TestFindRawExports(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "csv and txt sorted by name",
			files:    []string{"b_raw.txt", "a_raw.csv", "notes.pdf"},
			expected: []string{"a_raw.csv", "b_raw.txt"},
		},
		{
			name:     "uppercase extension",
			files:    []string{"RAW.TXT"},
			expected: []string{"RAW.TXT"},
		},
		{
			name:     "nothing matching",
			files:    []string{"readme.md"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}
			require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

			found, err := NewDiscovery("").FindRawExports(dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindSaveDataFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "SaveData1.csv"))
	touch(t, filepath.Join(dir, "SaveData3.csv"))
	touch(t, filepath.Join(dir, "SaveDataX.csv"))
	touch(t, filepath.Join(dir, "other.csv"))
	touch(t, filepath.Join(dir, RestoreDir, "SaveData3.csv"))
	touch(t, filepath.Join(dir, RestoreDir, "SaveData12.csv"))

	found, err := NewDiscovery("").FindSaveDataFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 12}, SortedKeys(found))
	assert.Equal(t, filepath.Join(dir, "SaveData3.csv"), found[3].Path)
	assert.Equal(t, filepath.Join(dir, RestoreDir, "SaveData12.csv"), found[12].Path)
}

func TestFindSaveDataFilesMissingDir(t *testing.T) {
	_, err := NewDiscovery("").FindSaveDataFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestResolveSaveData(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "SaveData2.csv"))
	touch(t, filepath.Join(dir, RestoreDir, "SaveData5.csv"))

	d := NewDiscovery("")

	path, ok := d.ResolveSaveData(dir, 2)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "SaveData2.csv"), path)

	path, ok = d.ResolveSaveData(dir, 5)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, RestoreDir, "SaveData5.csv"), path)

	_, ok = d.ResolveSaveData(dir, 9)
	assert.False(t, ok)
}

func TestHasSubdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, PatternDir), 0755))
	touch(t, filepath.Join(dir, "Restore"))

	d := NewDiscovery("")
	assert.True(t, d.HasSubdirectory(dir, PatternDir))
	assert.False(t, d.HasSubdirectory(dir, "Restore"), "a plain file is not a directory")
	assert.False(t, d.HasSubdirectory(dir, "missing"))
}

func TestRelativePathsUseBase(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "cell", "raw.txt"))

	found, err := NewDiscovery(base).FindRawExports("cell")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(base, "cell", "raw.txt"), found[0].Path)
}
