package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	apperrors "battcli/internal/errors"
	"battcli/pkg/contracts/domain"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func manifestConfig(t *testing.T, manifest string) *config.Analysis {
	t.Helper()
	cfg, err := config.NewBuilder().WithManifest(manifest).WithManualCapacity(10).Build()
	require.NoError(t, err)
	return cfg
}

func TestReadManifest(t *testing.T) {
	t.Run("entries in order", func(t *testing.T) {
		path := writeManifest(t, "cyclepath\tcyclename\n/data/a \tfirst\n/data/b\tsecond\n")
		entries, err := ReadManifest(path)
		require.NoError(t, err)
		assert.Equal(t, []ManifestEntry{
			{Path: "/data/a", Name: "first"},
			{Path: "/data/b", Name: "second"},
		}, entries)
		assert.Equal(t, []string{"/data/a", "/data/b"}, ManifestPaths(entries))
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeManifest(t, "cyclepath\tlabel\n/data/a\tx\n")
		_, err := ReadManifest(path)
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
		assert.Contains(t, err.Error(), "cyclename")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadManifest(filepath.Join(t.TempDir(), "absent.tsv"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}

func TestNewLinkedRequiresManifest(t *testing.T) {
	_, err := NewLinked(directConfig(t, ""), map[string]*cycledata.Container{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = NewLinked(nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLinkedRun(t *testing.T) {
	manifest := writeManifest(t, "cyclepath\tcyclename\n"+
		"A\tfirst\n"+
		"ghost\tunknown\n"+
		"B\tsecond\n"+
		"C\tthird\n")
	containers := map[string]*cycledata.Container{
		"A": containerOf(1, 10, 9, 8),
		"B": containerOf(1, 10),
		"C": containerOf(1, 7, 6),
	}

	a, err := NewLinked(manifestConfig(t, manifest), containers)
	require.NoError(t, err)
	_, err = Run(context.Background(), a)
	require.NoError(t, err)

	res := a.Results().(*domain.LinkedResults)
	var globals []int
	for _, r := range res.Rows {
		globals = append(globals, r.GlobalCycle)
	}
	// A ends at 3, B's max of 1 leaves the offset at 3
	assert.Equal(t, []int{1, 2, 3, 4, 4, 5}, globals)
	for i := 1; i < len(globals); i++ {
		assert.GreaterOrEqual(t, globals[i], globals[i-1])
	}

	assert.Equal(t, "second", res.Rows[3].PathName)
	assert.Equal(t, 1, res.Rows[3].LocalCycle)
	assert.Len(t, a.Manifest(), 4)

	stats := res.Stats
	assert.Equal(t, 4, stats.TotalPaths, "total paths counts manifest rows")
	assert.Equal(t, 6, stats.TotalCycles)
	assert.InDelta(t, 83.3333333, stats.MeanDischargeCapacity, 1e-6)
	require.Len(t, stats.Paths, 3)
	assert.Equal(t, domain.PathStats{CycleCount: 2, MeanDischargeCapacity: 65, MeanEfficiency: 65}, roundStats(stats.Paths["C"]))
	assert.Equal(t, 3, stats.Paths["A"].CycleCount)

	require.Contains(t, res.Profiles, "A")
	assert.Len(t, res.Profiles["A"], 3)
}

func roundStats(s domain.PathStats) domain.PathStats {
	round := func(v float64) float64 { return float64(int(v*1e6+0.5)) / 1e6 }
	s.MeanDischargeCapacity = round(s.MeanDischargeCapacity)
	s.MeanEfficiency = round(s.MeanEfficiency)
	return s
}

func TestLinkedAccessors(t *testing.T) {
	manifest := writeManifest(t, "cyclepath\tcyclename\nA\tfirst\nB\tsecond\n")
	a, err := NewLinked(manifestConfig(t, manifest), map[string]*cycledata.Container{
		"A": containerOf(4, 10, 9),
		"B": containerOf(1, 10, 9, 8),
	})
	require.NoError(t, err)
	_, err = Run(context.Background(), a)
	require.NoError(t, err)

	rows, err := a.PathSummary("B")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = a.PathSummary("Z")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	// A holds 4,5 so B is numbered 6,7,8; sorting must keep the order stable
	cum := a.CumulativeSummary()
	require.Len(t, cum, 5)
	for i := 1; i < len(cum); i++ {
		assert.Less(t, cum[i-1].GlobalCycle, cum[i].GlobalCycle)
	}
	assert.Equal(t, 8, cum[4].GlobalCycle)
}

func TestLinkedFailures(t *testing.T) {
	t.Run("no containers", func(t *testing.T) {
		manifest := writeManifest(t, "cyclepath\tcyclename\nA\tfirst\n")
		a, err := NewLinked(manifestConfig(t, manifest), nil)
		require.NoError(t, err)
		_, err = Run(context.Background(), a)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyContainer))
	})

	t.Run("bad manifest", func(t *testing.T) {
		manifest := writeManifest(t, "path\tname\nA\tfirst\n")
		a, err := NewLinked(manifestConfig(t, manifest), map[string]*cycledata.Container{"A": containerOf(1, 10)})
		require.NoError(t, err)
		report, err := Run(context.Background(), a)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
		assert.Equal(t, PhasePrepare, report.FailedIn)
	})

	t.Run("nothing matches", func(t *testing.T) {
		manifest := writeManifest(t, "cyclepath\tcyclename\nX\tfirst\n")
		a, err := NewLinked(manifestConfig(t, manifest), map[string]*cycledata.Container{"A": containerOf(1, 10)})
		require.NoError(t, err)
		_, err = Run(context.Background(), a)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
	})
}
