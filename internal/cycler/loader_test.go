package cycler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "battcli/internal/errors"
)

func (l *ToyoLoader) cached(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[path]
	return ok
}

func TestDetect(t *testing.T) {
	pne := newPNEDir(t, "pne", 1)
	toyo := newToyoDir(t, "toyo", toyoExport)

	assert.Equal(t, CyclerPNE, Detect(pne))
	assert.Equal(t, CyclerToyo, Detect(toyo))
	assert.Equal(t, CyclerToyo, Detect(filepath.Join(t.TempDir(), "absent")))

	assert.IsType(t, &PNELoader{}, NewLoader(pne, nil))
	assert.IsType(t, &ToyoLoader{}, NewLoader(toyo, nil))
}

func TestDetectIgnoresPatternFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Pattern"), "not a directory")
	assert.Equal(t, CyclerToyo, Detect(dir))
}

func TestNewLoaderByType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType CyclerType
		wantErr  bool
	}{
		{name: "pne", input: "pne", wantType: CyclerPNE},
		{name: "toyo", input: "toyo", wantType: CyclerToyo},
		{name: "case and space", input: " PNE ", wantType: CyclerPNE},
		{name: "unknown", input: "maccor", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoaderByType(tt.input, nil)
			if tt.wantErr {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, l.Type())
		})
	}
}

func TestNameCapacity(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "Battery_58mAh", want: 58, ok: true},
		{input: "Test_4-5mAh", want: 4.5, ok: true},
		{input: "Cell_3.2mAh.csv", want: 3.2, ok: true},
		{input: "/data/4500mAh_lot2/cell1", want: 4500, ok: true},
		{input: "cell_58mah", ok: false},
		{input: "no capacity", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NameCapacity(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestPNELoadCycle(t *testing.T) {
	dir := newPNEDir(t, "cell", 1, 2)
	writeFile(t, filepath.Join(dir, "Restore", "SaveData3.csv"), pneCycle)
	l := NewPNELoader(nil)

	t.Run("top level file", func(t *testing.T) {
		tbl, err := l.LoadCycle(dir, 1)
		require.NoError(t, err)
		assert.Equal(t, 6, tbl.Len())
		assert.True(t, tbl.HasTemperature)
		assert.Equal(t, -0.5, tbl.Samples[3].CRate)
	})

	t.Run("restore fallback", func(t *testing.T) {
		tbl, err := l.LoadCycle(dir, 3)
		require.NoError(t, err)
		assert.Equal(t, 6, tbl.Len())
	})

	t.Run("missing cycle", func(t *testing.T) {
		_, err := l.LoadCycle(dir, 4)
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assert.Contains(t, err.Error(), "cycle 4 not found")
	})

	t.Run("schema error", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "SaveData9.csv"), "Time,Voltage\n0,3.5\n")
		_, err := l.LoadCycle(dir, 9)
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
		assert.Contains(t, err.Error(), "TimeMin")
		assert.Contains(t, err.Error(), "Vol")
		assert.Contains(t, err.Error(), "Crate")
	})

	t.Run("unsorted rows are sorted", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "SaveData8.csv"), pneHeader+"20,4.0,0.5,25\n0,3.5,0.5,25\n,3.6,0.5,25\n")
		tbl, err := l.LoadCycle(dir, 8)
		require.NoError(t, err)
		require.Equal(t, 2, tbl.Len())
		assert.Equal(t, 0.0, tbl.Samples[0].TimeMin)
	})
}

func TestPNECycleSpan(t *testing.T) {
	dir := newPNEDir(t, "cell", 2, 5, 11)
	writeFile(t, filepath.Join(dir, "Restore", "SaveData14.csv"), pneCycle)

	start, end, err := NewPNELoader(nil).CycleSpan(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, start)
	assert.Equal(t, 14, end)

	empty := newPNEDir(t, "empty")
	_, _, err = NewPNELoader(nil).CycleSpan(empty)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestPNECapacity(t *testing.T) {
	l := NewPNELoader(nil)

	named := newPNEDir(t, "cell_4-5mAh", 1)
	assert.InDelta(t, 4.5, l.Capacity(named, 1, 0.2), 1e-9)

	// discharge integral 10 divided by mean |C-rate| 0.5
	unnamed := newPNEDir(t, "cell", 1)
	assert.InDelta(t, 20, l.Capacity(unnamed, 1, 0.2), 1e-9)

	assert.Equal(t, DefaultCapacity, l.Capacity(unnamed, 7, 0.2))

	noDischarge := newPNEDir(t, "charge_only")
	writeFile(t, filepath.Join(noDischarge, "SaveData1.csv"), pneHeader+"0,3.5,0.5,25\n10,3.9,0.5,25\n")
	assert.Equal(t, DefaultCapacity, l.Capacity(noDischarge, 1, 0.2))
}

func TestToyoLoadCycle(t *testing.T) {
	dir := newToyoDir(t, "cell", toyoExport)
	l := NewToyoLoader(nil)

	tests := []struct {
		name      string
		cycle     int
		wantRows  int
		wantTimes []float64
	}{
		{name: "cycle 1 excludes cycle 10", cycle: 1, wantRows: 4, wantTimes: []float64{0, 10, 20, 30}},
		{name: "case and spacing", cycle: 2, wantRows: 3, wantTimes: []float64{0, 10, 20}},
		{name: "two digit cycle", cycle: 10, wantRows: 2, wantTimes: []float64{0, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := l.LoadCycle(dir, tt.cycle)
			require.NoError(t, err)
			require.Equal(t, tt.wantRows, tbl.Len())
			var times []float64
			for _, s := range tbl.Samples {
				times = append(times, s.TimeMin)
			}
			assert.InDeltaSlice(t, tt.wantTimes, times, 1e-9)
			assert.True(t, tbl.HasTemperature)
		})
	}

	t.Run("missing cycle", func(t *testing.T) {
		_, err := l.LoadCycle(dir, 3)
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assert.Contains(t, err.Error(), "cycle 3 not found")
	})
}

func TestToyoCache(t *testing.T) {
	dir := newToyoDir(t, "cell", toyoExport)
	l := NewToyoLoader(nil)

	_, err := l.LoadCycle(dir, 1)
	require.NoError(t, err)
	assert.True(t, l.cached(dir))

	// cached export keeps serving after the file is gone
	require.NoError(t, os.Remove(filepath.Join(dir, "raw_data.txt")))
	_, err = l.LoadCycle(dir, 2)
	require.NoError(t, err)

	l.ClearCache()
	assert.False(t, l.cached(dir))
	_, err = l.LoadCycle(dir, 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestToyoRawExportErrors(t *testing.T) {
	l := NewToyoLoader(nil)

	t.Run("no export", func(t *testing.T) {
		_, err := l.LoadCycle(t.TempDir(), 1)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("no condition column", func(t *testing.T) {
		dir := newToyoDir(t, "cell", "Time\tVoltage\tCurrent\n0\t3.5\t0.5\n")
		_, err := l.LoadCycle(dir, 1)
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
		assert.Contains(t, err.Error(), "Condition")
	})

	t.Run("first export by name wins", func(t *testing.T) {
		dir := newToyoDir(t, "cell", toyoExport)
		writeFile(t, filepath.Join(dir, "zz_other.csv"), "garbage")
		writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
		_, err := NewToyoLoader(nil).LoadCycle(dir, 1)
		assert.NoError(t, err)
	})
}

func TestToyoCycleSpan(t *testing.T) {
	dir := newToyoDir(t, "cell", toyoExport)
	start, end, err := NewToyoLoader(nil).CycleSpan(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
	assert.Equal(t, 10, end)

	unlabelled := newToyoDir(t, "rest", "Time\tVoltage\tCurrent\tCondition\n0\t3.5\t0\tRest\n")
	_, _, err = NewToyoLoader(nil).CycleSpan(unlabelled)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestToyoCapacity(t *testing.T) {
	l := NewToyoLoader(nil)

	named := newToyoDir(t, "Battery_58mAh", toyoExport)
	assert.Equal(t, 58.0, l.Capacity(named, 1, 0.2))

	// discharge rows at 20 and 30 minutes, 0.5 A
	unnamed := newToyoDir(t, "cell", toyoExport)
	assert.InDelta(t, 5, l.Capacity(unnamed, 1, 0.2), 1e-9)

	assert.Equal(t, DefaultCapacity, l.Capacity(unnamed, 42, 0.2))
}
