package cycler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

const pneHeader = "TimeMin,Vol,Crate,Temp\n"

// pneCycle is a short charge then discharge leg at 0.5C
const pneCycle = pneHeader +
	"0,3.60,0.5,25.0\n" +
	"10,3.90,0.5,25.1\n" +
	"20,4.20,0.5,25.2\n" +
	"30,4.10,-0.5,25.3\n" +
	"40,3.80,-0.5,25.4\n" +
	"50,3.20,-0.5,25.5\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newPNEDir builds a PNE directory with the given SaveData cycles
func newPNEDir(t *testing.T, name string, cycles ...int) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Pattern"), 0755))
	for _, n := range cycles {
		writeFile(t, filepath.Join(dir, saveDataName(n)), pneCycle)
	}
	return dir
}

func saveDataName(n int) string {
	return fmt.Sprintf("SaveData%d.csv", n)
}

// toyoExport is a raw Toyo export. Time is in seconds and the extra
// Japanese column checks Shift-JIS decoding.
const toyoExport = "Time\tVoltage\tCurrent\tTemperature\tCondition\t備考\n" +
	"600\t3.60\t0.5\t25.0\tCycle 1 充電\t開始\n" +
	"1200\t4.20\t0.5\t25.1\tCycle 1 充電\t\n" +
	"1800\t4.10\t-0.5\t25.2\tCycle 1 放電\t\n" +
	"2400\t3.20\t-0.5\t25.3\tCycle 1 放電\t終了\n" +
	"3000\t3.60\t0.4\t25.0\tCycle 2\t\n" +
	"3600\t4.20\t0.4\t25.0\tCycle 2\t\n" +
	"4200\t3.30\t-0.4\t25.0\tcycle  2\t\n" +
	"4800\t3.60\t0.3\t25.0\tCycle 10\t\n" +
	"5400\t3.40\t-0.3\t25.0\tCycle 10\t\n" +
	"6000\t3.50\t0.0\t25.0\tRest\t\n"

func encodeShiftJIS(t *testing.T, s string) string {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

// newToyoDir builds a Toyo directory holding one Shift-JIS raw export
func newToyoDir(t *testing.T, name, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	writeFile(t, filepath.Join(dir, "raw_data.txt"), encodeShiftJIS(t, content))
	return dir
}
