package cycler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	apperrors "battcli/internal/errors"
)

// Frame is a parsed delimited text file before it is typed into a Table
type Frame struct {
	Source  string
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// Encoding selects how raw bytes are decoded
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingShiftJIS
)

// ReadFrame reads a header-first delimited file
func ReadFrame(path string, comma rune, enc Encoding) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if enc == EncodingShiftJIS {
		r = transform.NewReader(f, japanese.ShiftJIS.NewDecoder())
	}
	return ParseFrame(path, r, comma)
}

// ParseFrame parses delimited text from r. The first record is the header.
func ParseFrame(source string, r io.Reader, comma rune) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", source), err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s is empty", source), nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	frame := &Frame{Source: source, Columns: header, Rows: records[1:]}
	frame.reindex()
	return frame, nil
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, dup := f.index[c]; !dup {
			f.index[c] = i
		}
	}
}

// Has reports whether the frame has a column called name
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Value returns the cell of row at column name, or "" when absent
func (f *Frame) Value(row []string, name string) string {
	i, ok := f.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Rename renames columns according to mapping, leaving others untouched
func (f *Frame) Rename(mapping map[string]string) {
	for i, c := range f.Columns {
		if to, ok := mapping[c]; ok {
			f.Columns[i] = to
		}
	}
	f.reindex()
}

// Select returns a frame sharing the header but holding only rows matching keep
func (f *Frame) Select(keep func(row []string) bool) *Frame {
	out := &Frame{Source: f.Source, Columns: append([]string(nil), f.Columns...)}
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	out.reindex()
	return out
}

// Validate fails with a schema error naming every missing required column
func Validate(f *Frame) error {
	var missing []string
	for _, c := range RequiredColumns {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewSchemaError(f.Source, missing)
	}
	return nil
}

// ToTable types the standard columns of f. Empty and NaN cells become NaN;
// any other non-numeric cell is a parsing error.
func ToTable(f *Frame) (*Table, error) {
	t := &Table{HasTemperature: f.Has(ColTemp), Samples: make([]Sample, 0, len(f.Rows))}
	for i, row := range f.Rows {
		var s Sample
		var err error
		if s.TimeMin, err = parseCell(f, row, ColTimeMin, i); err != nil {
			return nil, err
		}
		if s.Voltage, err = parseCell(f, row, ColVoltage, i); err != nil {
			return nil, err
		}
		if s.CRate, err = parseCell(f, row, ColCRate, i); err != nil {
			return nil, err
		}
		if t.HasTemperature {
			if s.Temperature, err = parseCell(f, row, ColTemp, i); err != nil {
				return nil, err
			}
		}
		t.Samples = append(t.Samples, s)
	}
	return t, nil
}

func parseCell(f *Frame, row []string, col string, line int) (float64, error) {
	raw := f.Value(row, col)
	switch strings.ToLower(raw) {
	case "", "nan", "null", "na", "n/a":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("invalid %s value %q in %s row %d", col, raw, f.Source, line+1), err)
	}
	return v, nil
}
