// Package table reads delimited text into a labelled dataset.
//
// Feature and label columns are chosen by header name or by zero-based
// index. Every selected feature cell must parse as a finite float; the label
// cell is kept verbatim. Errors carry the one-based line and the zero-based
// column of the offending cell.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/knn/dataset"
)

var (
	// ErrNoColumns is returned when no feature column is selected.
	ErrNoColumns = errors.New("no feature columns selected")

	// ErrUnknownColumn is returned when a named column is not in the header.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrColumnOutOfRange is returned when a column index exceeds the header width.
	ErrColumnOutOfRange = errors.New("column index out of range")

	// ErrNamedWithoutHeader is returned when a column is selected by name
	// but the input has no header row.
	ErrNamedWithoutHeader = errors.New("named column requires a header row")

	// ErrMissingField is returned when a row is too short for the selected columns.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidNumber is returned when a feature cell is not a finite number.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidDelimiter is returned for delimiters encoding/csv cannot use.
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)

// Column selects one input column by header name or zero-based index.
type Column struct {
	Name  string
	Index int
}

// ParseColumn interprets s as an index when it is a non-negative integer and
// as a header name otherwise.
func ParseColumn(s string) Column {
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		return Column{Index: i}
	}
	return Column{Name: s, Index: -1}
}

// ParseColumns applies ParseColumn to every element of names.
func ParseColumns(names []string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = ParseColumn(n)
	}
	return cols
}

// ByName reports whether the column is selected by header name.
func (c Column) ByName() bool { return c.Index < 0 }

func (c Column) String() string {
	if c.ByName() {
		return c.Name
	}
	return strconv.Itoa(c.Index)
}

// CellError locates a failure at one cell of the input.
type CellError struct {
	Line   int // one-based physical line of the record
	Column int // zero-based column
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v: %q", e.Line, e.Column, e.Err, e.Value)
}

func (e *CellError) Unwrap() error { return e.Err }

// Options configures Read.
type Options struct {
	// Delimiter separates fields. Defaults to ','.
	Delimiter rune

	// NoHeader treats the first line as data. Columns must then be selected
	// by index.
	NoHeader bool

	// Comment, if non-zero, marks lines to skip when it is their first character.
	Comment rune
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Delimiter: ','}
}

// ParseDelimiter accepts a single character or one of the names "tab",
// "comma", "semicolon" and "pipe". The escape `\t` is also accepted.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "comma":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r[0], nil
}

// Table is the parsed input.
type Table struct {
	// Header holds the header row, or nil when the input has none.
	Header []string

	// Columns are the resolved feature column indexes, in selection order.
	Columns []int

	// Label is the resolved label column index.
	Label int

	// Data holds one record per data row, in input order.
	Data *dataset.Dataset[string]
}

// FeatureNames returns the header names of the selected feature columns, or
// their indexes when the input has no header.
func (t *Table) FeatureNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if t.Header != nil {
			names[i] = t.Header[c]
		} else {
			names[i] = strconv.Itoa(c)
		}
	}
	return names
}

// Read parses r, selecting columns as features and label as the class.
func Read(r io.Reader, label Column, columns []Column, optFns ...func(*Options)) (*Table, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.Comment = opts.Comment
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	t := &Table{}
	if !opts.NoHeader {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, dataset.ErrEmpty
		}
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		t.Header = make([]string, len(header))
		for i, h := range header {
			t.Header[i] = strings.TrimSpace(h)
		}
	}

	var err error
	if t.Label, err = resolve(t.Header, label); err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	t.Columns = make([]int, len(columns))
	for i, c := range columns {
		if t.Columns[i], err = resolve(t.Header, c); err != nil {
			return nil, err
		}
	}

	width := t.Label
	for _, c := range t.Columns {
		width = max(width, c)
	}
	width++

	var rows []dataset.Record[string]
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) < width {
			return nil, &CellError{Line: line, Column: len(rec), Err: ErrMissingField}
		}

		features := make([]float64, len(t.Columns))
		for i, c := range t.Columns {
			v, err := parseFloat(rec[c])
			if err != nil {
				return nil, &CellError{Line: line, Column: c, Value: rec[c], Err: err}
			}
			features[i] = v
		}
		rows = append(rows, dataset.Record[string]{
			Features: features,
			Label:    strings.TrimSpace(rec[t.Label]),
		})
	}

	if t.Data, err = dataset.New(rows); err != nil {
		return nil, err
	}
	return t, nil
}

func resolve(header []string, c Column) (int, error) {
	if c.ByName() {
		if header == nil {
			return 0, fmt.Errorf("%w: %q", ErrNamedWithoutHeader, c.Name)
		}
		for i, h := range header {
			if h == c.Name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: %q (available: %s)", ErrUnknownColumn, c.Name, strings.Join(header, ", "))
	}
	if header != nil && c.Index >= len(header) {
		return 0, fmt.Errorf("%w: %d (header has %d columns)", ErrColumnOutOfRange, c.Index, len(header))
	}
	return c.Index, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// ParseDatapoint reads a comma-separated list of numbers.
func ParseDatapoint(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parseFloat(p)
		if err != nil {
			return nil, fmt.Errorf("datapoint value %d: %w: %q", i, err, strings.TrimSpace(p))
		}
		out[i] = v
	}
	return out, nil
}
