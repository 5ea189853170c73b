// Package fixture reads the comma-delimited data files that parametrize the suite.
//
// The format is deliberately naive: one record per line, cells separated by commas,
// no quoting and no escaping. Blank lines are ignored and every line and cell is trimmed.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	delimiter = ","
	newline   = "\n"
)

var (
	// ErrNoDataRows is returned for an empty file or a file holding only a header line.
	ErrNoDataRows = errors.New("fixture must contain at least one data row")
	// ErrDuplicateHeader is returned when two header cells carry the same name.
	ErrDuplicateHeader = errors.New("duplicate fixture header")
)

// Row is one parsed data line. Its keys are the table headers, in header order.
type Row struct {
	headers []string
	values  []string
}

// Get returns the cell for column and whether the column exists.
func (r Row) Get(column string) (string, bool) {
	for i, h := range r.headers {
		if h == column {
			return r.values[i], true
		}
	}
	return "", false
}

// Value returns the cell for column, or "" when the column does not exist.
func (r Row) Value(column string) string {
	v, _ := r.Get(column)
	return v
}

// Keys returns a copy of the column names in header order.
func (r Row) Keys() []string {
	return append([]string(nil), r.headers...)
}

// Values returns a copy of the cells in header order.
func (r Row) Values() []string {
	return append([]string(nil), r.values...)
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.headers)
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.headers))
	for i, h := range r.headers {
		m[h] = r.values[i]
	}
	return m
}

// Table is the ordered set of rows loaded from one fixture file.
type Table struct {
	Path    string
	headers []string
	rows    []Row
}

// Headers returns a copy of the header line.
func (t *Table) Headers() []string {
	return append([]string(nil), t.headers...)
}

// Rows returns the data rows in file order.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Loader resolves relative fixture paths against BaseDir.
type Loader struct {
	BaseDir string
}

// Load reads the fixture at path. Relative paths are resolved against the working directory.
func Load(path string) (*Table, error) {
	return Loader{}.Load(path)
}

// Resolve returns the absolute-or-based path the loader will read.
func (l Loader) Resolve(path string) string {
	if filepath.IsAbs(path) || l.BaseDir == "" {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}

// Load reads and parses the fixture at path. The file is re-read on every call.
func (l Loader) Load(path string) (*Table, error) {
	resolved := l.Resolve(path)

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", resolved, err)
	}

	table, err := Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", resolved, err)
	}
	table.Path = resolved
	return table, nil
}

// Parse converts fixture text into a table.
func Parse(text string) (*Table, error) {
	var lines []string
	for _, line := range strings.Split(text, newline) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return nil, ErrNoDataRows
	}

	headers := splitCells(lines[0])
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, h)
		}
		seen[h] = struct{}{}
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitCells(line)
		values := make([]string, len(headers))
		// Short rows keep "" for the missing trailing columns, extra cells are dropped.
		copy(values, cells)
		rows = append(rows, Row{headers: headers, values: values})
	}

	return &Table{headers: headers, rows: rows}, nil
}

func splitCells(line string) []string {
	cells := strings.Split(line, delimiter)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}
