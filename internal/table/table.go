// Package table holds the in-memory shape of a pipeline snapshot: an
// ordered set of named columns and rows of nullable cells, plus the CSV and
// Parquet codecs used at every stage boundary.
package table

import (
	"fmt"
	"strings"
)

// Table is a columnar snapshot. Column order is significant and preserved
// across codecs.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

func New(cols []string) *Table {
	t := &Table{cols: append([]string(nil), cols...), index: make(map[string]int, len(cols))}
	for i, c := range t.cols {
		t.index[c] = i
	}
	return t
}

func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }
func (t *Table) NumRows() int      { return len(t.rows) }
func (t *Table) NumCols() int      { return len(t.cols) }

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Append adds a row. Short rows are padded with nulls; long rows are an error.
func (t *Table) Append(row []Value) error {
	if len(row) > len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	r := make([]Value, len(t.cols))
	copy(r, row)
	for i := len(row); i < len(t.cols); i++ {
		r[i] = Null()
	}
	t.rows = append(t.rows, r)
	return nil
}

// Row returns the backing slice for row i. Callers may mutate cells in place.
func (t *Table) Row(i int) []Value { return t.rows[i] }

func (t *Table) Get(row int, col string) Value {
	i, ok := t.index[col]
	if !ok {
		return Null()
	}
	return t.rows[row][i]
}

func (t *Table) Set(row int, col string, v Value) {
	if i, ok := t.index[col]; ok {
		t.rows[row][i] = v
	}
}

// AddColumn appends a null-filled column. Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Null())
	}
}

// Filter returns a new table containing the rows for which keep is true.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	out := New(t.cols)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// CanonicalColumn lowercases and trims a column name. All field access
// downstream of normalization assumes this casing.
func CanonicalColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CanonicalizeColumns rewrites every column name through CanonicalColumn.
// When two raw headers collapse to the same canonical name the first one
// wins and later ones get a positional suffix, so no column is silently lost.
func (t *Table) CanonicalizeColumns() {
	seen := make(map[string]bool, len(t.cols))
	index := make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		name := CanonicalColumn(c)
		if seen[name] {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		seen[name] = true
		t.cols[i] = name
		index[name] = i
	}
	t.index = index
}
