// Package normalize types the raw snapshots: tolerant numeric coercion,
// ordinal grade mapping, text cleanup, and the name-required row filter.
// Column roles come from configuration; the composition table is
// schema-driven (every non-identifier column is numeric).
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"nutriscan/internal/table"
)

// Rules declares the column roles for one table.
type Rules struct {
	// NameColumn must be present and non-empty per row; rows failing
	// this are dropped.
	NameColumn string

	// Required columns beyond the name column. Normalizing a table whose
	// header lacks one of these is an error: proceeding would silently
	// produce an unjoinable snapshot.
	RequiredColumns []string

	// NumericColumns are coerced number-or-null.
	NumericColumns []string

	// TextColumns are trimmed, with null becoming the empty string.
	TextColumns []string

	// GradeColumns maps a letter-grade column to the derived rank column
	// appended next to it.
	GradeColumns map[string]string
	GradeScale   map[string]float64

	// When NumericRest is set, every column outside IDColumns (and the
	// grade columns) is coerced numeric — whatever columns the source
	// table happens to have.
	NumericRest bool
	IDColumns   []string
}

type Stats struct {
	RowsIn      int
	RowsOut     int
	RowsDropped int
}

// Apply normalizes one table. Column names are canonicalized before any
// field access; all rules refer to canonical names.
func Apply(t *table.Table, r Rules) (*table.Table, Stats, error) {
	t.CanonicalizeColumns()

	for _, col := range append([]string{r.NameColumn}, r.RequiredColumns...) {
		if !t.HasColumn(col) {
			return nil, Stats{}, fmt.Errorf("required column %q missing from header %v", col, t.Columns())
		}
	}

	for _, col := range r.NumericColumns {
		coerceNumericColumn(t, col)
	}
	if r.NumericRest {
		skip := make(map[string]bool, len(r.IDColumns))
		for _, col := range r.IDColumns {
			skip[col] = true
		}
		for g := range r.GradeColumns {
			skip[g] = true
		}
		for _, col := range t.Columns() {
			if !skip[col] {
				coerceNumericColumn(t, col)
			}
		}
	}

	// Grade rank columns are appended in a stable order.
	grades := lo.Keys(r.GradeColumns)
	sort.Strings(grades)
	for _, gradeCol := range grades {
		rankCol := r.GradeColumns[gradeCol]
		t.AddColumn(rankCol)
		if !t.HasColumn(gradeCol) {
			continue
		}
		for i := 0; i < t.NumRows(); i++ {
			letter := strings.ToLower(strings.TrimSpace(t.Get(i, gradeCol).Text()))
			if rank, ok := r.GradeScale[letter]; ok {
				t.Set(i, rankCol, table.Number(rank))
			} else {
				t.Set(i, rankCol, table.Null())
			}
		}
	}

	for _, col := range r.TextColumns {
		if !t.HasColumn(col) {
			continue
		}
		for i := 0; i < t.NumRows(); i++ {
			t.Set(i, col, table.CoerceText(t.Get(i, col)))
		}
	}
	// The name column always gets text cleanup, whether or not it is
	// listed in TextColumns.
	for i := 0; i < t.NumRows(); i++ {
		t.Set(i, r.NameColumn, table.CoerceText(t.Get(i, r.NameColumn)))
	}

	stats := Stats{RowsIn: t.NumRows()}
	nameIdx := indexOf(t.Columns(), r.NameColumn)
	out := t.Filter(func(row []table.Value) bool {
		return row[nameIdx].Text() != ""
	})
	stats.RowsOut = out.NumRows()
	stats.RowsDropped = stats.RowsIn - stats.RowsOut
	return out, stats, nil
}

func coerceNumericColumn(t *table.Table, col string) {
	if !t.HasColumn(col) {
		return
	}
	for i := 0; i < t.NumRows(); i++ {
		t.Set(i, col, table.CoerceNumber(t.Get(i, col)))
	}
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
