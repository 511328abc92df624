package enrich

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"nutriscan/internal/table"
)

// WriteSQLite exports the enriched table for the dashboard: REAL for
// numeric columns, TEXT otherwise, indexed on the product code and the
// join key. The file is rewritten from scratch on every run.
func WriteSQLite(path string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	cols := t.Columns()
	numeric := make([]bool, len(cols))
	defs := make([]string, len(cols))
	for i, c := range cols {
		numeric[i] = columnIsNumeric(t, i)
		typ := "TEXT"
		if numeric[i] {
			typ = "REAL"
		}
		defs[i] = fmt.Sprintf("%q %s", c, typ)
	}
	if _, err := db.Exec(`CREATE TABLE "off_enriched" (` + strings.Join(defs, ",") + `)`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := db.Prepare(`INSERT INTO "off_enriched" (` + strings.Join(quoted, ",") + `) VALUES (` + ph + `)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, v := range row {
			args[j] = sqliteValue(v, numeric[j])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	for _, col := range []string{"code", JoinKeyColumn} {
		if !t.HasColumn(col) {
			continue
		}
		q := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_off_enriched_%s ON off_enriched(%q)`, col, col)
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create index %s: %w", col, err)
		}
	}
	return nil
}

func sqliteValue(v table.Value, numeric bool) any {
	if v.IsNull() {
		return nil
	}
	if numeric {
		if f, ok := v.Float(); ok {
			return f
		}
		return nil
	}
	return v.Text()
}

func columnIsNumeric(t *table.Table, i int) bool {
	sawNumber := false
	for r := 0; r < t.NumRows(); r++ {
		switch t.Row(r)[i].Kind() {
		case table.KindString:
			return false
		case table.KindNumber:
			sawNumber = true
		}
	}
	return sawNumber
}
