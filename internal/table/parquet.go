package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// columnIsNumeric reports whether every non-null cell in column i is a
// number. All-null columns are treated as numeric so an empty composition
// table still round-trips with its schema-driven typing.
func (t *Table) columnIsNumeric(i int) bool {
	for _, row := range t.rows {
		if row[i].Kind() == KindString {
			return false
		}
	}
	return true
}

// parquetSchema builds an all-optional flat schema from the observed
// column types: DOUBLE for numeric columns, UTF8 for the rest.
func (t *Table) parquetSchema(name string) *parquet.Schema {
	group := parquet.Group{}
	for i, col := range t.cols {
		if t.columnIsNumeric(i) {
			group[col] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group[col] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema(name, group)
}

// WriteParquet writes the table as a columnar snapshot. Null cells become
// parquet nulls; string cells in a numeric column cannot occur by
// construction of the schema.
func (t *Table) WriteParquet(w io.Writer, name string) error {
	schema := t.parquetSchema(name)
	pw := parquet.NewWriter(w, schema)
	numeric := make([]bool, len(t.cols))
	for i := range t.cols {
		numeric[i] = t.columnIsNumeric(i)
	}
	for _, row := range t.rows {
		rec := make(map[string]any, len(t.cols))
		for i, v := range row {
			if v.IsNull() {
				continue
			}
			if numeric[i] {
				f, _ := v.Float()
				rec[t.cols[i]] = f
			} else {
				rec[t.cols[i]] = v.Text()
			}
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile writes the snapshot to path, creating parent directories.
func (t *Table) WriteParquetFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()
	name := filepath.Base(path)
	if err := t.WriteParquet(f, name); err != nil {
		return err
	}
	return f.Close()
}

// ReadParquetFile reads a columnar snapshot back into a table. Parquet
// stores group fields in its own order, so the reconstructed column order
// is the file's, not necessarily the writer's input order.
func ReadParquetFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr := parquet.NewReader(f)
	defer pr.Close()

	fields := pr.Schema().Fields()
	cols := make([]string, len(fields))
	for i, fld := range fields {
		cols[i] = fld.Name()
	}
	t := New(cols)
	for {
		rec := map[string]any{}
		err := pr.Read(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet row: %w", err)
		}
		row := make([]Value, len(cols))
		for i, col := range cols {
			row[i] = valueFromParquet(rec[col])
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func valueFromParquet(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	default:
		return String(fmt.Sprint(x))
	}
}
