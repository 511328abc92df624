// Package snapshot mediates access to persisted stage artifacts. It draws
// the line between the two failure classes: a stage asked to read an input
// snapshot that was never written is a fatal precondition failure, not a
// degradable source error.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"nutriscan/internal/table"
)

// ErrMissing marks a required input snapshot that does not exist. The
// pipeline halts on it instead of producing an empty downstream artifact.
var ErrMissing = errors.New("input snapshot missing")

// LoadCSV reads a stage-boundary CSV snapshot. A missing file wraps
// ErrMissing; any other read failure is returned as-is.
func LoadCSV(path string) (*table.Table, error) {
	t, err := table.ReadCSVFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return t, nil
}

// LoadParquet reads a stage-boundary Parquet snapshot with the same
// missing-file semantics as LoadCSV.
func LoadParquet(path string) (*table.Table, error) {
	t, err := table.ReadParquetFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return t, nil
}
