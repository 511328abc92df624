package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nutriscan/internal/table"
)

func TestLoadCSV_MissingFileIsErrMissing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "never_written.csv"))
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("want ErrMissing, got %v", err)
	}
}

func TestLoadParquet_MissingFileIsErrMissing(t *testing.T) {
	_, err := LoadParquet(filepath.Join(t.TempDir(), "never_written.parquet"))
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("want ErrMissing, got %v", err)
	}
}

func TestLoadCSV_ReadsExistingSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	tbl := table.New([]string{"code"})
	if err := tbl.Append([]table.Value{table.String("001")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.WriteCSVFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.NumRows() != 1 || got.Get(0, "code").Text() != "001" {
		t.Fatalf("unexpected snapshot content")
	}
}

func TestLoadCSV_CorruptFileIsNotErrMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadCSV(path)
	if err == nil {
		t.Fatalf("empty file must fail to load")
	}
	if errors.Is(err, ErrMissing) {
		t.Fatalf("unreadable existing file must not be ErrMissing: %v", err)
	}
}
