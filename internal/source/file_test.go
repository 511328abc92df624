package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestFileProducts_FiltersByQuery(t *testing.T) {
	path := writeFixture(t, `{"code":"001","product_name":"Chocolat noir","categories":"chocolat"}
{"code":"002","product_name":"Yaourt nature","categories":"yaourt"}
{"code":"003","product_name":"Mousse au chocolat","categories":"dessert"}
`)
	fp := NewFileProducts(path)
	recs, err := fp.Search(context.Background(), "Chocolat", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	if recs[0].Code != "001" || recs[1].Code != "003" {
		t.Fatalf("matched codes: %s %s", recs[0].Code, recs[1].Code)
	}
}

func TestFileProducts_RespectsLimit(t *testing.T) {
	path := writeFixture(t, `{"code":"001","product_name":"Pain complet"}
{"code":"002","product_name":"Pain de mie"}
{"code":"003","product_name":"Pain aux noix"}
`)
	fp := NewFileProducts(path)
	recs, err := fp.Search(context.Background(), "pain", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
}

func TestFileProducts_MissingFixtureIsAnError(t *testing.T) {
	fp := NewFileProducts(filepath.Join(t.TempDir(), "absent.jsonl"))
	if _, err := fp.Search(context.Background(), "q", 10); err == nil {
		t.Fatalf("missing fixture must be an error")
	}
}
