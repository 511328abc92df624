package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutriscan/internal/fetchcache"
)

const searchBody = `{"products":[
	{"code":"001","product_name":"Yaourt nature","nutriments":{"energy-kcal_100g":62.5,"proteins_100g":"4.3"}},
	{"code":"002","product_name":"Yaourt grec","nutriments":{"energy-kcal_100g":"beaucoup"}}
]}`

func TestSearch_FlattensProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	off := NewOpenFoodFacts(srv.URL, "test-agent", time.Second)
	recs, err := off.Search(context.Background(), "yaourt", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	if recs[0].Code != "001" || recs[0].ProductName != "Yaourt nature" {
		t.Fatalf("first record: %+v", recs[0])
	}
	if f, ok := recs[0].EnergyKcal100g.Float(); !ok || f != 62.5 {
		t.Fatalf("numeric nutriment: got %v ok=%v", f, ok)
	}
	if f, ok := recs[0].Proteins100g.Float(); !ok || f != 4.3 {
		t.Fatalf("string nutriment must coerce, got %v ok=%v", f, ok)
	}
	if !recs[1].EnergyKcal100g.IsNull() {
		t.Fatalf("unparseable nutriment must be missing")
	}
}

func TestSearch_RequestShape(t *testing.T) {
	var gotPath, gotPageSize, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPageSize = r.URL.Query().Get("page_size")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	off := NewOpenFoodFacts(srv.URL, "test-agent", time.Second)
	if _, err := off.Search(context.Background(), "chocolat", 500); err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/cgi/search.pl" {
		t.Fatalf("path: got %q", gotPath)
	}
	if gotPageSize != "100" {
		t.Fatalf("page_size must be capped at 100, got %q", gotPageSize)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("user agent: got %q", gotAgent)
	}
}

func TestSearch_NonSuccessStatusYieldsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	off := NewOpenFoodFacts(srv.URL, "test-agent", time.Second)
	recs, err := off.Search(context.Background(), "chocolat", 50)
	if err != nil {
		t.Fatalf("non-success status must not be an error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("records: got %d, want 0", len(recs))
	}
}

func TestSearch_ServesRepeatedQueriesFromCache(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	hits := 0
	cache := fetchcache.NewMemoryStore()
	off := NewOpenFoodFacts(srv.URL, "test-agent", time.Second,
		WithCache(cache, func() { hits++ }))

	for i := 0; i < 3; i++ {
		recs, err := off.Search(context.Background(), "yaourt", 50)
		if err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
		if len(recs) != 2 {
			t.Fatalf("search %d: got %d records", i, len(recs))
		}
	}
	if requests != 1 {
		t.Fatalf("upstream requests: got %d, want 1", requests)
	}
	if hits != 2 {
		t.Fatalf("cache hits: got %d, want 2", hits)
	}
}
