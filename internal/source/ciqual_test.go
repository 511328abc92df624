package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestCiqual_DownloadParsesFirstSheet(t *testing.T) {
	body := workbookBytes(t, [][]any{
		{"alim_code", "alim_nom_fr", "Energie (kcal/100 g)"},
		{"1000", "Crème brûlée", "210"},
		{"2000", "Pomme", ""},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	c := NewCiqual(srv.URL, time.Second)
	tbl, err := c.Download(context.Background())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("rows: got %d, want 2", tbl.NumRows())
	}
	if got := tbl.Get(0, "alim_nom_fr").Text(); got != "Crème brûlée" {
		t.Fatalf("name cell: got %q", got)
	}
	if got := tbl.Get(0, "Energie (kcal/100 g)").Text(); got != "210" {
		t.Fatalf("value cell must stay untyped text, got %q", got)
	}
	if !tbl.Get(1, "Energie (kcal/100 g)").IsNull() {
		t.Fatalf("empty cell must be null")
	}
}

func TestCiqual_NonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCiqual(srv.URL, time.Second)
	if _, err := c.Download(context.Background()); err == nil {
		t.Fatalf("non-success status must be an error for the composition source")
	}
}

func TestCiqual_GarbagePayloadIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a workbook"))
	}))
	defer srv.Close()

	c := NewCiqual(srv.URL, time.Second)
	if _, err := c.Download(context.Background()); err == nil {
		t.Fatalf("unparseable workbook must be an error")
	}
}
