package normalize

import (
	"errors"
	"testing"

	"nutriscan/internal/config"
	"nutriscan/internal/metrics"
	"nutriscan/internal/snapshot"
	"nutriscan/internal/table"
)

func stageConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.RawDir = dir
	cfg.ProcessedDir = dir
	cfg.EnrichedDir = dir
	return cfg
}

func writeRawSnapshots(t *testing.T, cfg config.Config) {
	t.Helper()
	products := table.New([]string{"code", "product_name", "energy_kcal_100g", "nutriscore_grade"})
	rows := [][]table.Value{
		{table.String("001"), table.String("Yaourt"), table.String("62.5"), table.String("B")},
		{table.String("002"), table.String(""), table.String("100"), table.String("a")},
	}
	for _, r := range rows {
		if err := products.Append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := products.WriteCSVFile(cfg.RawProductsPath()); err != nil {
		t.Fatalf("write raw products: %v", err)
	}

	composition := table.New([]string{"alim_code", "alim_nom_fr", "Energie (kcal/100 g)"})
	if err := composition.Append([]table.Value{table.String("1000"), table.String("Yaourt"), table.String("60")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := composition.WriteCSVFile(cfg.RawCompositionPath()); err != nil {
		t.Fatalf("write raw composition: %v", err)
	}
}

func TestStageRun_WritesTypedSnapshots(t *testing.T) {
	cfg := stageConfig(t)
	writeRawSnapshots(t, cfg)

	res, err := New(cfg, metrics.NewRegistry(), nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ProductRows != 1 {
		t.Fatalf("product rows: got %d, want 1 (nameless row dropped)", res.ProductRows)
	}
	if res.CompositionRows != 1 {
		t.Fatalf("composition rows: got %d, want 1", res.CompositionRows)
	}

	csvOut, err := table.ReadCSVFile(cfg.NormProductsCSVPath())
	if err != nil {
		t.Fatalf("read normalized csv: %v", err)
	}
	if !csvOut.HasColumn("nutriscore_numeric") {
		t.Fatalf("rank column missing: %v", csvOut.Columns())
	}
	if got := csvOut.Get(0, "nutriscore_numeric").Text(); got != "2" {
		t.Fatalf("grade B rank: got %q", got)
	}

	pq, err := table.ReadParquetFile(cfg.NormProductsParquetPath())
	if err != nil {
		t.Fatalf("read normalized parquet: %v", err)
	}
	if pq.NumRows() != 1 {
		t.Fatalf("parquet rows: got %d, want 1", pq.NumRows())
	}
	if f, ok := pq.Get(0, "energy_kcal_100g").Float(); !ok || f != 62.5 {
		t.Fatalf("typed energy in parquet: got %v ok=%v", f, ok)
	}

	cpq, err := table.ReadParquetFile(cfg.NormCompositionParquetPath())
	if err != nil {
		t.Fatalf("read composition parquet: %v", err)
	}
	if f, ok := cpq.Get(0, "energie (kcal/100 g)").Float(); !ok || f != 60 {
		t.Fatalf("schema-driven composition typing: got %v ok=%v", f, ok)
	}
}

func TestStageRun_MissingRawSnapshotIsFatal(t *testing.T) {
	cfg := stageConfig(t)
	// No raw snapshots written.
	_, err := New(cfg, metrics.NewRegistry(), nil).Run()
	if !errors.Is(err, snapshot.ErrMissing) {
		t.Fatalf("want ErrMissing, got %v", err)
	}
}

func TestStageRun_EmptyCompositionSnapshotIsValid(t *testing.T) {
	cfg := stageConfig(t)
	writeRawSnapshots(t, cfg)
	// Overwrite the composition snapshot with the header-only form the
	// ingest stage writes when the download degrades.
	empty := table.New([]string{"alim_code", "alim_nom_fr"})
	if err := empty.WriteCSVFile(cfg.RawCompositionPath()); err != nil {
		t.Fatalf("write empty composition: %v", err)
	}

	res, err := New(cfg, metrics.NewRegistry(), nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.CompositionRows != 0 {
		t.Fatalf("composition rows: got %d, want 0", res.CompositionRows)
	}
}
