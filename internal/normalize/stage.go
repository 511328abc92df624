package normalize

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nutriscan/internal/config"
	"nutriscan/internal/manifest"
	"nutriscan/internal/metrics"
	"nutriscan/internal/snapshot"
)

// Stage normalizes both raw snapshots and persists the typed ones as CSV
// and Parquet. A missing raw snapshot is fatal (snapshot.ErrMissing): this
// stage has no meaningful empty fallback for an input that was never
// produced.
type Stage struct {
	cfg       config.Config
	metrics   *metrics.Registry
	manifests manifest.Publisher
}

type Result struct {
	ProductRows     int
	CompositionRows int
}

func New(cfg config.Config, reg *metrics.Registry, pub manifest.Publisher) *Stage {
	return &Stage{cfg: cfg, metrics: reg, manifests: pub}
}

// ProductRules builds the normalization rules for the product table.
func ProductRules(cfg config.Config) Rules {
	return Rules{
		NameColumn:     cfg.NameColumn,
		NumericColumns: cfg.NumericColumns,
		TextColumns:    cfg.TextColumns,
		GradeColumns:   cfg.GradeColumns,
		GradeScale:     cfg.GradeScale,
	}
}

// CompositionRules builds the schema-driven rules for the composition
// table: identifier columns stay text, everything else is numeric.
func CompositionRules(cfg config.Config) Rules {
	return Rules{
		NameColumn:      cfg.CompositionNameColumn,
		RequiredColumns: []string{"alim_code"},
		NumericRest:     true,
		IDColumns:       cfg.CompositionIDColumns,
	}
}

func (s *Stage) Run() (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.StageDurationSec.WithLabelValues("normalize").Observe(time.Since(start).Seconds())
	}()

	var res Result

	products, err := snapshot.LoadCSV(s.cfg.RawProductsPath())
	if err != nil {
		return res, err
	}
	normProducts, stats, err := Apply(products, ProductRules(s.cfg))
	if err != nil {
		return res, fmt.Errorf("normalize products: %w", err)
	}
	s.metrics.RowsNormalized.WithLabelValues("products").Add(float64(stats.RowsOut))
	s.metrics.RowsDropped.WithLabelValues("products").Add(float64(stats.RowsDropped))
	log.Printf("normalize: products %d -> %d rows (%d dropped without name)", stats.RowsIn, stats.RowsOut, stats.RowsDropped)

	if err := normProducts.WriteCSVFile(s.cfg.NormProductsCSVPath()); err != nil {
		return res, fmt.Errorf("write normalized products csv: %w", err)
	}
	if err := normProducts.WriteParquetFile(s.cfg.NormProductsParquetPath()); err != nil {
		return res, fmt.Errorf("write normalized products parquet: %w", err)
	}
	res.ProductRows = normProducts.NumRows()

	composition, err := snapshot.LoadCSV(s.cfg.RawCompositionPath())
	if err != nil {
		return res, err
	}
	normComposition, cstats, err := Apply(composition, CompositionRules(s.cfg))
	if err != nil {
		return res, fmt.Errorf("normalize composition: %w", err)
	}
	s.metrics.RowsNormalized.WithLabelValues("composition").Add(float64(cstats.RowsOut))
	s.metrics.RowsDropped.WithLabelValues("composition").Add(float64(cstats.RowsDropped))
	log.Printf("normalize: composition %d -> %d rows", cstats.RowsIn, cstats.RowsOut)

	if err := normComposition.WriteCSVFile(s.cfg.NormCompositionCSVPath()); err != nil {
		return res, fmt.Errorf("write normalized composition csv: %w", err)
	}
	if err := normComposition.WriteParquetFile(s.cfg.NormCompositionParquetPath()); err != nil {
		return res, fmt.Errorf("write normalized composition parquet: %w", err)
	}
	res.CompositionRows = normComposition.NumRows()

	if err := s.publish("normalized_products", res.ProductRows, s.cfg.NormProductsParquetPath()); err != nil {
		return res, err
	}
	if err := s.publish("normalized_composition", res.CompositionRows, s.cfg.NormCompositionParquetPath()); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Stage) publish(stage string, rows int, path string) error {
	if s.manifests == nil {
		return nil
	}
	m := manifest.Manifest{
		Stage:      stage,
		SnapshotID: uuid.NewString(),
		Rows:       rows,
		Path:       path,
	}
	if err := s.manifests.Publish(m); err != nil {
		return fmt.Errorf("publish %s manifest: %w", stage, err)
	}
	return nil
}
