// Package ingest implements the first pipeline stage: fan over the search
// queries, flatten and deduplicate product records, pull the composition
// workbook, and persist both raw snapshots.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nutriscan/internal/config"
	"nutriscan/internal/manifest"
	"nutriscan/internal/metrics"
	"nutriscan/internal/model"
	"nutriscan/internal/table"
)

// ProductSource fetches raw product records for one search query.
type ProductSource interface {
	Search(ctx context.Context, query string, limit int) ([]model.RawProduct, error)
}

// CompositionSource downloads the full composition table in one call.
type CompositionSource interface {
	Download(ctx context.Context) (*table.Table, error)
}

type Stage struct {
	cfg         config.Config
	products    ProductSource
	composition CompositionSource
	metrics     *metrics.Registry
	manifests   manifest.Publisher
}

type Result struct {
	ProductRows     int
	CompositionRows int
	Warnings        []string
}

func New(cfg config.Config, products ProductSource, composition CompositionSource, reg *metrics.Registry, pub manifest.Publisher) *Stage {
	return &Stage{cfg: cfg, products: products, composition: composition, metrics: reg, manifests: pub}
}

// Run executes the stage. A failing query or a failing composition
// download degrades to zero rows for that source; only snapshot writes can
// fail the stage.
func (s *Stage) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.StageDurationSec.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	}()

	var res Result

	products := s.fetchProducts(ctx, &res)
	if err := products.WriteCSVFile(s.cfg.RawProductsPath()); err != nil {
		return res, fmt.Errorf("write raw products snapshot: %w", err)
	}
	res.ProductRows = products.NumRows()
	log.Printf("ingest: %d product rows -> %s", res.ProductRows, s.cfg.RawProductsPath())

	composition := s.fetchComposition(ctx, &res)
	if err := composition.WriteCSVFile(s.cfg.RawCompositionPath()); err != nil {
		return res, fmt.Errorf("write raw composition snapshot: %w", err)
	}
	res.CompositionRows = composition.NumRows()
	log.Printf("ingest: %d composition rows -> %s", res.CompositionRows, s.cfg.RawCompositionPath())

	if err := s.publish("raw_products", res.ProductRows, s.cfg.RawProductsPath(), res.Warnings); err != nil {
		return res, err
	}
	if err := s.publish("raw_composition", res.CompositionRows, s.cfg.RawCompositionPath(), res.Warnings); err != nil {
		return res, err
	}
	return res, nil
}

// fetchProducts runs every query, keeping the first-seen row per product
// code. A failure on one query never aborts the batch.
func (s *Stage) fetchProducts(ctx context.Context, res *Result) *table.Table {
	t := table.New(model.ProductColumns)
	seen := make(map[string]bool)

	for _, query := range s.cfg.Queries {
		recs, err := s.products.Search(ctx, query, s.cfg.PerQueryLimit)
		if err != nil {
			log.Printf("ingest: query %q failed: %v", query, err)
			s.metrics.SourceFailures.WithLabelValues("openfoodfacts").Inc()
			res.Warnings = append(res.Warnings, fmt.Sprintf("query %q failed: %v", query, err))
			continue
		}
		for _, rec := range recs {
			if seen[rec.Code] {
				s.metrics.DuplicatesDropped.Inc()
				continue
			}
			seen[rec.Code] = true
			_ = t.Append(rec.Row())
			s.metrics.RowsIngested.Inc()
		}
		log.Printf("ingest: query %q -> %d records", query, len(recs))
	}

	if t.NumRows() == 0 {
		s.metrics.EmptySourceWarns.WithLabelValues("openfoodfacts").Inc()
		res.Warnings = append(res.Warnings, "product source yielded zero rows")
		log.Printf("ingest: warning: product source yielded zero rows")
	}
	return t
}

// fetchComposition pulls the composition table. Failure yields an empty
// table carrying only the minimum expected header, so normalization can
// still run and the empty branch terminates cleanly downstream.
func (s *Stage) fetchComposition(ctx context.Context, res *Result) *table.Table {
	t, err := s.composition.Download(ctx)
	if err != nil {
		log.Printf("ingest: warning: composition download failed: %v", err)
		s.metrics.SourceFailures.WithLabelValues("ciqual").Inc()
		res.Warnings = append(res.Warnings, fmt.Sprintf("composition download failed: %v", err))
		return table.New([]string{"alim_code", s.cfg.CompositionNameColumn})
	}
	if t.NumRows() == 0 {
		s.metrics.EmptySourceWarns.WithLabelValues("ciqual").Inc()
		res.Warnings = append(res.Warnings, "composition source yielded zero rows")
		log.Printf("ingest: warning: composition source yielded zero rows")
	}
	return t
}

func (s *Stage) publish(stage string, rows int, path string, warnings []string) error {
	if s.manifests == nil {
		return nil
	}
	m := manifest.Manifest{
		Stage:      stage,
		SnapshotID: uuid.NewString(),
		Rows:       rows,
		Path:       path,
		Warnings:   warnings,
	}
	if err := s.manifests.Publish(m); err != nil {
		return fmt.Errorf("publish %s manifest: %w", stage, err)
	}
	return nil
}
