package enrich

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

// Stage reads the two normalized snapshots, joins and derives, and writes
// the enriched Parquet plus the SQLite export the dashboard reads.
type Stage struct {
	cfg       config.Config
	opts      Options
	metrics   *metrics.Registry
	manifests manifest.Publisher
}

type Result struct {
	EnrichedRows int
}

func New(cfg config.Config, reg *metrics.Registry, pub manifest.Publisher) *Stage {
	return &Stage{cfg: cfg, opts: DefaultOptions(), metrics: reg, manifests: pub}
}

func (s *Stage) Run() (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.StageDurationSec.WithLabelValues("enrich").Observe(time.Since(start).Seconds())
	}()

	var res Result

	products, err := snapshot.LoadParquet(s.cfg.NormProductsParquetPath())
	if err != nil {
		return res, err
	}
	composition, err := snapshot.LoadParquet(s.cfg.NormCompositionParquetPath())
	if err != nil {
		return res, err
	}

	enriched, err := Join(products, composition, s.cfg.NameColumn, s.cfg.CompositionNameColumn, s.opts)
	if err != nil {
		return res, fmt.Errorf("join: %w", err)
	}
	res.EnrichedRows = enriched.NumRows()
	s.metrics.RowsEnriched.Add(float64(res.EnrichedRows))
	log.Printf("enrich: %d product rows x %d composition rows -> %d enriched rows",
		products.NumRows(), composition.NumRows(), res.EnrichedRows)
	if res.EnrichedRows == 0 {
		log.Printf("enrich: warning: no enriched rows written")
	}

	if err := enriched.WriteParquetFile(s.cfg.EnrichedParquetPath()); err != nil {
		return res, fmt.Errorf("write enriched parquet: %w", err)
	}
	if err := WriteSQLite(s.cfg.EnrichedSQLitePath(), enriched); err != nil {
		return res, fmt.Errorf("write enriched sqlite: %w", err)
	}

	if s.manifests != nil {
		m := manifest.Manifest{
			Stage:      "enriched",
			SnapshotID: uuid.NewString(),
			Rows:       res.EnrichedRows,
			Path:       s.cfg.EnrichedParquetPath(),
		}
		if err := s.manifests.Publish(m); err != nil {
			return res, fmt.Errorf("publish enriched manifest: %w", err)
		}
	}
	return res, nil
}
