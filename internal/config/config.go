// Package config carries the explicit pipeline configuration. Every stage
// receives a Config at construction time; nothing reads process-wide state
// behind the caller's back.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot file names within the data directories. Downstream consumers
// (dashboard, IA layer) read the same paths.
const (
	RawProductsFile        = "openfoodfacts_products.csv"
	RawCompositionFile     = "ciqual_aliments.csv"
	NormProductsCSV        = "off_transformed.csv"
	NormCompositionCSV     = "ciqual_transformed.csv"
	NormProductsParquet    = "off_transformed.parquet"
	NormCompositionParquet = "ciqual_transformed.parquet"
	EnrichedParquet        = "off_enriched.parquet"
	EnrichedSQLite         = "off_enriched.sqlite"
)

type Config struct {
	// Artifact directories, one per stage boundary.
	RawDir       string
	ProcessedDir string
	EnrichedDir  string

	// Product source.
	Queries       []string
	PerQueryLimit int
	OFFBaseURL    string
	UserAgent     string
	HTTPTimeout   time.Duration

	// Composition source.
	CiqualURL string

	// Column roles for normalization. The composition table is
	// schema-driven: everything outside CompositionIDColumns is numeric.
	NumericColumns        []string
	TextColumns           []string
	GradeColumns          map[string]string // grade column -> derived rank column
	GradeScale            map[string]float64
	NameColumn            string
	CompositionNameColumn string
	CompositionIDColumns  []string

	// Fetch cache.
	CacheBackend string // memory|pebble|badger
	CacheDir     string

	// Manifest sinks and metrics.
	ManifestSink   string // file|kafka|both
	KafkaBootstrap string
	ManifestTopic  string
	MetricsAddr    string
}

// Default returns the configuration matching the reference deployment.
func Default() Config {
	return Config{
		RawDir:       filepath.Join("data", "raw"),
		ProcessedDir: filepath.Join("data", "processed"),
		EnrichedDir:  filepath.Join("data", "enriched"),

		Queries: []string{
			"chocolat", "yaourt", "biscuit", "pain", "fromage",
			"jus", "céréales", "pâtes", "sauce", "boisson",
		},
		PerQueryLimit: 50,
		OFFBaseURL:    "https://world.openfoodfacts.org",
		UserAgent:     "NutriScan/1.0 (contact@nutriscan.app)",
		HTTPTimeout:   60 * time.Second,

		CiqualURL: "https://ciqual.anses.fr/cms/sites/default/files/inline-files/Table%20Ciqual%202020_FR_2020%2007%2007.xls",

		NumericColumns: []string{
			"energy_kcal_100g", "fat_100g", "saturated_fat_100g",
			"carbohydrates_100g", "sugars_100g", "fiber_100g",
			"proteins_100g", "salt_100g", "additives_n", "nova_group",
		},
		TextColumns: []string{
			"product_name", "brands", "categories",
			"ingredients_text", "allergens",
		},
		GradeColumns: map[string]string{
			"nutriscore_grade": "nutriscore_numeric",
			"ecoscore_grade":   "ecoscore_numeric",
		},
		GradeScale: map[string]float64{
			"a": 1, "b": 2, "c": 3, "d": 4, "e": 5,
		},
		NameColumn:            "product_name",
		CompositionNameColumn: "alim_nom_fr",
		CompositionIDColumns: []string{
			"alim_code", "alim_nom_fr",
			"alim_grp_code", "alim_grp_nom_fr",
			"alim_ssgrp_code", "alim_ssgrp_nom_fr",
		},

		CacheBackend: "memory",
		CacheDir:     filepath.Join("data", "cache"),

		ManifestSink:  "file",
		ManifestTopic: "nutriscan.manifests",
	}
}

// FromEnv layers environment overrides over the defaults. A .env file in
// the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()
	cfg := Default()

	setString(&cfg.RawDir, "NUTRISCAN_RAW_DIR")
	setString(&cfg.ProcessedDir, "NUTRISCAN_PROCESSED_DIR")
	setString(&cfg.EnrichedDir, "NUTRISCAN_ENRICHED_DIR")
	setString(&cfg.OFFBaseURL, "NUTRISCAN_OFF_BASE_URL")
	setString(&cfg.CiqualURL, "NUTRISCAN_CIQUAL_URL")
	setString(&cfg.UserAgent, "NUTRISCAN_USER_AGENT")
	setString(&cfg.CacheBackend, "NUTRISCAN_CACHE_BACKEND")
	setString(&cfg.CacheDir, "NUTRISCAN_CACHE_DIR")
	setString(&cfg.ManifestSink, "NUTRISCAN_MANIFEST_SINK")
	setString(&cfg.KafkaBootstrap, "NUTRISCAN_KAFKA_BOOTSTRAP")
	setString(&cfg.ManifestTopic, "NUTRISCAN_MANIFEST_TOPIC")
	setString(&cfg.MetricsAddr, "NUTRISCAN_METRICS_ADDR")

	if v := os.Getenv("NUTRISCAN_QUERIES"); v != "" {
		var qs []string
		for _, q := range strings.Split(v, ",") {
			if q = strings.TrimSpace(q); q != "" {
				qs = append(qs, q)
			}
		}
		if len(qs) > 0 {
			cfg.Queries = qs
		}
	}
	if v := os.Getenv("NUTRISCAN_PER_QUERY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PerQueryLimit = n
		}
	}
	if v := os.Getenv("NUTRISCAN_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Artifact paths.

func (c Config) RawProductsPath() string        { return filepath.Join(c.RawDir, RawProductsFile) }
func (c Config) RawCompositionPath() string     { return filepath.Join(c.RawDir, RawCompositionFile) }
func (c Config) NormProductsCSVPath() string    { return filepath.Join(c.ProcessedDir, NormProductsCSV) }
func (c Config) NormCompositionCSVPath() string { return filepath.Join(c.ProcessedDir, NormCompositionCSV) }
func (c Config) NormProductsParquetPath() string {
	return filepath.Join(c.ProcessedDir, NormProductsParquet)
}
func (c Config) NormCompositionParquetPath() string {
	return filepath.Join(c.ProcessedDir, NormCompositionParquet)
}
func (c Config) EnrichedParquetPath() string { return filepath.Join(c.EnrichedDir, EnrichedParquet) }
func (c Config) EnrichedSQLitePath() string  { return filepath.Join(c.EnrichedDir, EnrichedSQLite) }
