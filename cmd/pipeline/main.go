package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"strings"

	"nutriscan/internal/config"
	"nutriscan/internal/enrich"
	"nutriscan/internal/fetchcache"
	"nutriscan/internal/ingest"
	"nutriscan/internal/manifest"
	"nutriscan/internal/metrics"
	"nutriscan/internal/normalize"
	"nutriscan/internal/snapshot"
	"nutriscan/internal/source"
)

func main() {
	cfg := config.FromEnv()

	var (
		stage        string
		inputSource  string
		productsFile string
		queries      string
	)
	flag.StringVar(&stage, "stage", "all", "pipeline stage: ingest|normalize|enrich|all")
	flag.StringVar(&inputSource, "input-source", "http", "product input: http|file")
	flag.StringVar(&productsFile, "products-file", "products.jsonl", "JSONL fixture for -input-source file")
	flag.StringVar(&queries, "queries", "", "comma-separated search queries (overrides config)")
	flag.StringVar(&cfg.RawDir, "raw-dir", cfg.RawDir, "raw snapshot directory")
	flag.StringVar(&cfg.ProcessedDir, "processed-dir", cfg.ProcessedDir, "normalized snapshot directory")
	flag.StringVar(&cfg.EnrichedDir, "enriched-dir", cfg.EnrichedDir, "enriched snapshot directory")
	flag.IntVar(&cfg.PerQueryLimit, "per-query", cfg.PerQueryLimit, "max results per query")
	flag.StringVar(&cfg.CacheBackend, "cache-backend", cfg.CacheBackend, "fetch cache: memory|pebble|badger")
	flag.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "fetch cache directory")
	flag.StringVar(&cfg.ManifestSink, "manifest-sink", cfg.ManifestSink, "manifest sink: file|kafka|both")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", cfg.KafkaBootstrap, "kafka bootstrap servers")
	flag.StringVar(&cfg.ManifestTopic, "manifest-topic", cfg.ManifestTopic, "kafka topic for stage manifests")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics on this address (empty = off)")
	flag.Parse()

	if queries != "" {
		cfg.Queries = nil
		for _, q := range strings.Split(queries, ",") {
			if q = strings.TrimSpace(q); q != "" {
				cfg.Queries = append(cfg.Queries, q)
			}
		}
	}

	if err := run(cfg, stage, inputSource, productsFile); err != nil {
		if errors.Is(err, snapshot.ErrMissing) {
			log.Fatalf("pipeline halted, missing precondition: %v (run the earlier stage first)", err)
		}
		log.Fatalf("pipeline failed: %v", err)
	}
}

func run(cfg config.Config, stage, inputSource, productsFile string) error {
	reg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		log.Printf("metrics on %s/metrics", cfg.MetricsAddr)
	}

	manifests, err := buildManifestPublisher(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if stage == "ingest" || stage == "all" {
		cache, err := fetchcache.New(cfg.CacheBackend, cfg.CacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()

		var products ingest.ProductSource
		if inputSource == "file" {
			products = source.NewFileProducts(productsFile)
		} else {
			products = source.NewOpenFoodFacts(cfg.OFFBaseURL, cfg.UserAgent, cfg.HTTPTimeout,
				source.WithCache(cache, reg.CacheHits.Inc))
		}
		composition := source.NewCiqual(cfg.CiqualURL, cfg.HTTPTimeout, source.CiqualWithCache(cache))

		res, err := ingest.New(cfg, products, composition, reg, manifests).Run(ctx)
		if err != nil {
			return err
		}
		log.Printf("ingest done: products=%d composition=%d warnings=%d",
			res.ProductRows, res.CompositionRows, len(res.Warnings))
	}

	if stage == "normalize" || stage == "all" {
		res, err := normalize.New(cfg, reg, manifests).Run()
		if err != nil {
			return err
		}
		log.Printf("normalize done: products=%d composition=%d", res.ProductRows, res.CompositionRows)
	}

	if stage == "enrich" || stage == "all" {
		res, err := enrich.New(cfg, reg, manifests).Run()
		if err != nil {
			return err
		}
		log.Printf("enrich done: rows=%d", res.EnrichedRows)
	}
	return nil
}

func buildManifestPublisher(cfg config.Config) (manifest.Publisher, error) {
	fs := manifest.NewFilesystemManifest(cfg.EnrichedDir)
	switch cfg.ManifestSink {
	case "", "file":
		return fs, nil
	case "kafka":
		if cfg.KafkaBootstrap == "" {
			return nil, errors.New("manifest-sink kafka requires -kafka-bootstrap")
		}
		return manifest.NewKafkaManifest(cfg.KafkaBootstrap, cfg.ManifestTopic), nil
	case "both":
		if cfg.KafkaBootstrap == "" {
			return nil, errors.New("manifest-sink both requires -kafka-bootstrap")
		}
		return manifest.MultiPublisher(fs, manifest.NewKafkaManifest(cfg.KafkaBootstrap, cfg.ManifestTopic)), nil
	default:
		return nil, errors.New("unknown manifest sink " + cfg.ManifestSink)
	}
}
