package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lograg/internal/app"
	"lograg/internal/config"
	"lograg/internal/domain"
	"lograg/internal/indexer"
	"lograg/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		outPath string
		format  string
		workers int
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&outPath, "out", "", "Output vector file (defaults to store.vectors_file)")
	flag.StringVar(&format, "format", "", "Input format: text or json (default: by extension)")
	flag.IntVar(&workers, "workers", indexer.DefaultWorkers, "Concurrent embedding calls")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: lograg-index [--config=lograg.yaml] [--out=data.jsonl] app.log [synthetic_logs.json ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if outPath == "" {
		outPath = cfg.Store.VectorsFile
	}
	logger, err := app.Logger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	emb, err := app.Embedder(cfg, 0, logger)
	if err != nil {
		logger.Fatal("embedder init failed", zap.Error(err))
	}

	all, err := readAll(inputs, format, logger)
	if err != nil {
		logger.Fatal("read logs failed", zap.Error(err))
	}
	if len(all) == 0 {
		logger.Warn("no log events found, nothing written")
		return
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		logger.Fatal("create output dir failed", zap.Error(err))
	}
	// Write to a sibling temp file so a running server never reloads a
	// half-written index.
	tmp := outPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		logger.Fatal("create output failed", zap.Error(err))
	}
	n, err := indexer.Index(context.Background(), emb, all, vectorstore.NewWriter(f), indexer.Options{Workers: workers, Logger: logger})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		logger.Fatal("indexing failed", zap.Error(err))
	}
	if err := os.Rename(tmp, outPath); err != nil {
		logger.Fatal("finalize output failed", zap.Error(err))
	}
	logger.Info("wrote vectors", zap.String("path", outPath), zap.Int("count", n))
}

func readAll(paths []string, format string, logger *zap.Logger) ([]domain.LogRecord, error) {
	var all []domain.LogRecord
	for _, p := range paths {
		recs, err := indexer.ReadRecords(p, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		logger.Info("parsed log events", zap.String("path", p), zap.Int("count", len(recs)))
		all = append(all, recs...)
	}
	return all, nil
}
