// Package indexer builds the vector file served by the API from raw logs.
package indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lograg/internal/domain"
	"lograg/internal/logparse"
	"lograg/internal/vectorstore"
)

// DefaultWorkers bounds concurrent embedding calls.
const DefaultWorkers = 4

// Options tunes an indexing run.
type Options struct {
	Workers int
	Logger  *zap.Logger
	// NewID generates record ids. Defaults to random UUIDs.
	NewID func() string
}

// ReadRecords parses a log file. Format is "text", "json" or "" to pick by
// extension (.json means JSON, anything else plain text). Files ending in
// .gz are decompressed first and typed by the extension beneath it.
func ReadRecords(path, format string) ([]domain.LogRecord, error) {
	name := path
	compressed := strings.EqualFold(filepath.Ext(name), ".gz")
	if compressed {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if format == "" {
		format = "text"
		if strings.EqualFold(filepath.Ext(name), ".json") {
			format = "json"
		}
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if compressed {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	if format == "json" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return logparse.ParseJSON(data)
	}
	return logparse.ParseText(r)
}

// Index embeds every record's document and writes the vectors in input
// order. It returns the number of records written.
func Index(ctx context.Context, emb domain.Embedder, records []domain.LogRecord, w *vectorstore.Writer, opts Options) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	start := time.Now()
	vectors := make([][]float64, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			v, err := emb.Embed(gctx, logparse.Document(records[i]))
			if err != nil {
				return fmt.Errorf("embed record %d: %w", i, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, rec := range records {
		if err := w.Write(domain.IndexedVector{ID: newID(), Vector: vectors[i], Record: rec}); err != nil {
			return w.Count(), fmt.Errorf("write record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return w.Count(), err
	}
	logger.Info("index built",
		zap.Int("records", w.Count()),
		zap.String("embedder", emb.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return w.Count(), nil
}
