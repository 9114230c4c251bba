package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

const (
	defaultBatchSize   = 500
	defaultMaxAttempts = 3
	defaultRetryDelay  = 10 * time.Millisecond
	progressInterval   = 1000
)

// Stats summarizes an import.
type Stats struct {
	Files    int           // Files parsed
	Parsed   int           // Documents read from input
	Added    int           // Documents written to the catalog
	Skipped  int           // Documents whose key was already present
	Invalid  int           // Documents rejected by validation
	Duration time.Duration // Wall time of the import
}

// Pipeline imports item files into a document catalog.
type Pipeline struct {
	repository  storage.DocumentRepository
	parsePool   *ants.Pool
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent parsing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.parsePool != nil {
			p.parsePool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.parsePool = pool
		return nil
	}
}

// WithBatchSize sets how many documents are added per transaction.
// Default is 500.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithProgress reports import progress to w.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	parsePool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		repository:  repository,
		parsePool:   parsePool,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

type parsedFile struct {
	docs []*core.Document
	err  error
}

// IngestFiles parses every file, then imports their documents in file order.
// Nothing is written if any file fails to parse.
func (p *Pipeline) IngestFiles(ctx context.Context, paths ...string) (*Stats, error) {
	start := time.Now()

	parsed := make([]parsedFile, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		err := p.parsePool.Submit(func() {
			defer wg.Done()
			docs, err := LoadFile(path)
			parsed[i] = parsedFile{docs: docs, err: err}
		})
		if err != nil {
			wg.Done()
			parsed[i] = parsedFile{err: err}
		}
	}
	wg.Wait()

	var docs []*core.Document
	for i, file := range parsed {
		if file.err != nil {
			return &Stats{Files: i, Duration: time.Since(start)}, file.err
		}
		p.logger.Debug("parsed item file", "path", paths[i], "documents", len(file.docs))
		docs = append(docs, file.docs...)
	}

	stats, err := p.Ingest(ctx, docs)
	stats.Files = len(paths)
	stats.Duration = time.Since(start)
	return stats, err
}

// Ingest validates documents and adds those whose key is not yet in the
// catalog. Documents without a key are keyed by fingerprint, so importing
// the same file twice adds nothing the second time.
func (p *Pipeline) Ingest(ctx context.Context, docs []*core.Document) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(docs), progressInterval)
		tracker.Start()
		defer tracker.Finish()
	}
	skip := func() {
		if tracker != nil {
			tracker.Skip(1)
		}
	}

	seen := make(map[string]struct{}, len(docs))
	batch := make([]*core.Document, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := RetryOnConflict(ctx, p.logger, func() error {
			_, err := p.repository.AddDocuments(ctx, batch...)
			return err
		}, p.maxAttempts, p.retryDelay)
		if err != nil {
			return fmt.Errorf("adding %d documents: %w", len(batch), err)
		}
		stats.Added += len(batch)
		if tracker != nil {
			tracker.Increment(len(batch))
		}
		batch = make([]*core.Document, 0, p.batchSize)
		return nil
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
		stats.Parsed++

		if err := core.ValidateDocument(doc); err != nil {
			stats.Invalid++
			p.logger.Warn("skipping invalid document", "key", doc.Key, "err", err)
			skip()
			continue
		}

		key := doc.EffectiveKey()
		if _, dup := seen[key]; dup {
			stats.Skipped++
			skip()
			continue
		}
		seen[key] = struct{}{}

		_, err := p.repository.GetDocumentByKey(ctx, key)
		if err == nil {
			stats.Skipped++
			skip()
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			stats.Duration = time.Since(start)
			return stats, err
		}

		doc.Key = key
		batch = append(batch, doc)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				stats.Duration = time.Since(start)
				return stats, err
			}
		}
	}

	err := flush()
	stats.Duration = time.Since(start)
	if err == nil {
		p.logger.Info("import complete",
			"parsed", stats.Parsed,
			"added", stats.Added,
			"skipped", stats.Skipped,
			"invalid", stats.Invalid)
	}
	return stats, err
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.parsePool != nil {
		p.parsePool.Release()
	}
}
