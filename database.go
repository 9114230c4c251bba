// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sift

import (
	"context"
	"log/slog"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/ingestion"
	"github.com/poiesic/sift/search"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/storage/badger"
)

// Database is a persistent document catalog with keyword search.
type Database struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	searcher *search.Searcher[*core.Document]
	config   *search.Config
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory     bool
	searchConfig *search.Config
	logger       *slog.Logger
}

// WithInMemory keeps the catalog in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSearchConfig sets the configuration used by Search and NewSearcher.
func WithSearchConfig(cfg *search.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.searchConfig = cfg
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// NewDatabase opens or creates the catalog stored at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		searchConfig: search.DefaultConfig(), // Default if not provided
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.searchConfig == nil {
		options.searchConfig = search.DefaultConfig()
	}
	if err := options.searchConfig.Validate(); err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher[*core.Document](
		search.WithConfig(options.searchConfig),
		search.WithLogger(options.logger),
	)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		docRepo:  docRepo,
		searcher: searcher,
		config:   options.searchConfig,
		logger:   options.logger,
	}, nil
}

// Close releases the searcher, the repository and the backend.
func (db *Database) Close() error {
	db.searcher.Release()

	// Close repository
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the catalog repository.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

// NewIngestionPipeline creates a pipeline that imports into this catalog.
// The caller must Release it.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewPipeline(db.docRepo, opts...)
}

// NewSearcher creates a document searcher using the database's search
// configuration unless opts override it. The caller must Release it.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher[*core.Document], error) {
	opts = append([]search.Option{search.WithConfig(db.config), search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher[*core.Document](opts...)
}

// Search ranks every catalog document against query. Documents are
// considered in insertion order, which breaks score ties. A limit of zero
// or less returns every match. An empty query returns every document.
func (db *Database) Search(ctx context.Context, query string, mode core.Mode, limit int) ([]search.Result[*core.Document], error) {
	docs, err := db.docRepo.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	results, err := db.searcher.Rank(ctx, docs, &search.Options[*core.Document]{
		Text: query,
		Mode: mode,
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
