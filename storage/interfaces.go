package storage

import (
	"context"

	"github.com/poiesic/sift/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing the document catalog.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// Generates new IDs from sequence; IDs are never 0 and increase with
	// insertion order. Documents with an empty Key are keyed by their
	// fingerprint. Sets InsertedAt and UpdatedAt.
	// Returns ErrDuplicateKey if a key is already stored or repeated in the batch.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments replaces the attributes of existing documents.
	// Updates the UpdatedAt timestamp automatically and keeps InsertedAt.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes the key index entry.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentByKey retrieves a document by its unique key.
	// Returns ErrNotFound if no document has that key.
	GetDocumentByKey(ctx context.Context, key string) (*core.Document, error)

	// ListDocuments returns every document in insertion order.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// ForEachDocument streams documents in insertion order, batchSize at a time.
	// Iteration stops at the first error returned by fn.
	ForEachDocument(ctx context.Context, batchSize int, fn func(batch []*core.Document) error) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}
