package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage. Key, Id and the
// timestamps are filled in on docs only once the write succeeds.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	staged := make([]core.Document, len(docs))
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for i, doc := range docs {
			record := *doc
			record.Key = doc.EffectiveKey()

			indexKey := makeDocumentKeyIndexKey(record.Key)
			if _, err := tx.Get(indexKey); err == nil {
				return fmt.Errorf("%w: %q", storage.ErrDuplicateKey, record.Key)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			nextID, err := r.nextID()
			if err != nil {
				return err
			}
			record.Id = nextID
			record.InsertedAt = now
			record.UpdatedAt = now

			// Store primary record
			if err := tx.Set(makeDocumentKey(record.Id), storage.MarshalDocument(&record)); err != nil {
				return err
			}

			// Update key index
			if err := tx.Set(indexKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
			staged[i] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		doc.Key = staged[i].Key
		doc.Id = staged[i].Id
		doc.InsertedAt = staged[i].InsertedAt
		doc.UpdatedAt = staged[i].UpdatedAt
	}
	return docs, nil
}

// UpdateDocuments updates existing documents. An empty Key keeps the stored
// key. As with AddDocuments, docs are only modified after a successful write.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	staged := make([]core.Document, len(docs))
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for i, doc := range docs {
			record := *doc
			key := makeDocumentKey(record.Id)

			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, record.Id)
			}

			if record.Key == "" {
				record.Key = old.Key
			}

			// Move the key index entry when the key changed
			if record.Key != old.Key {
				indexKey := makeDocumentKeyIndexKey(record.Key)
				if _, err := tx.Get(indexKey); err == nil {
					return fmt.Errorf("%w: %q", storage.ErrDuplicateKey, record.Key)
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
				if err := tx.Delete(makeDocumentKeyIndexKey(old.Key)); err != nil {
					return err
				}
				if err := tx.Set(indexKey, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}

			record.InsertedAt = old.InsertedAt
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalDocument(&record)); err != nil {
				return err
			}
			staged[i] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		doc.Key = staged[i].Key
		doc.InsertedAt = staged[i].InsertedAt
		doc.UpdatedAt = staged[i].UpdatedAt
	}
	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
			}

			if err := tx.Delete(makeDocumentKeyIndexKey(doc.Key)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
		}
		return nil
	})
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	})
	return result, err
}

// GetDocumentByKey retrieves a document through the key index.
func (r *DocumentRepository) GetDocumentByKey(ctx context.Context, key string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKeyIndexKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: key %q", storage.ErrNotFound, key)
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: key %q", storage.ErrNotFound, key)
		}
		return nil
	})
	return result, err
}

// ListDocuments returns every document in insertion order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.ForEachDocument(ctx, 256, func(batch []*core.Document) error {
		results = append(results, batch...)
		return nil
	})
	return results, err
}

// ForEachDocument streams documents in insertion order.
func (r *DocumentRepository) ForEachDocument(ctx context.Context, batchSize int, fn func(batch []*core.Document) error) error {
	if batchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", storage.ErrInvalidQuery)
	}

	return r.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		batch := make([]*core.Document, 0, batchSize)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if _, ok := documentIDFromKey(item.Key()); !ok {
				continue
			}

			var doc *core.Document
			if err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			batch = append(batch, doc)

			if len(batch) == batchSize {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(batch); err != nil {
					return err
				}
				batch = make([]*core.Document, 0, batchSize)
			}
		}

		if len(batch) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(batch)
		}
		return nil
	})
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if _, ok := documentIDFromKey(iter.Item().Key()); ok {
				count++
			}
		}
		return nil
	})
	return count, err
}

// Helper methods

// nextID draws the next document ID.
func (r *DocumentRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// readDocument reads a document from the transaction.
// Returns nil, nil when the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
