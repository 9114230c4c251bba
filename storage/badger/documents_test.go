package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(key, title string) *core.Document {
	return &core.Document{
		Key: key,
		Attributes: []core.Attribute{
			{Name: "title", Value: title},
			{Name: "code", Value: "C-" + title, Exact: true},
		},
	}
}

func newTestRepository(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestDocumentBasics(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx, testDocument("pie", "Apple pie"))
	require.NoError(t, err)
	require.Len(t, added, 1)

	doc := added[0]
	assert.NotZero(t, doc.Id)
	assert.False(t, doc.InsertedAt.IsZero())
	assert.Equal(t, doc.InsertedAt, doc.UpdatedAt)

	got, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Key, got.Key)
	assert.Equal(t, doc.Attributes, got.Attributes)
	assert.True(t, doc.InsertedAt.Truncate(time.Microsecond).Equal(got.InsertedAt))

	byKey, err := repo.GetDocumentByKey(ctx, "pie")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, byKey.Id)

	_, err = repo.GetDocument(ctx, core.ID(9999))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetDocumentByKey(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddDocuments_DefaultKey(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := testDocument("", "Banana split")
	_, err := repo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%016x", uint64(doc.Fingerprint())), doc.Key)

	// Identical content yields the same key
	_, err = repo.AddDocuments(ctx, testDocument("", "Banana split"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAddDocuments_DuplicateKey(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx, testDocument("k1", "one"))
	require.NoError(t, err)

	_, err = repo.AddDocuments(ctx, testDocument("k1", "other"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// A duplicate within one batch aborts the whole batch
	_, err = repo.AddDocuments(ctx, testDocument("k2", "two"), testDocument("k2", "again"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddDocuments_FailureLeavesDocumentsUntouched(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx, testDocument("taken", "one"))
	require.NoError(t, err)

	fresh := testDocument("", "fresh")
	clash := testDocument("taken", "two")
	_, err = repo.AddDocuments(ctx, fresh, clash)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	for _, doc := range []*core.Document{fresh, clash} {
		assert.Zero(t, doc.Id)
		assert.True(t, doc.InsertedAt.IsZero())
		assert.True(t, doc.UpdatedAt.IsZero())
	}
	assert.Empty(t, fresh.Key)
	assert.Equal(t, "taken", clash.Key)

	// The same documents can be added once the clash is resolved
	clash.Key = "free"
	added, err := repo.AddDocuments(ctx, fresh, clash)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotZero(t, fresh.Id)
	assert.NotEmpty(t, fresh.Key)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddDocuments_Invalid(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.AddDocuments(context.Background(), &core.Document{Key: "empty"})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestListDocuments_InsertionOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	var keys []string
	for i := 0; i < 300; i++ {
		key := fmt.Sprintf("doc-%03d", 299-i)
		keys = append(keys, key)
		_, err := repo.AddDocuments(ctx, testDocument(key, fmt.Sprintf("title %d", i)))
		require.NoError(t, err)
	}

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 300)
	for i, doc := range docs {
		assert.Equal(t, keys[i], doc.Key)
		if i > 0 {
			assert.Greater(t, doc.Id, docs[i-1].Id)
		}
	}

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, count)
}

func TestForEachDocument(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := repo.AddDocuments(ctx, testDocument(fmt.Sprintf("k%d", i), fmt.Sprintf("t%d", i)))
		require.NoError(t, err)
	}

	t.Run("batches", func(t *testing.T) {
		var sizes []int
		err := repo.ForEachDocument(ctx, 3, func(batch []*core.Document) error {
			sizes = append(sizes, len(batch))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 3, 1}, sizes)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := repo.ForEachDocument(ctx, 2, func(batch []*core.Document) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		err := repo.ForEachDocument(ctx, 0, func([]*core.Document) error { return nil })
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := repo.ForEachDocument(cancelled, 2, func([]*core.Document) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUpdateDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx, testDocument("old", "Apple"), testDocument("taken", "Pear"))
	require.NoError(t, err)
	doc := added[0]
	insertedAt := doc.InsertedAt

	t.Run("replaces attributes and keeps insertion time", func(t *testing.T) {
		update := &core.Document{
			Id:         doc.Id,
			Attributes: []core.Attribute{{Name: "title", Value: "Apple tart"}},
		}
		_, err := repo.UpdateDocuments(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, "old", update.Key)

		got, err := repo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, "Apple tart", got.Title())
		assert.True(t, insertedAt.Truncate(time.Microsecond).Equal(got.InsertedAt))
		assert.False(t, got.UpdatedAt.Before(got.InsertedAt))
	})

	t.Run("moves the key index", func(t *testing.T) {
		update := &core.Document{
			Id:         doc.Id,
			Key:        "new",
			Attributes: []core.Attribute{{Name: "title", Value: "Apple tart"}},
		}
		_, err := repo.UpdateDocuments(ctx, update)
		require.NoError(t, err)

		_, err = repo.GetDocumentByKey(ctx, "old")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := repo.GetDocumentByKey(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, doc.Id, got.Id)
	})

	t.Run("rejects a key owned by another document", func(t *testing.T) {
		update := &core.Document{
			Id:         doc.Id,
			Key:        "taken",
			Attributes: []core.Attribute{{Name: "title", Value: "x"}},
		}
		_, err := repo.UpdateDocuments(ctx, update)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("missing document", func(t *testing.T) {
		update := &core.Document{
			Id:         core.ID(9999),
			Attributes: []core.Attribute{{Name: "title", Value: "x"}},
		}
		_, err := repo.UpdateDocuments(ctx, update)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("failed update leaves documents untouched", func(t *testing.T) {
		keep := &core.Document{
			Id:         doc.Id,
			Attributes: []core.Attribute{{Name: "title", Value: "y"}},
		}
		missing := &core.Document{
			Id:         core.ID(9999),
			Attributes: []core.Attribute{{Name: "title", Value: "x"}},
		}
		_, err := repo.UpdateDocuments(ctx, keep, missing)
		require.ErrorIs(t, err, storage.ErrNotFound)
		assert.Empty(t, keep.Key)
		assert.True(t, keep.UpdatedAt.IsZero())

		got, err := repo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, "Apple tart", got.Title())
	})
}

func TestDeleteDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx, testDocument("a", "A"), testDocument("b", "B"))
	require.NoError(t, err)

	err = repo.DeleteDocuments(ctx, added[0].Id)
	require.NoError(t, err)

	_, err = repo.GetDocument(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetDocumentByKey(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The key can be reused once freed
	_, err = repo.AddDocuments(ctx, testDocument("a", "A again"))
	require.NoError(t, err)

	err = repo.DeleteDocuments(ctx, core.ID(9999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocuments_Multiple(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx, testDocument("a", "A"), testDocument("b", "B"), testDocument("c", "C"))
	require.NoError(t, err)

	docs, err := repo.GetDocuments(ctx, added[0].Id, core.ID(9999), added[2].Id)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Key)
	assert.Equal(t, "c", docs[1].Key)
}
