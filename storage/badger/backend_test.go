package badger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "catalog")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.DirExists(t, tmpDir)
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestOpenBackend_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	backend, err := OpenBackend("", true, WithLogger(logger))
	require.NoError(t, err)
	defer backend.Close()

	assert.Same(t, logger, backend.logger)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	t.Run("successful transaction commits every write", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.AddDocuments(ctx, testDocument("tx-a", "alpha"))
			if err != nil {
				return err
			}
			// Reads inside the transaction see pending writes
			_, err = repo.GetDocumentByKey(ctx, "tx-a")
			if err != nil {
				return err
			}
			_, err = repo.AddDocuments(ctx, testDocument("tx-b", "beta"))
			return err
		})
		require.NoError(t, err)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("failed transaction writes nothing", func(t *testing.T) {
		testErr := assert.AnError
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := repo.AddDocuments(ctx, testDocument("tx-c", "gamma")); err != nil {
				return err
			}
			return testErr
		})
		assert.Equal(t, testErr, err)

		_, err = repo.GetDocumentByKey(ctx, "tx-c")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("nested transactions join the outer one", func(t *testing.T) {
		err := repo.WithTransaction(ctx, func(ctx context.Context) error {
			return repo.WithTransaction(ctx, func(ctx context.Context) error {
				_, err := repo.AddDocuments(ctx, testDocument("tx-d", "delta"))
				return err
			})
		})
		require.NoError(t, err)

		_, err = repo.GetDocumentByKey(ctx, "tx-d")
		require.NoError(t, err)
	})
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	require.NotNil(t, seq)
	defer seq.Release()

	// Get sequential IDs
	id1, err := seq.Next()
	require.NoError(t, err)

	id2, err := seq.Next()
	require.NoError(t, err)

	// IDs should be sequential
	assert.Greater(t, id2, id1)
}

func TestDocumentKeys(t *testing.T) {
	low := makeDocumentKey(core.ID(2))
	high := makeDocumentKey(core.ID(256))
	assert.Equal(t, -1, bytes.Compare(low, high), "keys sort by ID")

	id, ok := documentIDFromKey(high)
	require.True(t, ok)
	assert.Equal(t, core.ID(256), id)

	_, ok = documentIDFromKey([]byte(documentIDSeq))
	assert.False(t, ok)
	_, ok = documentIDFromKey(makeDocumentKeyIndexKey("abcdefgh"))
	assert.False(t, ok)
}
