package vectorindex

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/testutil"
)

func TestOpenInitializesEmptyIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.chromem")
	embedFn := testutil.FakeEmbedder(32)

	store, err := Open(ctx, path, embedFn)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Retrievable())

	// the initial empty index was persisted, so a direct load succeeds
	idx, err := Load(path, embedFn)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Retrievable())
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.chromem")
	embedFn := testutil.FakeEmbedder(32)

	store, err := Open(ctx, path, embedFn)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, []models.Segment{
		{Content: "Paris is the capital of France.", Source: "france.txt"},
	}))
	assert.Equal(t, 1, store.Retrievable())

	reopened, err := Open(ctx, path, embedFn)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Retrievable())

	results, err := reopened.Search(ctx, "capital of France", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "france.txt", results[0].Segment.Source)
}

func TestUpdateFailureLeavesPersistedIndexUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.chromem")
	quotaErr := errors.New("quota exceeded")
	embedFn := testutil.FailingEmbedder(testutil.FakeEmbedder(32), "BOOM", quotaErr)

	store, err := Open(ctx, path, embedFn)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, []models.Segment{
		{Content: "stable content", Source: "ok.txt"},
	}))

	err = store.Update(ctx, []models.Segment{
		{Content: "BOOM goes the embedder", Source: "bad.txt"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrEmbedding))

	// the in-memory handle was restored from the last persisted form
	assert.Equal(t, 1, store.Retrievable())
	idx, err := Load(path, testutil.FakeEmbedder(32))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Retrievable())
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.chromem")
	embedFn := testutil.FakeEmbedder(32)

	store, err := Open(ctx, path, embedFn)
	require.NoError(t, err)

	var wg sync.WaitGroup
	uploads := []models.Segment{
		{Content: "Paris is the capital of France.", Source: "france.txt"},
		{Content: "Berlin is the capital of Germany.", Source: "germany.txt"},
		{Content: "Madrid is the capital of Spain.", Source: "spain.txt"},
		{Content: "Rome is the capital of Italy.", Source: "italy.txt"},
	}
	for _, segment := range uploads {
		wg.Add(1)
		go func(seg models.Segment) {
			defer wg.Done()
			assert.NoError(t, store.Update(ctx, []models.Segment{seg}))
		}(segment)
	}
	wg.Wait()

	assert.Equal(t, len(uploads), store.Retrievable())

	reopened, err := Open(ctx, path, embedFn)
	require.NoError(t, err)
	assert.Equal(t, len(uploads), reopened.Retrievable())
}
