package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chunker"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/testutil"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/vectorindex"
)

func newFixture(t *testing.T) (*Ingestor, *vectorindex.Store, string) {
	t.Helper()
	dir := t.TempDir()
	index, err := vectorindex.Open(context.Background(), filepath.Join(dir, "index.chromem"), testutil.FakeEmbedder(64))
	require.NoError(t, err)

	uploadDir := filepath.Join(dir, "uploads")
	ingestor, err := New(index, chunker.New(1000, 200), uploadDir)
	require.NoError(t, err)
	return ingestor, index, uploadDir
}

func TestIngestUnsupportedFormat(t *testing.T) {
	ingestor, index, _ := newFixture(t)

	_, err := ingestor.Ingest(context.Background(), []byte("MZ"), "malware.exe")
	require.Error(t, err)
	assert.True(t, apperr.IsUnsupportedFormat(err))
	assert.Equal(t, 0, index.Retrievable())
}

func TestIngestTextDocument(t *testing.T) {
	ingestor, index, uploadDir := newFixture(t)
	ctx := context.Background()

	count, err := ingestor.Ingest(ctx, []byte("Paris is the capital of France."), "france.txt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
	assert.Equal(t, count, index.Retrievable())

	// the raw upload is retained
	_, err = os.Stat(filepath.Join(uploadDir, "france.txt"))
	assert.NoError(t, err)

	results, err := index.Search(ctx, "What is the capital of France?", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "france.txt", results[0].Segment.Source)
	assert.Contains(t, results[0].Segment.Content, "Paris")
}

func TestIngestEmptyDocumentLeavesIndexUntouched(t *testing.T) {
	ingestor, index, _ := newFixture(t)

	count, err := ingestor.Ingest(context.Background(), []byte("   \n\t "), "blank.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, index.Retrievable())
}

func TestIngestCSVRows(t *testing.T) {
	ingestor, index, _ := newFixture(t)
	ctx := context.Background()

	data := []byte("name,role\nAda,engineer\nGrace,admiral\n")
	count, err := ingestor.Ingest(ctx, data, "people.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := index.Search(ctx, "Ada engineer", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Segment.Content, "name: Ada")
}

func TestIngestStripsPathFromFilename(t *testing.T) {
	ingestor, _, uploadDir := newFixture(t)

	count, err := ingestor.Ingest(context.Background(), []byte("some text"), "../../etc/notes.txt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
	_, err = os.Stat(filepath.Join(uploadDir, "notes.txt"))
	assert.NoError(t, err)
}

func TestIngestFile(t *testing.T) {
	ingestor, index, _ := newFixture(t)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Berlin is the capital of Germany."), 0o644))

	count, err := ingestor.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, index.Retrievable())
}
