// Package ingest coordinates one uploaded document's path from raw bytes
// to persisted index entries: validate, retain the upload, extract, chunk,
// add, save. The prior persisted index survives any failure unchanged.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chunker"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/extractor"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/helper"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/vectorindex"
)

type Ingestor struct {
	index     *vectorindex.Store
	chunker   *chunker.Chunker
	uploadDir string
}

func New(index *vectorindex.Store, ch *chunker.Chunker, uploadDir string) (*Ingestor, error) {
	if err := helper.CreateFolder(uploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %v", err)
	}
	return &Ingestor{index: index, chunker: ch, uploadDir: uploadDir}, nil
}

// Ingest processes one uploaded document and returns the number of segments
// added to the index. Zero segments from an empty document is a valid
// outcome, not an error, and leaves the index untouched.
func (g *Ingestor) Ingest(ctx context.Context, data []byte, filename string) (int, error) {
	name := filepath.Base(filename)
	if !extractor.Supported(name) {
		return 0, fmt.Errorf("%w: %q (supported: %s)",
			apperr.ErrUnsupportedFormat, name, strings.Join(extractor.SupportedExtensions, ", "))
	}

	// raw uploads are retained for re-ingestion and debugging
	path := filepath.Join(g.uploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to store upload: %v", err)
	}

	blocks, err := extractor.Extract(path)
	if err != nil {
		return 0, err
	}
	segments, err := g.chunker.Split(blocks, name)
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		log.Info().Str("file", name).Msg("no content extracted, index unchanged")
		return 0, nil
	}

	if err := g.index.Update(ctx, segments); err != nil {
		return 0, err
	}
	log.Info().Str("file", name).Int("segments", len(segments)).Msg("document indexed")
	return len(segments), nil
}

// IngestFile ingests a document already on disk (the one-shot CLI path).
func (g *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return g.Ingest(ctx, data, filepath.Base(path))
}
