// Package vectorindex owns the persistent similarity index over embedded
// document segments. The index lives fully in memory and is persisted as a
// single exported file; save replaces the persisted form in one rename so a
// reader never observes a half-written index.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/philippgille/chromem-go"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/helper"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
)

const (
	collectionName = "documents"
	compress       = false

	// A freshly created empty index is seeded with one placeholder entry so
	// it is structurally valid and saveable. The placeholder is never
	// returned from Search.
	placeholderID      = "placeholder"
	placeholderContent = "This is a placeholder document."
	placeholderSource  = "initialization"

	metaSource = "source"
	metaPage   = "page"
)

// Result pairs a retrieved segment with its similarity score (cosine
// similarity, higher is better).
type Result struct {
	Segment models.Segment
	Score   float32
}

// Index is an in-memory similarity index over embedded segments.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFn    chromem.EmbeddingFunc
}

// New embeds the given segments and builds a fresh index. An empty segment
// list yields a placeholder-seeded index that round-trips through Save and
// Load but has no retrievable entries.
func New(ctx context.Context, segments []models.Segment, embedFn chromem.EmbeddingFunc) (*Index, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}
	idx := &Index{db: db, collection: collection, embedFn: embedFn}

	if len(segments) == 0 {
		err := collection.AddDocument(ctx, chromem.Document{
			ID:       placeholderID,
			Content:  placeholderContent,
			Metadata: map[string]string{metaSource: placeholderSource},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
		}
		return idx, nil
	}

	if err := idx.Add(ctx, segments); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add embeds and incorporates new segments in place. Existing entries are
// neither re-embedded nor rebuilt.
func (idx *Index) Add(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(segments))
	for i, segment := range segments {
		metadata := map[string]string{metaSource: segment.Source}
		if segment.Page > 0 {
			metadata[metaPage] = strconv.Itoa(segment.Page)
		}
		docs = append(docs, chromem.Document{
			ID:       segmentID(segment, i),
			Content:  segment.Content,
			Metadata: metadata,
		})
	}
	if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
	}
	return nil
}

// Search embeds the query and returns up to k retrievable entries ordered
// best-first. Fewer than k results come back when the index holds fewer
// retrievable entries.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// over-fetch one so the placeholder can be dropped from the results
	n := k + 1
	if n > count {
		n = count
	}
	results, err := idx.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryText: query,
		NResults:  n,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.ID == placeholderID {
			continue
		}
		page := 0
		if p, ok := r.Metadata[metaPage]; ok {
			page, _ = strconv.Atoi(p)
		}
		out = append(out, Result{
			Segment: models.Segment{
				Content: r.Content,
				Source:  r.Metadata[metaSource],
				Page:    page,
			},
			Score: r.Similarity,
		})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Retrievable reports the number of non-placeholder entries.
func (idx *Index) Retrievable() int {
	count := idx.collection.Count()
	if _, err := idx.collection.GetByID(context.Background(), placeholderID); err == nil {
		count--
	}
	return count
}

// Save persists the index durably: the full export is written to a
// temporary file next to the canonical path, then moved over it in a single
// rename. A concurrent reader sees either the prior or the new form, never
// a mix.
func (idx *Index) Save(path string) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create index folder: %v", err)
	}
	tmp := path + ".tmp"
	if err := idx.db.ExportToFile(tmp, compress, "", collectionName); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to export index: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %v", err)
	}
	return nil
}

// Load reconstructs an index from its persisted form.
func Load(path string, embedFn chromem.EmbeddingFunc) (*Index, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrIndexNotFound, path)
	}
	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrIndexCorrupt, path, err)
	}
	collection := db.GetCollection(collectionName, embedFn)
	if collection == nil {
		return nil, fmt.Errorf("%w: %s: collection %q missing", apperr.ErrIndexCorrupt, path, collectionName)
	}
	return &Index{db: db, collection: collection, embedFn: embedFn}, nil
}

// segmentID derives a stable entry id from the segment's provenance and
// content, so re-ingesting identical content overwrites instead of piling
// up duplicate entries.
func segmentID(segment models.Segment, ordinal int) string {
	h := xxhash.New()
	h.WriteString(segment.Source)
	h.WriteString("\x00")
	h.WriteString(strconv.Itoa(segment.Page))
	h.WriteString("\x00")
	h.WriteString(strconv.Itoa(ordinal))
	h.WriteString("\x00")
	h.WriteString(segment.Content)
	return strconv.FormatUint(h.Sum64(), 16)
}
