package vectorindex

import (
	"context"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
)

// Store owns the process-wide index handle. All ingestions share one index,
// so the add-then-save sequence runs under a single-writer lock; searches
// take only the read lock and run against the current handle.
type Store struct {
	path    string
	embedFn chromem.EmbeddingFunc

	mu  sync.RWMutex
	idx *Index
}

// Open loads the persisted index from path. When no persisted form exists
// yet, it creates an empty placeholder-seeded index and saves it, so later
// loads always find a valid index.
func Open(ctx context.Context, path string, embedFn chromem.EmbeddingFunc) (*Store, error) {
	idx, err := Load(path, embedFn)
	if apperr.IsIndexNotFound(err) {
		log.Info().Str("path", path).Msg("no persisted index found, initializing empty index")
		idx, err = New(ctx, nil, embedFn)
		if err == nil {
			err = idx.Save(path)
		}
	}
	if err != nil {
		return nil, err
	}
	return &Store{path: path, embedFn: embedFn, idx: idx}, nil
}

// Update adds segments to the index and persists the result. When either
// step fails, the previously persisted form stays authoritative and the
// in-memory handle is restored from it, discarding any partial build.
func (s *Store) Update(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idx.Add(ctx, segments); err != nil {
		s.restore()
		return err
	}
	if err := s.idx.Save(s.path); err != nil {
		s.restore()
		return err
	}
	return nil
}

// restore reloads the last persisted form. Caller holds the write lock.
func (s *Store) restore() {
	idx, err := Load(s.path, s.embedFn)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("failed to restore index from persisted form")
		return
	}
	s.idx = idx
}

// Search runs a similarity query against the current index.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Result, error) {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	return idx.Search(ctx, query, k)
}

// Retrievable reports the number of non-placeholder entries.
func (s *Store) Retrievable() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Retrievable()
}
