// Package chatstore keeps one append-only JSON message log per
// conversation. Each conversation is its own durable file, so appends to
// one conversation never block or risk another's.
package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/helper"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
)

type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return nil, fmt.Errorf("failed to create history folder: %v", err)
	}
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Append adds one message with a server-assigned timestamp, creating the
// conversation on first write. Appends to the same id are serialized; the
// file is replaced in one rename so a half-written log is never visible.
func (s *Store) Append(chatID, role, content string) error {
	path, err := s.historyPath(chatID)
	if err != nil {
		return err
	}
	lock := s.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	history, err := readHistory(path)
	if err != nil {
		return err
	}
	history = append(history, models.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read returns the conversation's messages oldest-first, or only the most
// recent limit messages when limit > 0. An unknown id yields an empty
// history, not an error.
func (s *Store) Read(chatID string, limit int) ([]models.ChatMessage, error) {
	path, err := s.historyPath(chatID)
	if err != nil {
		return nil, err
	}
	lock := s.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	history, err := readHistory(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (s *Store) lockFor(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	return lock
}

// historyPath rejects ids that would escape the history folder.
func (s *Store) historyPath(chatID string) (string, error) {
	if chatID == "" || chatID != filepath.Base(chatID) || strings.HasPrefix(chatID, ".") {
		return "", fmt.Errorf("invalid conversation id: %q", chatID)
	}
	return filepath.Join(s.dir, chatID+".json"), nil
}

func readHistory(path string) ([]models.ChatMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []models.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %v", path, err)
	}
	return history, nil
}
