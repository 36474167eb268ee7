package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"newsreel/internal/logging"
)

// Store holds the administrator-editable topic list, persisted as a JSON
// document that is replaced atomically on every save. Readers always observe
// either the previous list or the new one, never a partial write.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	topics []string
}

type document struct {
	Topics []string `json:"topics"`
}

// Open loads the persisted topic list, seeding from defaults when the file
// does not exist yet.
func Open(path string, defaults []string, logger *slog.Logger) (*Store, error) {
	store := &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "settings"),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		store.topics = cleanTopics(defaults)
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse topics file %s: %w", path, err)
	}
	store.topics = cleanTopics(doc.Topics)
	return store, nil
}

// Topics returns a copy of the current list.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.topics...)
}

// Replace swaps the whole topic list and persists it. The on-disk file is
// written via rename so an interrupted save leaves the previous document
// intact; the in-memory list is only updated after the write succeeds.
func (s *Store) Replace(topics []string) error {
	cleaned := cleanTopics(topics)

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(document{Topics: cleaned}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	if err := renameio.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("persist topics: %w", err)
	}

	s.topics = cleaned
	s.logger.Info("topic list replaced", logging.Int("topics", len(cleaned)))
	return nil
}

// Path returns the on-disk location backing the store.
func (s *Store) Path() string {
	return s.path
}

func cleanTopics(topics []string) []string {
	cleaned := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			cleaned = append(cleaned, topic)
		}
	}
	return cleaned
}
