// Package store persists content records and the user registry as
// whole JSON files. Both stores keep an in-memory cache that mirrors
// the file and is refreshed on every save, so steady-state reads cost
// no I/O. Writes go through an atomic write-replace to keep the files
// intact across crashes.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// ContentStore maps short codes to content records, backed by one JSON
// document. Read failures degrade to an empty mapping rather than
// taking the bot down.
type ContentStore struct {
	path string
	log  zerolog.Logger

	mu    sync.Mutex
	cache map[string]Content
}

func NewContentStore(path string, log zerolog.Logger) *ContentStore {
	return &ContentStore{path: path, log: log}
}

// Load returns a copy of the full code->record mapping.
func (s *ContentStore) Load() map[string]Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.loadLocked())
}

func (s *ContentStore) loadLocked() map[string]Content {
	if s.cache != nil {
		return s.cache
	}
	s.cache = map[string]Content{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("content file unreadable, starting empty")
		}
		return s.cache
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("content file corrupt, starting empty")
		s.cache = map[string]Content{}
	}
	return s.cache
}

// Save writes the complete mapping back to disk and refreshes the
// cache. The write is atomic: a temp file is fsynced and renamed over
// the old one, so a crash never leaves a truncated store.
func (s *ContentStore) Save(m map[string]Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(m)
}

func (s *ContentStore) saveLocked(m map[string]Content) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("content save failed")
		return err
	}
	s.cache = copyMap(m)
	return nil
}

// Get looks up a single code.
func (s *ContentStore) Get(code string) (Content, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.loadLocked()[code]
	return c, ok
}

// Put stores one record under code and persists the store.
func (s *ContentStore) Put(code string, c Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := copyMap(s.loadLocked())
	m[code] = c
	return s.saveLocked(m)
}

// NewCode generates a fresh code of the given length that is not
// already in use, retrying a bounded number of times on collision.
func (s *ContentStore) NewCode(length int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.loadLocked()
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(length)
		if err != nil {
			return "", err
		}
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}
	return "", errors.New("code space exhausted")
}

func copyMap(m map[string]Content) map[string]Content {
	out := make(map[string]Content, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
