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

// UserRegistry is an append-only list of user ids, persisted as a JSON
// array. Users are recorded once, in first-seen order, and never
// removed.
type UserRegistry struct {
	path string
	log  zerolog.Logger

	mu    sync.Mutex
	cache []int64
}

func NewUserRegistry(path string, log zerolog.Logger) *UserRegistry {
	return &UserRegistry{path: path, log: log}
}

// Load returns a copy of the registered user ids.
func (r *UserRegistry) Load() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.loadLocked()...)
}

func (r *UserRegistry) loadLocked() []int64 {
	if r.cache != nil {
		return r.cache
	}
	r.cache = []int64{}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("user file unreadable, starting empty")
		}
		return r.cache
	}
	if err := json.Unmarshal(data, &r.cache); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("user file corrupt, starting empty")
		r.cache = []int64{}
	}
	return r.cache
}

// Add records a user id if it is not already present. Adding a known
// id is a no-op, so callers invoke it on every /start unconditionally.
func (r *UserRegistry) Add(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := r.loadLocked()
	for _, u := range users {
		if u == id {
			return nil
		}
	}
	users = append(users, id)

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(r.path, data, 0o644); err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("user save failed")
		return err
	}
	r.cache = users
	return nil
}

// Count returns how many users have been registered.
func (r *UserRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loadLocked())
}
