// Package state holds the bot's transient per-user state: admin upload
// sessions, pending membership gates and pending payment notes. All of
// it is process memory only; a restart forgets everything, which is
// accepted behavior (users simply re-open their deep link).
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/nmoradi/vidgate/store"
)

// Mode is the admin upload session mode.
type Mode int

const (
	Idle Mode = iota
	UploadSingle
	UploadPackage
	UploadPaid
)

var (
	ErrNoSession  = errors.New("no upload session")
	ErrBufferFull = errors.New("upload buffer is full")
)

type session struct {
	mode    Mode
	files   []string
	touched time.Time
}

type pending struct {
	code    string
	touched time.Time
}

// Container owns every transient map behind one mutex. Handlers go
// through its accessors; the maps themselves never leak out. Entries
// untouched for longer than ttl are dropped by Sweep.
type Container struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
	gates    map[int64]pending
	payments map[int64]pending
}

func NewContainer(ttl time.Duration) *Container {
	return &Container{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[int64]*session{},
		gates:    map[int64]pending{},
		payments: map[int64]pending{},
	}
}

// Begin opens (or re-opens) an upload session in the given mode with
// an empty buffer.
func (c *Container) Begin(adminID int64, mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[adminID] = &session{mode: mode, touched: c.now()}
}

// Mode reports the admin's current session mode, Idle if none.
func (c *Container) Mode(adminID int64) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[adminID]
	if !ok {
		return Idle
	}
	return s.mode
}

// Append adds a file to the session buffer and returns the new buffer
// length. The buffer never grows past the package cap; the failed
// append leaves it unchanged.
func (c *Container) Append(adminID int64, fileID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[adminID]
	if !ok || s.mode == Idle {
		return 0, ErrNoSession
	}
	if len(s.files) >= store.MaxPackageSize {
		return len(s.files), ErrBufferFull
	}
	s.files = append(s.files, fileID)
	s.touched = c.now()
	return len(s.files), nil
}

// Files returns a copy of the session buffer without touching the
// session, so an empty-buffer finish can be rejected while the admin
// keeps their progress.
func (c *Container) Files(adminID int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[adminID]
	if !ok {
		return nil
	}
	return append([]string(nil), s.files...)
}

// Clear ends the admin's session, dropping any buffered files.
func (c *Container) Clear(adminID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, adminID)
}

// SetGate remembers the code a user is waiting to unlock via channel
// membership. One pending code per user; a new request replaces it.
func (c *Container) SetGate(userID int64, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gates[userID] = pending{code: code, touched: c.now()}
}

// Gate returns the user's pending gated code, if any.
func (c *Container) Gate(userID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.gates[userID]
	return p.code, ok
}

// ClearGate forgets the user's pending gate.
func (c *Container) ClearGate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.gates, userID)
}

// SetPayment records that the user was prompted to pay for a code.
// Nothing automated consumes this; the admin settles payments out of
// band and the entry only exists so the receipt can be matched to a
// package by a human.
func (c *Container) SetPayment(userID int64, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments[userID] = pending{code: code, touched: c.now()}
}

// Payment returns the code the user was asked to pay for, if any.
func (c *Container) Payment(userID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.payments[userID]
	return p.code, ok
}

// Sweep drops entries that have not been touched within the TTL and
// reports how many were removed. Expiry can discard an in-progress
// upload or a user's pending gate; affected parties get no
// notification and must start over.
func (c *Container) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.ttl)
	removed := 0
	for id, s := range c.sessions {
		if s.touched.Before(cutoff) {
			delete(c.sessions, id)
			removed++
		}
	}
	for id, p := range c.gates {
		if p.touched.Before(cutoff) {
			delete(c.gates, id)
			removed++
		}
	}
	for id, p := range c.payments {
		if p.touched.Before(cutoff) {
			delete(c.payments, id)
			removed++
		}
	}
	return removed
}
