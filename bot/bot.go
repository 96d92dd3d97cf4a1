package bot

import (
	"errors"
	"time"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
)

// Duration wraps time.Duration so it round-trips through text-based
// config values ("20s", "5m").
type Duration struct {
	time.Duration
}

func (d *Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	td, err := time.ParseDuration(string(text))
	if err != nil {
		return ErrInvalidArgument
	}
	d.Duration = td
	return nil
}

// Expired reports whether t lies more than ttl in the past. The update
// loop uses it to drop stale updates that queued while the process was
// down.
func Expired(t time.Time, ttl time.Duration) bool {
	now := time.Now().UTC()
	return now.After(t.Add(ttl))
}
