// Package keepalive exists to stop free-tier hosting from idling the
// process. It tracks a last-activity timestamp and exposes it over a
// tiny HTTP surface that an external uptime pinger can hit. It has no
// part in the bot's logic beyond being touched on every update.
package keepalive

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HealthThreshold is how stale the last activity may be before the
// process reports itself as sleeping.
const HealthThreshold = 120 * time.Second

// Monitor records the time of the last observed activity. Safe for
// concurrent use.
type Monitor struct {
	last atomic.Int64 // unix nanos
	now  func() time.Time
}

func NewMonitor() *Monitor {
	m := &Monitor{now: time.Now}
	m.Record()
	return m
}

// Record marks now as the last activity.
func (m *Monitor) Record() {
	m.last.Store(m.now().UnixNano())
}

// Last returns the last recorded activity time.
func (m *Monitor) Last() time.Time {
	return time.Unix(0, m.last.Load())
}

// Healthy reports whether activity was seen within the threshold.
func (m *Monitor) Healthy() bool {
	return m.now().Sub(m.Last()) < HealthThreshold
}

// Touch loops until ctx is done, refreshing the timestamp on every
// tick and logging when the threshold slipped by between ticks.
func (m *Monitor) Touch(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.Healthy() {
				log.Warn().Time("last_activity", m.Last()).Msg("no activity within threshold")
			}
			m.Record()
		}
	}
}

// Router builds the liveness HTTP surface.
func Router(m *Monitor) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("vidgate bot is running"))
	})
	r.Get("/keep-alive", func(w http.ResponseWriter, _ *http.Request) {
		m.Record()
		_, _ = w.Write([]byte("Bot is awake"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := "active"
		if !m.Healthy() {
			status = "sleeping"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        status,
			"last_activity": m.Last().Unix(),
		})
	})
	return r
}
