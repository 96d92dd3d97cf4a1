package bot

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logOnce sync.Once
	baseLog zerolog.Logger
)

// ConfigureLogging initialises the process-wide zerolog logger once.
// The level comes from LOG_LEVEL and defaults to info.
func ConfigureLogging() {
	logOnce.Do(func() {
		level := zerolog.InfoLevel
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		baseLog = zerolog.New(os.Stderr).With().
			Timestamp().
			Str("service", "vidgate").
			Logger()
	})
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	ConfigureLogging()
	return baseLog.With().Str("component", name).Logger()
}
