package bot

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/nmoradi/vidgate/membership"
)

// Config is assembled from environment variables. Only the bot token is
// mandatory; everything else has a usable default so the bot can run on
// a bare hosting account.
type Config struct {
	Token    string
	AdminID  int64
	Channels []membership.Channel

	DataDir string
	Listen  string

	NumWorkers  int
	PollTimeout int
	UpdateTTL   Duration

	CodeLength int
	Visibility Duration
	SendGap    Duration
	PendingTTL Duration

	// Defaults applied to paid packages at creation time.
	Price    int
	Card     string
	Currency string
}

var ErrMissingToken = errors.New("BOT_TOKEN is not set")

const (
	defaultListen      = ":8080"
	defaultWorkers     = 4
	defaultPollTimeout = 30
	defaultCodeLength  = 6
	defaultVisibility  = 20 * time.Second
	defaultSendGap     = 200 * time.Millisecond
	defaultPendingTTL  = 30 * time.Minute
	defaultUpdateTTL   = 24 * time.Hour
	defaultPrice       = 99000
	defaultCurrency    = "IRR"
)

// LoadConfig reads the process environment. A missing token is the only
// fatal condition; an unparseable ADMIN_ID degrades to 0, which
// disables the admin panel rather than crashing the bot.
func LoadConfig() (Config, error) {
	cfg := Config{
		Token:       os.Getenv("BOT_TOKEN"),
		DataDir:     envString("VIDGATE_DATA_DIR", "."),
		Listen:      envString("VIDGATE_LISTEN", defaultListen),
		NumWorkers:  envInt("VIDGATE_WORKERS", defaultWorkers),
		PollTimeout: envInt("VIDGATE_POLL_TIMEOUT", defaultPollTimeout),
		UpdateTTL:   Duration{envDuration("VIDGATE_UPDATE_TTL", defaultUpdateTTL)},
		CodeLength:  envInt("VIDGATE_CODE_LENGTH", defaultCodeLength),
		Visibility:  Duration{envDuration("VIDGATE_VISIBILITY", defaultVisibility)},
		SendGap:     Duration{envDuration("VIDGATE_SEND_GAP", defaultSendGap)},
		PendingTTL:  Duration{envDuration("VIDGATE_PENDING_TTL", defaultPendingTTL)},
		Price:       envInt("VIDGATE_PRICE", defaultPrice),
		Card:        os.Getenv("VIDGATE_CARD"),
		Currency:    envString("VIDGATE_CURRENCY", defaultCurrency),
	}
	if cfg.Token == "" {
		return cfg, ErrMissingToken
	}

	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log := Component("config")
			log.Warn().Str("value", v).Msg("ADMIN_ID is not a valid id, admin features disabled")
		} else {
			cfg.AdminID = id
		}
	}

	cfg.Channels = loadChannels()
	return cfg, nil
}

// loadChannels builds the membership requirements. The first channel is
// checked by numeric chat id (the bot must be an admin there, so the id
// form is reliable), the second by public username. Either may be
// absent; no channels means no gating.
func loadChannels() []membership.Channel {
	var chans []membership.Channel

	first := membership.Channel{
		Username: os.Getenv("CHANNEL_USERNAME"),
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			first.ChatID = id
		} else {
			log := Component("config")
			log.Warn().Str("value", v).Msg("CHANNEL_ID is not numeric, falling back to username")
		}
	}
	if first.ChatID != 0 || first.Username != "" {
		chans = append(chans, first)
	}

	if u := os.Getenv("SECOND_CHANNEL_USERNAME"); u != "" {
		chans = append(chans, membership.Channel{Username: u})
	}
	return chans
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
