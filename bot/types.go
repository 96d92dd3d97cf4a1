package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/nmoradi/vidgate/keepalive"
	"github.com/nmoradi/vidgate/membership"
	"github.com/nmoradi/vidgate/state"
	"github.com/nmoradi/vidgate/store"
)

// Bot bundles the Telegram API client with the collaborators every
// handler needs. Handlers receive it by pointer and never hold their
// own copies of the stores or state.
type Bot struct {
	*tgbotapi.BotAPI

	Config  Config
	Content *store.ContentStore
	Users   *store.UserRegistry
	State   *state.Container
	Members *membership.Checker
	Monitor *keepalive.Monitor
	Log     zerolog.Logger
}

// IsAdmin reports whether id is the configured administrator. A zero
// AdminID means admin features are disabled, so nobody qualifies.
func (b *Bot) IsAdmin(id int64) bool {
	return b.Config.AdminID != 0 && id == b.Config.AdminID
}

// DeepLink builds the t.me start link for a content code.
func (b *Bot) DeepLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.Self.UserName, code)
}
