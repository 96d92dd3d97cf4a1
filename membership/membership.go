// Package membership answers one question: is this user a member of
// the configured channels?
package membership

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Channel identifies one required channel. ChatID is preferred when
// set; otherwise the public username is used for both the membership
// query and the join link.
type Channel struct {
	ChatID   int64
	Username string
}

// JoinURL is the t.me link presented on the join button.
func (ch Channel) JoinURL() string {
	return "https://t.me/" + ch.Username
}

// Label is what the join button shows for this channel.
func (ch Channel) Label() string {
	return "@" + ch.Username
}

// chatMemberAPI is the one Telegram call the checker needs, satisfied
// by *tgbotapi.BotAPI and by fakes in tests.
type chatMemberAPI interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Checker queries membership status against a fixed channel list.
type Checker struct {
	api      chatMemberAPI
	channels []Channel
	log      zerolog.Logger
}

func NewChecker(api chatMemberAPI, channels []Channel, log zerolog.Logger) *Checker {
	return &Checker{api: api, channels: channels, log: log}
}

// Channels returns the configured requirement list in order.
func (c *Checker) Channels() []Channel {
	return c.channels
}

// IsMember reports whether the user belongs to the channel. Any error
// from the platform (network, unknown user, missing bot permission)
// counts as "not a member"; callers cannot tell the cases apart, which
// keeps the gate conservative.
func (c *Checker) IsMember(ch Channel, userID int64) bool {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID:             ch.ChatID,
			SuperGroupUsername: usernameRef(ch),
			UserID:             userID,
		},
	}
	member, err := c.api.GetChatMember(cfg)
	if err != nil {
		c.log.Warn().Err(err).Int64("user", userID).Str("channel", ch.Label()).Msg("membership check failed")
		return false
	}
	switch member.Status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

func usernameRef(ch Channel) string {
	if ch.ChatID != 0 || ch.Username == "" {
		return ""
	}
	return "@" + ch.Username
}

// Result pairs a channel with the outcome of its check.
type Result struct {
	Channel Channel
	Member  bool
}

// CheckAll runs the membership checks for every configured channel
// concurrently and returns the results in configuration order.
func (c *Checker) CheckAll(ctx context.Context, userID int64) []Result {
	results := make([]Result, len(c.channels))
	g, _ := errgroup.WithContext(ctx)
	for i, ch := range c.channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = Result{Channel: ch, Member: c.IsMember(ch, userID)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AllMember reports whether every result passed.
func AllMember(results []Result) bool {
	for _, r := range results {
		if !r.Member {
			return false
		}
	}
	return true
}
