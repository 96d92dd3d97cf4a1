package membership

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeAPI maps the chat reference used in the request to a status, or
// fails outright.
type fakeAPI struct {
	status map[string]string
	err    error
}

func (f *fakeAPI) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if f.err != nil {
		return tgbotapi.ChatMember{}, f.err
	}
	key := config.SuperGroupUsername
	if config.ChatID != 0 {
		key = "id"
	}
	return tgbotapi.ChatMember{Status: f.status[key]}, nil
}

func TestIsMemberStatuses(t *testing.T) {
	ch := Channel{Username: "mychannel"}
	for status, want := range map[string]bool{
		"member":        true,
		"administrator": true,
		"creator":       true,
		"left":          false,
		"kicked":        false,
		"restricted":    false,
	} {
		api := &fakeAPI{status: map[string]string{"@mychannel": status}}
		c := NewChecker(api, []Channel{ch}, zerolog.Nop())
		assert.Equal(t, want, c.IsMember(ch, 1), "status %q", status)
	}
}

func TestIsMemberErrorMeansNotMember(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	ch := Channel{Username: "mychannel"}
	c := NewChecker(api, []Channel{ch}, zerolog.Nop())
	assert.False(t, c.IsMember(ch, 1))
}

func TestCheckAllKeepsConfigOrder(t *testing.T) {
	chans := []Channel{
		{ChatID: -100200, Username: "first"},
		{Username: "second"},
	}
	api := &fakeAPI{status: map[string]string{
		"id":      "left",
		"@second": "member",
	}}
	c := NewChecker(api, chans, zerolog.Nop())

	results := c.CheckAll(context.Background(), 1)
	assert.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Channel.Username)
	assert.False(t, results[0].Member)
	assert.Equal(t, "second", results[1].Channel.Username)
	assert.True(t, results[1].Member)
	assert.False(t, AllMember(results))
}

func TestAllMember(t *testing.T) {
	assert.True(t, AllMember(nil))
	assert.True(t, AllMember([]Result{{Member: true}, {Member: true}}))
	assert.False(t, AllMember([]Result{{Member: true}, {Member: false}}))
}

func TestChannelLinks(t *testing.T) {
	ch := Channel{Username: "mychannel"}
	assert.Equal(t, "https://t.me/mychannel", ch.JoinURL())
	assert.Equal(t, "@mychannel", ch.Label())
}
