// Package tgtest provides a scripted Telegram backend for tests. It
// plugs a fake HTTP client into the real tgbotapi codec, so handler
// tests exercise the same request building and response parsing the
// bot uses in production.
package tgtest

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/nmoradi/vidgate/bot"
	"github.com/nmoradi/vidgate/keepalive"
	"github.com/nmoradi/vidgate/membership"
	"github.com/nmoradi/vidgate/state"
	"github.com/nmoradi/vidgate/store"
)

// Call is one recorded Bot API request.
type Call struct {
	Method string
	Params url.Values
}

// Client satisfies tgbotapi.HTTPClient and answers Bot API calls from
// canned data.
type Client struct {
	mu    sync.Mutex
	calls []Call

	// MemberStatus maps a chat reference (the chat_id request value,
	// e.g. "-100200" or "@mychannel") to a chat member status.
	// Missing entries answer "left".
	MemberStatus map[string]string

	// FailNext holds per-method counters; while positive, calls to
	// that method fail and the counter decrements.
	FailNext map[string]int

	nextMessageID int
}

func NewClient() *Client {
	return &Client{
		MemberStatus: map[string]string{},
		FailNext:     map[string]int{},
	}
}

// Calls returns the recorded requests in order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallsTo filters the recorded requests by method.
func (c *Client) CallsTo(method string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	params, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	method := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]

	c.mu.Lock()
	c.calls = append(c.calls, Call{Method: method, Params: params})
	if left := c.FailNext[method]; left > 0 {
		c.FailNext[method] = left - 1
		c.mu.Unlock()
		return jsonResponse(`{"ok":false,"error_code":400,"description":"scripted failure"}`), nil
	}
	c.nextMessageID++
	msgID := c.nextMessageID
	c.mu.Unlock()

	switch method {
	case "sendMessage", "sendVideo", "editMessageText":
		chatID := params.Get("chat_id")
		return jsonResponse(fmt.Sprintf(
			`{"ok":true,"result":{"message_id":%d,"chat":{"id":%s},"date":%d}}`,
			msgID, chatID, time.Now().Unix())), nil
	case "getChatMember":
		status := c.MemberStatus[params.Get("chat_id")]
		if status == "" {
			status = "left"
		}
		return jsonResponse(fmt.Sprintf(
			`{"ok":true,"result":{"status":%q,"user":{"id":%s}}}`,
			status, params.Get("user_id"))), nil
	case "deleteMessage", "answerCallbackQuery":
		return jsonResponse(`{"ok":true,"result":true}`), nil
	default:
		return jsonResponse(`{"ok":true,"result":{}}`), nil
	}
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// NewBot wires a fully functional bot.Bot over the fake client, with
// stores in a temp dir and quiet logging.
func NewBot(t *testing.T, client *Client, cfg bot.Config) *bot.Bot {
	t.Helper()

	api := &tgbotapi.BotAPI{
		Token:  "test-token",
		Client: client,
		Buffer: 100,
		Self:   tgbotapi.User{UserName: "vidgate_test_bot"},
	}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	if cfg.CodeLength == 0 {
		cfg.CodeLength = 6
	}
	if cfg.Visibility.Duration == 0 {
		cfg.Visibility.Duration = 20 * time.Second
	}
	if cfg.SendGap.Duration == 0 {
		cfg.SendGap.Duration = time.Millisecond
	}
	if cfg.PendingTTL.Duration == 0 {
		cfg.PendingTTL.Duration = 30 * time.Minute
	}

	dir := t.TempDir()
	nop := zerolog.Nop()
	b := &bot.Bot{
		BotAPI:  api,
		Config:  cfg,
		Content: store.NewContentStore(dir+"/videos.json", nop),
		Users:   store.NewUserRegistry(dir+"/users.json", nop),
		State:   state.NewContainer(cfg.PendingTTL.Duration),
		Monitor: keepalive.NewMonitor(),
		Log:     nop,
	}
	b.Members = membership.NewChecker(api, cfg.Channels, nop)
	return b
}

// Command builds an update for a slash command message, entity
// included so tgbotapi recognizes it.
func Command(chatID, userID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Date:      int(time.Now().Unix()),
			Text:      text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

// Callback builds an update for an inline-button press on message
// msgID.
func Callback(chatID, userID int64, msgID int, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cbq",
			From: &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{
				MessageID: msgID,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
			Data: data,
		},
	}
}

// Video builds an update for a video message.
func Video(chatID, userID int64, fileID string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Date:      int(time.Now().Unix()),
			Video:     &tgbotapi.Video{FileID: fileID},
		},
	}
}
