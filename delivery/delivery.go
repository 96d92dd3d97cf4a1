// Package delivery implements the user-facing flow: a /start deep link
// carrying a content code, the channel-membership gate in front of
// free content, the payment prompt in front of paid packages, and the
// ephemeral sends themselves.
package delivery

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nmoradi/vidgate/bot"
	"github.com/nmoradi/vidgate/membership"
	"github.com/nmoradi/vidgate/module"
	"github.com/nmoradi/vidgate/store"
)

const recheckPrefix = "check_"

type Delivery struct {
	sender *Sender
}

func init() {
	module.RegisterModule(&Delivery{})
}

var _ module.Module = &Delivery{}

func (d *Delivery) Init(b *bot.Bot) error {
	d.sender = NewSender(b.BotAPI, b.Config.Visibility.Duration, b.Config.SendGap.Duration,
		b.Log.With().Str("component", "sender").Logger())
	module.RegisterCommandHandler("start", &startHandler{d})
	module.RegisterCallbackHandler(recheckPrefix, &recheckHandler{d})
	return nil
}

// startHandler answers /start and /start <code>.
type startHandler struct {
	d *Delivery
}

var _ module.CommandHandler = &startHandler{}

func (h *startHandler) Help() string {
	return "open a content link: /start <code>"
}

func (h *startHandler) RequiresPrivileges() bool { return false }

func (h *startHandler) HandleCommand(b *bot.Bot, u *tgbotapi.Update) {
	msg := u.Message
	user := msg.From
	if user == nil {
		return
	}

	if err := b.Users.Add(user.ID); err != nil {
		b.Log.Warn().Err(err).Int64("user", user.ID).Msg("user registration failed")
	}

	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		reply(b, msg.Chat.ID, "Hi! Open a video link to receive content. You will need to join our channels first.")
		return
	}

	content, ok := b.Content.Get(code)
	if !ok {
		reply(b, msg.Chat.ID, "This link is not valid.")
		return
	}

	// Paid content never goes through the membership gate: the user
	// gets payment instructions, a pending-payment note is recorded,
	// and everything after that is handled manually by the admin.
	if content.Kind == store.KindPaid {
		b.State.SetPayment(user.ID, code)
		reply(b, msg.Chat.ID, fmt.Sprintf(
			"This package is paid.\nTransfer %d %s to card %s and send your receipt here.\nThe package is released as soon as the admin confirms the payment.",
			content.Price, content.Currency, content.Card))
		return
	}

	results := b.Members.CheckAll(context.Background(), user.ID)
	if !membership.AllMember(results) {
		b.State.SetGate(user.ID, code)
		text, markup := gatePrompt(results, code)
		m := tgbotapi.NewMessage(msg.Chat.ID, text)
		m.ReplyMarkup = markup
		if _, err := b.Send(m); err != nil {
			b.Log.Warn().Err(err).Msg("gate prompt failed")
		}
		return
	}

	h.d.deliver(b, msg.Chat.ID, msg.MessageID, content)
}

// recheckHandler answers the "check again" button under a gate prompt.
type recheckHandler struct {
	d *Delivery
}

var _ module.CallbackHandler = &recheckHandler{}

func (h *recheckHandler) HandleCallback(b *bot.Bot, u *tgbotapi.Update) {
	q := u.CallbackQuery
	userID := q.From.ID
	chatID := q.Message.Chat.ID

	code, ok := b.State.Gate(userID)
	if !ok {
		edit(b, chatID, q.Message.MessageID, "Link not found or expired.")
		return
	}

	content, ok := b.Content.Get(code)
	if !ok {
		edit(b, chatID, q.Message.MessageID, "This link is no longer valid.")
		return
	}

	results := b.Members.CheckAll(context.Background(), userID)
	if !membership.AllMember(results) {
		text, markup := gatePrompt(results, code)
		e := tgbotapi.NewEditMessageTextAndMarkup(chatID, q.Message.MessageID, "Not all channels joined yet.\n"+text, markup)
		if _, err := b.Send(e); err != nil {
			b.Log.Warn().Err(err).Msg("gate prompt update failed")
		}
		return
	}

	b.State.ClearGate(userID)
	// The prompt served its purpose; losing the delete is fine.
	if _, err := b.Request(tgbotapi.NewDeleteMessage(chatID, q.Message.MessageID)); err != nil {
		b.Log.Debug().Err(err).Msg("gate prompt delete failed")
	}

	h.d.deliver(b, chatID, 0, content)
}

// deliver sends the content and reports send failures to the user.
func (d *Delivery) deliver(b *bot.Bot, chatID int64, replyTo int, content store.Content) {
	switch content.Kind {
	case store.KindSingle:
		if err := d.sender.SendSingle(chatID, replyTo, content.Files[0]); err != nil {
			b.Log.Error().Err(err).Msg("video delivery failed")
			reply(b, chatID, "Sending the video failed. Please try again.")
		}
	case store.KindPackage:
		sent := d.sender.SendPackage(chatID, content.Files)
		switch {
		case sent == 0:
			reply(b, chatID, "Sending the package failed. Please try again.")
		case sent < len(content.Files):
			reply(b, chatID, fmt.Sprintf("%d of %d videos were sent.", sent, len(content.Files)))
		}
	default:
		b.Log.Error().Str("kind", string(content.Kind)).Msg("undeliverable content kind")
	}
}

// gatePrompt renders one join button per channel the user still has to
// join, plus the recheck button carrying the code.
func gatePrompt(results []membership.Result, code string) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range results {
		if r.Member {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Join "+r.Channel.Label(), r.Channel.JoinURL()),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("I joined, check again", recheckPrefix+code),
	))
	return "Please join the channels below to unlock the content:", tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reply(b *bot.Bot, chatID int64, text string) {
	if _, err := b.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.Log.Warn().Err(err).Msg("send failed")
	}
}

func edit(b *bot.Bot, chatID int64, messageID int, text string) {
	if _, err := b.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.Log.Warn().Err(err).Msg("edit failed")
	}
}
