// Package admin implements the administrator's side of the bot: the
// upload panel, the three upload flows feeding the content store, and
// the user-count command. Every entry point is restricted to the
// configured administrator id.
package admin

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nmoradi/vidgate/bot"
	"github.com/nmoradi/vidgate/module"
	"github.com/nmoradi/vidgate/state"
	"github.com/nmoradi/vidgate/store"
)

const (
	cbUploadSingle = "upload_video"
	cbUploadPack   = "upload_package"
	cbUploadPaid   = "upload_paid_package"
	cbFinishPack   = "finish_package"
	cbFinishPaid   = "finish_paid_package"
	cbCancel       = "cancel_upload"

	deniedText = "Only the administrator can do that."
)

type Admin struct{}

func init() {
	module.RegisterModule(&Admin{})
}

var _ module.Module = &Admin{}

func (a *Admin) Init(b *bot.Bot) error {
	module.RegisterCommandHandler("admin", panelHandler{})
	module.RegisterCommandHandler("member", memberCountHandler{})

	buttons := buttonHandler{}
	for _, cb := range []string{cbUploadSingle, cbUploadPack, cbUploadPaid, cbFinishPack, cbFinishPaid, cbCancel} {
		module.RegisterCallbackHandler(cb, buttons)
	}
	module.RegisterMediaHandler(uploadHandler{})
	return nil
}

// panelHandler shows the admin panel on /admin.
type panelHandler struct{}

var _ module.CommandHandler = panelHandler{}

func (panelHandler) Help() string { return "open the admin panel" }
func (panelHandler) RequiresPrivileges() bool { return true }

func (panelHandler) HandleCommand(b *bot.Bot, u *tgbotapi.Update) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Upload video", cbUploadSingle),
			tgbotapi.NewInlineKeyboardButtonData("Upload package", cbUploadPack),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Paid package", cbUploadPaid),
		),
	)
	msg := tgbotapi.NewMessage(u.Message.Chat.ID, "Admin panel:")
	msg.ReplyMarkup = markup
	if _, err := b.Send(msg); err != nil {
		b.Log.Warn().Err(err).Msg("panel send failed")
	}
}

// memberCountHandler reports the registry size on /member.
type memberCountHandler struct{}

var _ module.CommandHandler = memberCountHandler{}

func (memberCountHandler) Help() string { return "show how many users the bot has seen" }
func (memberCountHandler) RequiresPrivileges() bool { return true }

func (memberCountHandler) HandleCommand(b *bot.Bot, u *tgbotapi.Update) {
	text := fmt.Sprintf("The bot has %d registered users.", b.Users.Count())
	if _, err := b.Send(tgbotapi.NewMessage(u.Message.Chat.ID, text)); err != nil {
		b.Log.Warn().Err(err).Msg("send failed")
	}
}

// buttonHandler drives the upload state machine from the panel
// buttons. The command dispatcher only guards commands, so the
// authorization check is repeated here.
type buttonHandler struct{}

var _ module.CallbackHandler = buttonHandler{}

func (buttonHandler) HandleCallback(b *bot.Bot, u *tgbotapi.Update) {
	q := u.CallbackQuery
	adminID := q.From.ID
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	if !b.IsAdmin(adminID) {
		edit(b, chatID, msgID, deniedText)
		return
	}

	switch q.Data {
	case cbUploadSingle:
		b.State.Begin(adminID, state.UploadSingle)
		edit(b, chatID, msgID, "Send the video now.")

	case cbUploadPack:
		b.State.Begin(adminID, state.UploadPackage)
		editWithMarkup(b, chatID, msgID,
			fmt.Sprintf("Send the videos one by one (at most %d), then press 'Finish'.", store.MaxPackageSize),
			finishMarkup(cbFinishPack))

	case cbUploadPaid:
		b.State.Begin(adminID, state.UploadPaid)
		editWithMarkup(b, chatID, msgID,
			fmt.Sprintf("Send the paid package videos one by one (at most %d), then press 'Finish'.", store.MaxPackageSize),
			finishMarkup(cbFinishPaid))

	case cbFinishPack:
		finishPackage(b, adminID, chatID, msgID, false)

	case cbFinishPaid:
		finishPackage(b, adminID, chatID, msgID, true)

	case cbCancel:
		b.State.Clear(adminID)
		edit(b, chatID, msgID, "Upload cancelled.")
	}
}

// finishPackage promotes the session buffer to a content record. An
// empty buffer is reported as an error and leaves the session alone,
// so the admin can keep sending videos.
func finishPackage(b *bot.Bot, adminID, chatID int64, msgID int, paid bool) {
	files := b.State.Files(adminID)
	if len(files) == 0 {
		edit(b, chatID, msgID, "There are no videos to register yet.")
		return
	}

	var content store.Content
	var err error
	if paid {
		content, err = store.NewPaidPackage(files, b.Config.Price, b.Config.Card, b.Config.Currency)
	} else {
		content, err = store.NewPackage(files)
	}
	if err != nil {
		edit(b, chatID, msgID, "The package could not be created: "+err.Error())
		return
	}

	code, err := b.Content.NewCode(b.Config.CodeLength)
	if err != nil {
		b.Log.Error().Err(err).Msg("code generation failed")
		edit(b, chatID, msgID, "Saving the package failed. Try again.")
		return
	}
	if err := b.Content.Put(code, content); err != nil {
		edit(b, chatID, msgID, "Saving the package failed. Try again.")
		return
	}
	b.State.Clear(adminID)

	text := fmt.Sprintf("Package saved (%d videos).\nLink: %s", len(files), b.DeepLink(code))
	if paid {
		text += fmt.Sprintf("\nPrice: %d %s\nCard: %s", content.Price, content.Currency, content.Card)
	}
	edit(b, chatID, msgID, text)
}

// uploadHandler consumes the admin's video messages according to the
// current session mode. Videos from anyone else are left alone.
type uploadHandler struct{}

var _ module.MediaHandler = uploadHandler{}

func (uploadHandler) HandleMedia(b *bot.Bot, u *tgbotapi.Update) bool {
	msg := u.Message
	if msg.From == nil || !b.IsAdmin(msg.From.ID) {
		return false
	}

	fileID := module.VideoFileID(msg)
	if fileID == "" {
		return false
	}

	switch b.State.Mode(msg.From.ID) {
	case state.UploadSingle:
		saveSingle(b, msg, fileID)
	case state.UploadPackage, state.UploadPaid:
		appendToPackage(b, msg, fileID)
	default:
		// Admin video outside a session: nothing to do with it.
	}
	return true
}

// saveSingle stores a one-video record immediately and ends the
// session.
func saveSingle(b *bot.Bot, msg *tgbotapi.Message, fileID string) {
	code, err := b.Content.NewCode(b.Config.CodeLength)
	if err != nil {
		b.Log.Error().Err(err).Msg("code generation failed")
		reply(b, msg, "Saving the video failed. Try again.")
		return
	}
	if err := b.Content.Put(code, store.NewSingle(fileID)); err != nil {
		reply(b, msg, "Saving the video failed. Try again.")
		return
	}
	b.State.Clear(msg.From.ID)
	reply(b, msg, "Saved!\nLink: "+b.DeepLink(code))
}

func appendToPackage(b *bot.Bot, msg *tgbotapi.Message, fileID string) {
	n, err := b.State.Append(msg.From.ID, fileID)
	switch err {
	case nil:
		reply(b, msg, fmt.Sprintf("Video received (%d/%d).", n, store.MaxPackageSize))
	case state.ErrBufferFull:
		reply(b, msg, fmt.Sprintf("At most %d videos per package.", store.MaxPackageSize))
	default:
		b.Log.Warn().Err(err).Msg("package append failed")
	}
}

func reply(b *bot.Bot, msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.Send(m); err != nil {
		b.Log.Warn().Err(err).Msg("send failed")
	}
}

func edit(b *bot.Bot, chatID int64, msgID int, text string) {
	if _, err := b.Send(tgbotapi.NewEditMessageText(chatID, msgID, text)); err != nil {
		b.Log.Warn().Err(err).Msg("edit failed")
	}
}

func editWithMarkup(b *bot.Bot, chatID int64, msgID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup)); err != nil {
		b.Log.Warn().Err(err).Msg("edit failed")
	}
}

func finishMarkup(finishData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Finish", finishData),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
		),
	)
}
