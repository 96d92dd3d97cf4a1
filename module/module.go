package module

import (
	"reflect"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nmoradi/vidgate/bot"
)

// Functionality is grouped into modules. A package implements Module,
// calls RegisterModule from its init function, and gets initialized
// once the bot connection is up; Init is where it installs its
// command, callback and media handlers. main imports each module
// package blank, for registration only.
type Module interface {
	Init(*bot.Bot) error
}

var moduleInitializers = []Module{}

func RegisterModule(m Module) {
	moduleInitializers = append(moduleInitializers, m)
}

func InitModules(b *bot.Bot) {
	for _, m := range moduleInitializers {
		name := reflect.TypeOf(m).String()
		log := b.Log.With().Str("module", name).Logger()
		log.Info().Msg("initializing")
		if err := m.Init(b); err != nil {
			log.Error().Err(err).Msg("initialization failed")
		}
	}
}

// CommandHandler responds to one slash command. Handlers that return
// true from RequiresPrivileges are only reachable by the configured
// administrator; the dispatcher rejects everyone else before the
// handler runs.
type CommandHandler interface {
	HandleCommand(*bot.Bot, *tgbotapi.Update)
	Help() string
	RequiresPrivileges() bool
}

// CallbackHandler responds to inline-button presses whose payload
// starts with the registered prefix.
type CallbackHandler interface {
	HandleCallback(*bot.Bot, *tgbotapi.Update)
}

// MediaHandler sees every video (or video document) message. Handlers
// return true when they consumed the message.
type MediaHandler interface {
	HandleMedia(*bot.Bot, *tgbotapi.Update) bool
}

var (
	commandHandlers  = map[string]CommandHandler{}
	callbackHandlers = map[string]CallbackHandler{}
	mediaHandlers    = []MediaHandler{}
)

// Registration happens from module Init functions, or from tests to
// install fakes.

func RegisterCommandHandler(cmd string, h CommandHandler) {
	commandHandlers[cmd] = h
}

func RegisterCallbackHandler(prefix string, h CallbackHandler) {
	callbackHandlers[prefix] = h
}

func RegisterMediaHandler(h MediaHandler) {
	mediaHandlers = append(mediaHandlers, h)
}

// GetCommandHandler never returns nil; unknown commands get the
// invalid-command handler.
func GetCommandHandler(cmd string) CommandHandler {
	if h, ok := commandHandlers[cmd]; ok {
		return h
	}
	return InvalidCommandHandler{}
}

// Dispatch routes one update to the handler that claims it. It is the
// single entry point the worker loop calls.
func Dispatch(b *bot.Bot, update tgbotapi.Update) {
	if q := update.CallbackQuery; q != nil {
		// Ack first so the client stops the button spinner even if the
		// handler bails out.
		if _, err := b.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			b.Log.Debug().Err(err).Msg("callback ack failed")
		}
		// Stale buttons (older than the platform keeps the message
		// reference for) arrive without a message. Handlers need one
		// to edit, so such presses end at the ack.
		if q.Message == nil {
			return
		}
		if h := matchCallback(q.Data); h != nil {
			h.HandleCallback(b, &update)
		}
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}

	if msg.IsCommand() {
		h := GetCommandHandler(msg.Command())
		if h.RequiresPrivileges() && (msg.From == nil || !b.IsAdmin(msg.From.ID)) {
			reply := tgbotapi.NewMessage(msg.Chat.ID, "Only the administrator can do that.")
			if _, err := b.Send(reply); err != nil {
				b.Log.Warn().Err(err).Msg("denial reply failed")
			}
			return
		}
		h.HandleCommand(b, &update)
		return
	}

	if isVideoMessage(msg) {
		for _, h := range mediaHandlers {
			if h.HandleMedia(b, &update) {
				return
			}
		}
	}
}

// matchCallback picks the longest registered prefix that matches.
func matchCallback(data string) CallbackHandler {
	var best string
	var found CallbackHandler
	for prefix, h := range callbackHandlers {
		if strings.HasPrefix(data, prefix) && len(prefix) > len(best) {
			best, found = prefix, h
		}
	}
	return found
}

func isVideoMessage(msg *tgbotapi.Message) bool {
	if msg.Video != nil {
		return true
	}
	return msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/")
}

// VideoFileID extracts the opaque file reference from a video message,
// empty if the message has none.
func VideoFileID(msg *tgbotapi.Message) string {
	if msg.Video != nil {
		return msg.Video.FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	return ""
}

// InvalidCommandHandler answers unknown commands.
type InvalidCommandHandler struct{}

var _ CommandHandler = InvalidCommandHandler{}

func (InvalidCommandHandler) HandleCommand(b *bot.Bot, u *tgbotapi.Update) {
	msg := tgbotapi.NewMessage(u.Message.Chat.ID, u.Message.Command()+": unknown command")
	if _, err := b.Send(msg); err != nil {
		b.Log.Warn().Err(err).Msg("send failed")
	}
}

func (InvalidCommandHandler) Help() string { return "unknown command" }
func (InvalidCommandHandler) RequiresPrivileges() bool { return false }
