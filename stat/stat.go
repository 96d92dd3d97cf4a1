// Package stat adds an in-chat process probe. Handy on free hosting
// where the process gets recycled without warning: /stat shows whether
// the bot restarted and how much heap it is holding.
package stat

import (
	"fmt"
	"runtime"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nmoradi/vidgate/bot"
	"github.com/nmoradi/vidgate/module"
)

type Stat struct {
	InitTime time.Time
}

func init() {
	module.RegisterModule(&Stat{})
}

var _ module.Module = &Stat{}
var _ module.CommandHandler = &Stat{}

func (s *Stat) Init(*bot.Bot) error {
	s.InitTime = time.Now()
	module.RegisterCommandHandler("stat", s)
	return nil
}

func (s *Stat) Help() string { return "uptime and memory usage" }
func (s *Stat) RequiresPrivileges() bool { return true }

func (s *Stat) HandleCommand(b *bot.Bot, u *tgbotapi.Update) {
	uptime := time.Since(s.InitTime)
	msgText := fmt.Sprintf("Up: %s\n", uptime.Round(time.Second))

	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)
	mem := memStats.HeapAlloc

	switch {
	case mem > 10*1024*1024*1024:
		msgText += fmt.Sprintf("Memory: %.2fGB\n", float64(mem)/(1024*1024*1024))
	case mem > 10*1024*1024:
		msgText += fmt.Sprintf("Memory: %.2fMB\n", float64(mem)/(1024*1024))
	case mem > 10*1024:
		msgText += fmt.Sprintf("Memory: %.2fkB\n", float64(mem)/1024)
	default:
		msgText += fmt.Sprintf("Memory: %dB\n", mem)
	}

	msg := tgbotapi.NewMessage(u.Message.Chat.ID, msgText)
	if _, err := b.Send(msg); err != nil {
		b.Log.Warn().Err(err).Msg("send failed")
	}
}
