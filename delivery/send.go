package delivery

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// messenger is the slice of the Telegram API the sender uses. It is
// satisfied by *tgbotapi.BotAPI and by the fake in the tests.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender delivers content and schedules its disappearance. Every sent
// video gets a delayed delete; the tasks are fire-and-forget, so a
// restart simply leaves messages undeleted.
type Sender struct {
	api        messenger
	log        zerolog.Logger
	visibility time.Duration
	gap        time.Duration

	// Replaced in tests to avoid real timers.
	after func(time.Duration, func())
	sleep func(time.Duration)
}

func NewSender(api messenger, visibility, gap time.Duration, log zerolog.Logger) *Sender {
	return &Sender{
		api:        api,
		log:        log,
		visibility: visibility,
		gap:        gap,
		after:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		sleep:      time.Sleep,
	}
}

func (s *Sender) caption() string {
	return fmt.Sprintf("This video is visible for %d seconds, then it is deleted.", int(s.visibility.Seconds()))
}

// SendSingle sends one video as a reply. If the reply send fails (the
// original message may be gone, or the platform rejects the reply
// form) it falls back to a direct send once before giving up.
func (s *Sender) SendSingle(chatID int64, replyTo int, fileID string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	video.Caption = s.caption()
	video.ReplyToMessageID = replyTo

	msg, err := s.api.Send(video)
	if err != nil {
		s.log.Warn().Err(err).Msg("reply send failed, retrying direct")
		video.ReplyToMessageID = 0
		msg, err = s.api.Send(video)
		if err != nil {
			return fmt.Errorf("send video: %w", err)
		}
	}
	s.scheduleDelete(msg.Chat.ID, msg.MessageID)
	return nil
}

// SendPackage sends the files in stored order with a small gap between
// sends to stay under the platform rate limit. It returns how many
// went out; the caller turns that into a total- or partial-failure
// notice.
func (s *Sender) SendPackage(chatID int64, files []string) int {
	sent := 0
	for i, fileID := range files {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
		video.Caption = s.caption()
		msg, err := s.api.Send(video)
		if err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("package item send failed")
			continue
		}
		s.scheduleDelete(msg.Chat.ID, msg.MessageID)
		sent++
		if i < len(files)-1 {
			s.sleep(s.gap)
		}
	}
	return sent
}

// scheduleDelete queues a best-effort delete after the visibility
// window. Failures (message already gone, missing permission) are
// swallowed.
func (s *Sender) scheduleDelete(chatID int64, messageID int) {
	s.after(s.visibility, func() {
		if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
			s.log.Debug().Err(err).Int("message", messageID).Msg("delayed delete failed")
		}
	})
}
