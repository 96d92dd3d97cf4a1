package delivery

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	sends     []tgbotapi.VideoConfig
	failSends int
	deletes   []tgbotapi.DeleteMessageConfig
	nextID    int
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	vc, ok := c.(tgbotapi.VideoConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.failSends > 0 {
		f.failSends--
		return tgbotapi.Message{}, errors.New("scripted send failure")
	}
	f.sends = append(f.sends, vc)
	f.nextID++
	return tgbotapi.Message{
		MessageID: f.nextID,
		Chat:      &tgbotapi.Chat{ID: vc.ChatID},
	}, nil
}

func (f *fakeMessenger) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		f.deletes = append(f.deletes, del)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type testSender struct {
	*Sender
	api       *fakeMessenger
	scheduled []func()
	delays    []time.Duration
	sleeps    []time.Duration
}

func newTestSender(t *testing.T) *testSender {
	t.Helper()
	api := &fakeMessenger{}
	ts := &testSender{api: api}
	ts.Sender = NewSender(api, 20*time.Second, 200*time.Millisecond, zerolog.Nop())
	ts.Sender.after = func(d time.Duration, f func()) {
		ts.delays = append(ts.delays, d)
		ts.scheduled = append(ts.scheduled, f)
	}
	ts.Sender.sleep = func(d time.Duration) { ts.sleeps = append(ts.sleeps, d) }
	return ts
}

func TestSendSingleSchedulesDelete(t *testing.T) {
	s := newTestSender(t)

	require.NoError(t, s.SendSingle(42, 7, "file-42"))

	require.Len(t, s.api.sends, 1)
	sent := s.api.sends[0]
	assert.Equal(t, tgbotapi.FileID("file-42"), sent.File)
	assert.Equal(t, 7, sent.ReplyToMessageID)
	assert.Contains(t, sent.Caption, "20 seconds")

	require.Len(t, s.scheduled, 1)
	assert.Equal(t, 20*time.Second, s.delays[0])

	s.scheduled[0]()
	require.Len(t, s.api.deletes, 1)
	assert.Equal(t, int64(42), s.api.deletes[0].ChatID)
	assert.Equal(t, 1, s.api.deletes[0].MessageID)
}

func TestSendSingleFallsBackToDirectSend(t *testing.T) {
	s := newTestSender(t)
	s.api.failSends = 1

	require.NoError(t, s.SendSingle(42, 7, "file-42"))

	require.Len(t, s.api.sends, 1)
	assert.Equal(t, 0, s.api.sends[0].ReplyToMessageID, "fallback must not be a reply")
	assert.Len(t, s.scheduled, 1)
}

func TestSendSingleGivesUpAfterFallback(t *testing.T) {
	s := newTestSender(t)
	s.api.failSends = 2

	assert.Error(t, s.SendSingle(42, 7, "file-42"))
	assert.Empty(t, s.api.sends)
	assert.Empty(t, s.scheduled)
}

func TestSendPackageKeepsOrderAndPacing(t *testing.T) {
	s := newTestSender(t)

	sent := s.SendPackage(42, []string{"f1", "f2", "f3"})
	assert.Equal(t, 3, sent)

	require.Len(t, s.api.sends, 3)
	for i, want := range []string{"f1", "f2", "f3"} {
		assert.Equal(t, tgbotapi.FileID(want), s.api.sends[i].File)
	}

	// A gap between consecutive sends, none after the last.
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, s.sleeps)

	// Every item schedules its own delete.
	require.Len(t, s.scheduled, 3)
	for _, f := range s.scheduled {
		f()
	}
	assert.Len(t, s.api.deletes, 3)
}

func TestSendPackagePartialFailure(t *testing.T) {
	s := newTestSender(t)
	s.api.failSends = 1

	sent := s.SendPackage(42, []string{"f1", "f2", "f3"})
	assert.Equal(t, 2, sent)
	assert.Len(t, s.scheduled, 2)
}
