package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/nmoradi/vidgate/bot"
	"github.com/nmoradi/vidgate/keepalive"
	"github.com/nmoradi/vidgate/membership"
	"github.com/nmoradi/vidgate/module"
	"github.com/nmoradi/vidgate/state"
	"github.com/nmoradi/vidgate/store"

	// Handlers, for initialization only.
	_ "github.com/nmoradi/vidgate/admin"
	_ "github.com/nmoradi/vidgate/delivery"
	_ "github.com/nmoradi/vidgate/stat"
)

const (
	contentFile = "videos.json"
	userFile    = "users.json"

	workQueueLen  = 100
	clientTimeout = 5 * time.Second
	touchInterval = 45 * time.Second
	sweepInterval = 5 * time.Minute
)

func worker(b *bot.Bot, updates <-chan tgbotapi.Update, wg *sync.WaitGroup) {
	defer wg.Done()
	for update := range updates {
		b.Monitor.Record()
		if msg := update.Message; msg != nil {
			if date := time.Unix(int64(msg.Date), 0); bot.Expired(date, b.Config.UpdateTTL.Duration) {
				continue
			}
		}
		module.Dispatch(b, update)
	}
}

func main() {
	bot.ConfigureLogging()
	log := bot.Component("main")

	// Best effort; hosting usually injects the env directly.
	_ = godotenv.Load()

	cfg, err := bot.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}
	if cfg.AdminID == 0 {
		log.Warn().Msg("no valid ADMIN_ID, admin features disabled")
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, &http.Client{Timeout: clientTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("authorization failed")
	}

	b := &bot.Bot{
		BotAPI:  api,
		Config:  cfg,
		Content: store.NewContentStore(filepath.Join(cfg.DataDir, contentFile), bot.Component("content")),
		Users:   store.NewUserRegistry(filepath.Join(cfg.DataDir, userFile), bot.Component("users")),
		State:   state.NewContainer(cfg.PendingTTL.Duration),
		Monitor: keepalive.NewMonitor(),
		Log:     bot.Component("bot"),
	}
	b.Members = membership.NewChecker(api, cfg.Channels, bot.Component("membership"))

	log.Info().Str("account", b.Self.UserName).Msg("authorized")

	module.InitModules(b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Liveness surface plus the two background loops that keep the
	// host from idling us and the transient maps from growing.
	srv := &http.Server{Addr: cfg.Listen, Handler: keepalive.Router(b.Monitor)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("liveness server failed")
		}
	}()
	go b.Monitor.Touch(ctx, touchInterval, bot.Component("keepalive"))
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := b.State.Sweep(); removed > 0 {
					log.Info().Int("removed", removed).Msg("swept expired transient state")
				}
			}
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollTimeout

	b.Buffer = workQueueLen
	updates := b.GetUpdatesChan(u)

	wg := sync.WaitGroup{}
	wg.Add(cfg.NumWorkers)
	for i := 0; i < cfg.NumWorkers; i++ {
		go worker(b, updates, &wg)
	}

	sCh := make(chan os.Signal, 1)
	signal.Notify(sCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	s := <-sCh
	log.Info().Str("signal", s.String()).Msg("shutting down")

	// Closing the update channel lets the workers drain what is queued
	// before we stop.
	b.StopReceivingUpdates()
	wg.Wait()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("liveness server shutdown failed")
	}
}
