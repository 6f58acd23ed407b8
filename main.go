package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mataroa-tools/matabot/internal/allowlist"
	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/config"
	"github.com/mataroa-tools/matabot/internal/engine"
	"github.com/mataroa-tools/matabot/internal/logger"
	"github.com/mataroa-tools/matabot/internal/mataroa"
	"github.com/mataroa-tools/matabot/internal/schedule"
	"github.com/mataroa-tools/matabot/internal/store"
	"github.com/mataroa-tools/matabot/internal/telegram"
)

func main() {
	// A .env file is optional, deployment may set the environment
	// directly.
	_ = godotenv.Load()

	if err := config.LoadConfig("config.yaml"); err != nil {
		boot := logger.New("info")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level)
	config.SetLogger(l.With().Str("component", "config").Logger())
	store.SetLogger(l.With().Str("component", "store").Logger())
	mataroa.SetLogger(l.With().Str("component", "mataroa").Logger())
	telegram.SetLogger(l.With().Str("component", "telegram").Logger())
	engine.SetLogger(l.With().Str("component", "engine").Logger())

	if cfg.Telegram.Token == "" {
		l.Fatal().Msg("No bot token configured; set BOT_TOKEN or telegram.token")
	}

	var st store.Store
	switch cfg.Store.Backend {
	case "sqlite":
		sq, err := store.NewSQLiteStore(cfg.Store.Dir)
		if err != nil {
			l.Fatal().Err(err).Msg("Failed to open sqlite store")
		}
		defer sq.Close()
		st = sq
	default:
		st = store.NewFileStore(cfg.Store.Dir)
	}
	if err := st.Load(); err != nil {
		l.Fatal().Err(err).Msg("Failed to load session state")
	}

	allow := allowlist.New(allowlist.FromEnv(), st.AllowlistIDs())
	if allow.Empty() {
		l.Warn().Msg("Allow-list is empty, every user is admitted")
	}

	api := mataroa.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSecs)*time.Second)
	bot := telegram.New(cfg.Telegram.Token, cfg.Telegram.PollTimeoutSecs)

	eng := engine.New(engine.Config{
		PageSize:      cfg.Bot.PageSize,
		PostsCacheTTL: time.Duration(cfg.Bot.PostsCacheTTLSecs) * time.Second,
		PreviewMax:    cfg.Bot.PreviewMaxChars,
		Cooldown:      time.Duration(cfg.Bot.CooldownMillis) * time.Millisecond,
		DeleteGrace:   time.Duration(cfg.Bot.DeleteGraceSecs) * time.Second,
	}, st, api, bot, schedule.NewTimerScheduler(), allow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info().Str("api", cfg.API.BaseURL).Str("store", cfg.Store.Backend).Msg("Bot starting")
	if err := bot.Poll(ctx, func(ev chat.Event) {
		eng.HandleEvent(ctx, ev)
	}); err != nil && ctx.Err() == nil {
		l.Fatal().Err(err).Msg("Update loop failed")
	}

	// Flush once more on the way out so nothing typed mid-shutdown is
	// lost.
	if err := st.Save(); err != nil {
		l.Error().Err(err).Msg("Final state flush failed")
	}
	l.Info().Msg("Bot stopped")
}
