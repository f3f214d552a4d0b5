package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/straider911/9whales/internal/alerting"
	"github.com/straider911/9whales/internal/config"
	"github.com/straider911/9whales/internal/dispatch"
	"github.com/straider911/9whales/internal/scheduler"
	"github.com/straider911/9whales/internal/service"
	"github.com/straider911/9whales/internal/stats"
	"github.com/straider911/9whales/internal/webhook"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.TelegramEnabled() {
		return nil
	}
	cfg := a.Config.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.SendTimeout, a.Logger)
}

// Run starts the webhook relay and blocks until the context is
// cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	threshold, err := a.Config.Threshold()
	if err != nil {
		return err
	}

	counters := stats.New()

	gate := webhook.NewGate(a.Config.Webhook.SharedSecret)
	if gate.Open() {
		a.Logger.Warn().Msg("webhook.shared_secret not configured; authorization disabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("telegram not configured; alerts will not be delivered")
	}

	dispatcher := dispatch.New(dispatch.Options{
		Workers:     a.Config.Dispatch.Workers,
		QueueSize:   a.Config.Dispatch.QueueSize,
		RatePerSec:  a.Config.Dispatch.RatePerSec,
		SendTimeout: a.Config.Telegram.SendTimeout,
	}, notifier, counters, a.Logger)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	svc := service.New(service.Options{
		Gate:         gate,
		Extractor:    webhook.NewExtractor(threshold, a.Logger),
		Sink:         dispatcher,
		Notifier:     notifier,
		Counters:     counters,
		MaxBodyBytes: a.Config.Server.MaxBodyBytes,
	}, a.Logger)

	srv := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      svc.Routes(a.Config.Webhook.Provider),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.Config.Server.Addr).
			Str("provider", a.Config.Webhook.Provider).
			Str("threshold_usd", threshold.String()).
			Msg("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.Config.Digest.Enabled && notifier != nil {
		sched := scheduler.New(scheduler.Options{
			Interval: a.Config.Digest.Interval,
			Align:    true,
		}, a.Logger)
		go func() {
			_ = sched.Run(ctx, svc.Digest)
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("http server shutdown failed")
	}

	a.Logger.Info().Msg("relay stopped")
	return nil
}
