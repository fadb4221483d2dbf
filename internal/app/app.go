package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/berdskdekor-ux/agro-bot/assets"
	"github.com/berdskdekor-ux/agro-bot/internal/config"
	"github.com/berdskdekor-ux/agro-bot/internal/dialog"
	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/geo"
	"github.com/berdskdekor-ux/agro-bot/internal/integrations/llm"
	"github.com/berdskdekor-ux/agro-bot/internal/integrations/plantnet"
	"github.com/berdskdekor-ux/agro-bot/internal/integrations/weather"
	"github.com/berdskdekor-ux/agro-bot/internal/outbox"
	"github.com/berdskdekor-ux/agro-bot/internal/payment"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
	"github.com/berdskdekor-ux/agro-bot/internal/scheduler"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
	"github.com/berdskdekor-ux/agro-bot/internal/telegram"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	engine  *gin.Engine
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      engine,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, engine: engine}, nil
}

func (a *App) Run(ctx context.Context) (err error) {
	a.log.Info("starting agro-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Bool("payments", a.cfg.PaymentsEnabled()),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { err = multierr.Append(err, repo.Close()) }()
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	users := store.Open(ctx, repo, a.log.Named("store"))
	gate := quota.NewGate(quota.Limits{
		domain.FeaturePhotos:    a.cfg.LimitPhotos,
		domain.FeatureReminders: a.cfg.LimitReminders,
		domain.FeatureQuestions: a.cfg.LimitQuestions,
	}, nil)
	q := outbox.New(a.cfg.OutboxSize)

	advisor := llm.New(a.cfg.YandexAPIKey, a.cfg.YandexFolderID, a.log.Named("llm"))
	deps := dialog.Deps{
		Store:      users,
		Gate:       gate,
		Zones:      geo.NewResolver(),
		Advisor:    advisor,
		Diagnoser:  plantnet.New(a.cfg.PlantNetAPIKey, advisor, a.log.Named("plantnet")),
		Forecaster: weather.New(a.cfg.WeatherAPIKey, a.log.Named("weather")),
		Calendar:   assets.Calendar(),
		Log:        a.log.Named("dialog"),
	}
	if a.cfg.PaymentsEnabled() {
		checkout := payment.NewYooKassa(a.cfg.YooKassaShopID, a.cfg.YooKassaSecretKey,
			a.cfg.PaymentReturnURL, repo, a.log.Named("checkout"))
		deps.Checkout = checkout
		payment.NewWebhook(repo, users, gate, checkout, q, a.log.Named("webhook")).Register(a.engine)
	} else {
		a.log.Warn("yookassa credentials missing, premium purchases disabled")
	}
	machine := dialog.New(deps)
	router := telegram.NewRouter(a.bot, machine, a.log.Named("telegram"))

	dispatcher := scheduler.NewDispatcher(users, q, a.log.Named("dispatcher"), a.cfg.DispatchInterval, nil)
	sweeper := scheduler.NewSweeper(users, gate, q, a.log.Named("sweeper"), a.cfg.SweepInterval)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)

	// Producers publish into the outbox; it is closed only after all of
	// them have returned.
	var producers sync.WaitGroup
	produce := func(fn func()) {
		producers.Add(1)
		g.Go(func() error { defer producers.Done(); fn(); return nil })
	}

	g.Go(func() error { return router.Poll(gctx, updCh, a.cfg.Workers) })
	g.Go(func() error { return router.Drain(gctx, q) })
	produce(func() { dispatcher.Run(gctx) })
	produce(func() { sweeper.Run(gctx) })
	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")
		a.bot.StopReceivingUpdates()

		// Create a short-lived shutdown context and cancel it immediately after use.
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		producers.Wait()
		q.Close()
		return nil
	})

	err = g.Wait()
	a.log.Info("stopped", zap.Int("users", users.Len()), zap.Int("undelivered", q.Len()))
	return err
}
