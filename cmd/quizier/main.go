package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/quizier/internal/config"
	"github.com/aliskhannn/quizier/internal/delivery/api"
	"github.com/aliskhannn/quizier/internal/delivery/telegram"
	"github.com/aliskhannn/quizier/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/quizier/internal/infra/postgres/repository"
	"github.com/aliskhannn/quizier/internal/logger"
	"github.com/aliskhannn/quizier/internal/repository"
	"github.com/aliskhannn/quizier/internal/service"
	"github.com/aliskhannn/quizier/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, newTelegramHandler); err != nil {
		lg.Fatal("quizier stopped with error", zap.Error(err))
	}

	lg.Info("shutdown complete")
}

// telegramFactory builds the bot handler; run takes it as a parameter so the
// startup order can be tested without the Bot API.
type telegramFactory func(cfg *config.Config, store service.QuizStore, sessions *storage.SessionStorage, lg *zap.Logger) (*telegram.Handler, error)

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger, newBot telegramFactory) error {
	store, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := storage.NewSessionStorage(cfg.Session.MaxSessions)

	// Everything that can fail is built before the first goroutine starts.
	var bot *telegram.Handler
	if cfg.Telegram.Enabled() {
		bot, err = newBot(cfg, store, sessions, lg.Named("telegram"))
		if err != nil {
			return err
		}
	} else {
		lg.Info("telegram token not set, bot disabled")
	}

	janitor := service.NewSessionJanitor(sessions, cfg.Session.TTL, cfg.Session.SweepSchedule, lg.Named("janitor"))

	router := api.NewRouter(
		api.NewQuizHandler(store, lg.Named("catalog")),
		api.NewSessionHandler(store, sessions, cfg.Quiz.RevealDelay, lg.Named("session")),
		cfg.HTTP.WriteTimeout,
		lg.Named("http"),
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return janitor.Start(gctx)
	})

	g.Go(func() error {
		lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			return bot.Run(gctx)
		})
	}

	return g.Wait()
}

// openStore returns the configured quiz store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (service.QuizStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		repo, err := repository.NewQuizFixtureRepository(cfg.Storage.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		lg.Info("using quiz fixture", zap.String("path", cfg.Storage.FixturePath))
		return repo, func() {}, nil

	default:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		lg.Info("connected to postgres")
		return pgrepo.NewQuizRepository(pool), pool.Close, nil
	}
}

func newTelegramHandler(cfg *config.Config, store service.QuizStore, sessions *storage.SessionStorage, lg *zap.Logger) (*telegram.Handler, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	bot.Debug = cfg.Telegram.Debug

	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Start the bot",
		},
		{
			Command:     "quizzes",
			Description: "Browse quizzes (usage: /quizzes capitals)",
		},
		{
			Command:     "help",
			Description: "Help",
		},
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	return telegram.NewHandler(bot, lg, store, sessions, cfg.Quiz.RevealDelay), nil
}
