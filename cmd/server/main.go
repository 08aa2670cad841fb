package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/tsuki42/reddit-clone/internal/application/services"
	"github.com/tsuki42/reddit-clone/internal/application/validation"
	"github.com/tsuki42/reddit-clone/internal/config"
	"github.com/tsuki42/reddit-clone/internal/delivery/graphql"
	custommw "github.com/tsuki42/reddit-clone/internal/delivery/middleware"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/credentials"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/events"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/kv"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/mail"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/postgres"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/ratelimit"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/session"
	"github.com/tsuki42/reddit-clone/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "err", err)
		os.Exit(1)
	}

	redisClient, err := kv.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	store := kv.NewRedisStore(redisClient)
	sessions := session.NewManager(kv.Namespaced(store, "sess:"), cfg.SessionTTL, cfg.CookieSecure)
	tokens := kv.Namespaced(store, "reset:")

	publisher := newPublisher(cfg, logger)
	auth := services.NewAuthService(
		postgres.NewUserRepository(db),
		tokens,
		credentials.NewBcryptHasher(),
		newMailer(cfg, logger),
		ratelimit.NewPerKey(rate.Every(cfg.ResetMailEvery), cfg.ResetMailBurst),
		publisher,
		validation.DefaultRegisterRules,
		cfg.FrontendURL,
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(custommw.Session(sessions))

	e.POST("/graphql", echo.WrapHandler(graphql.NewHandler(auth)))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	go func() {
		logger.Info("server starting", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}

func newMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	switch cfg.MailProvider {
	case "sendgrid":
		return mail.NewSendGridMailer(cfg.EmailAPIKey, cfg.EmailSender)
	case "resend":
		return mail.NewResendMailer(cfg.EmailAPIKey, cfg.EmailSender)
	default:
		return mail.NewLogMailer(logger)
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.NATSURL == "" {
		return events.NoopPublisher{}
	}
	publisher, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn("nats unavailable, account events disabled", "err", err)
		return events.NoopPublisher{}
	}
	return publisher
}
