package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/app"
	"github.com/Spok95/school-notifier/internal/attendance"
	"github.com/Spok95/school-notifier/internal/auth"
	"github.com/Spok95/school-notifier/internal/config"
	"github.com/Spok95/school-notifier/internal/db"
	"github.com/Spok95/school-notifier/internal/email"
	"github.com/Spok95/school-notifier/internal/jobs"
	"github.com/Spok95/school-notifier/internal/lock"
	"github.com/Spok95/school-notifier/internal/logging"
	"github.com/Spok95/school-notifier/internal/notify"
	"github.com/Spok95/school-notifier/internal/observability"
	"github.com/Spok95/school-notifier/internal/provision"
	"github.com/Spok95/school-notifier/internal/tg"
	"github.com/Spok95/school-notifier/internal/whatsapp"
)

var version = "dev"

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	store := db.NewStore(database)
	accounts := db.NewAccounts(database)

	mailer, err := email.New(cfg.Email, logger)
	if err != nil {
		logger.Fatal("email transport", zap.Error(err))
	}

	// WhatsApp необязателен: без URL канал молча пропускается
	var messaging notify.MessagingTransport
	if cfg.WhatsApp.BaseURL != "" {
		wa, err := whatsapp.New(cfg.WhatsApp, logger)
		if err != nil {
			logger.Fatal("whatsapp transport", zap.Error(err))
		}
		messaging = wa
	} else {
		logger.Warn("WHATSAPP_API_URL not set, whatsapp channel disabled")
	}

	dispatcher := notify.New(mailer, messaging, logger, notify.Options{
		CountryCode: cfg.PhoneCountryCode,
		Timeout:     cfg.DispatchTimeout,
	})

	policy, err := provision.ParseResetPolicy(cfg.ResetMessaging)
	if err != nil {
		logger.Fatal("reset messaging", zap.Error(err))
	}
	locks := lock.New()
	provisioner := provision.NewService(store, accounts, dispatcher, locks, policy, logger)
	monitor := attendance.NewMonitor(store, dispatcher, locks, logger, attendance.Options{
		Location: cfg.Location,
		Workers:  cfg.SweepWorkers,
	})

	var opsBot tg.Sender
	if bot, err := tg.NewBot(cfg.TelegramToken); err != nil {
		logger.Warn("telegram bot init failed, ops notices disabled", zap.Error(err))
	} else if bot != nil {
		opsBot = bot
	}
	ops := tg.NewAdminNotifier(opsBot, cfg.AdminIDs, logger)

	runner := jobs.New(ctx, cfg.Location, logger)
	if err := jobs.RegisterSweeps(runner, monitor, ops, cfg.DailySweepCron, cfg.AccumulatedSweepCron); err != nil {
		logger.Fatal("schedule sweeps", zap.Error(err))
	}
	runner.Start()

	router := app.NewRouter(app.Deps{
		DB:          database,
		Provisioner: provisioner,
		Sweeper:     monitor,
		Alerts:      store,
		Auth:        provision.NewAuthorizer(accounts, cfg.ServiceSecret),
		Tokens:      auth.NewVerifier(cfg.JWTSecret),
		Location:    cfg.Location,
		SchoolName:  cfg.SchoolName,
		Log:         logger,
	})
	app.StartHTTP(ctx, cfg.HTTPAddr, router, logger)

	logger.Info("school notifier started", zap.String("version", version), zap.String("env", cfg.Env))
	<-ctx.Done()

	logger.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runner.Stop(shCtx)
}
