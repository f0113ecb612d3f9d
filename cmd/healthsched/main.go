package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthsched/internal/app"
	"healthsched/internal/domain/gateway"
	"healthsched/internal/infra/config"
	idb "healthsched/internal/infra/database"
	"healthsched/internal/infra/logger"
	"healthsched/internal/infra/notify"
	"healthsched/internal/infra/scheduler"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established.")

	recordRepo := idb.NewPostgresRecordRepository(db)

	// Initialize the notification gateway. With a Telegram token the alerts
	// are delivered as bot messages; without one they are only held in
	// memory, which is useful for local development.
	var gw gateway.Gateway
	var bot *telebot.Bot
	stopGateway := func() {}
	if cfg.TelegramToken != "" {
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				log.Errorf("telebot: %v", err)
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			log.Fatalf("Could not create Telegram bot: %v", err)
		}
		tgw := notify.NewTelegramGateway(notify.NewTelebotAdapter(bot), cfg.NotifyChatID, log)
		gw = tgw
		stopGateway = tgw.Stop
		log.Info("Telegram notification gateway initialized.")
	} else {
		log.Warn("TELEGRAM_TOKEN not set, alerts will not be delivered anywhere.")
		gw = notify.NewInMemoryGateway()
	}

	coordinator := app.NewSchedulingCoordinator(gw, recordRepo, log)
	recordService := app.NewRecordService(recordRepo, coordinator, cfg.NotificationSettings, log)
	log.Info("Scheduling coordinator initialized.")

	if bot != nil {
		notify.RegisterCommandHandlers(context.Background(), bot, recordService, cfg.NotifyChatID, log.WithField("component", "bot"))
		log.Info("Bot command handlers registered.")
	}

	// Startup reconciliation pass: rebuild the alert schedule from the
	// record store before anything else runs.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := coordinator.ReconcileAll(ctx, cfg.NotificationSettings, time.Now()); err != nil {
		log.Warnf("Startup reconciliation finished with errors: %v", err)
	}
	cancel()

	reconciler := scheduler.NewReconcileScheduler(coordinator, cfg.NotificationSettings, log, cfg.CronSpecReconcile)
	if err := reconciler.Start(); err != nil {
		log.Fatalf("Could not start reconciliation scheduler: %v", err)
	}

	if bot != nil {
		go bot.Start()
	}
	log.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	reconciler.Stop()
	stopGateway()
	log.Info("Application shut down gracefully.")
}
