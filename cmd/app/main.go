package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/souvik9998/gym-crm-sub001/internal/config"
	"github.com/souvik9998/gym-crm-sub001/internal/db"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/server"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
	"github.com/souvik9998/gym-crm-sub001/internal/sweep"
)

// @title Gym CRM API
// @version 1.0
// @description Member, subscription and personal-training management for multi-branch gyms.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting gym CRM")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, notifications and analytics cache degraded", "addr", cfg.RedisAddr)
	}

	notifier := notification.New(rdb, notification.NewSender(cfg.WhatsAppAPIURL, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID))
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	subscriptions := subscription.NewRepository(database)
	sweepJob := sweep.NewJob(subscriptions, cfg.Location)
	reminder := sweep.NewReminder(subscriptions, notifier, cfg.ReminderLeadDays, cfg.Location)

	scheduler := sweep.NewScheduler(sweep.NewLocker(rdb), cfg.Location)
	if err := scheduler.Add("sweep", cfg.SweepCron, func(ctx context.Context) error {
		_, err := sweepJob.Run(ctx)
		return err
	}); err != nil {
		logger.Fatalf("Failed to schedule sweep: %v", err)
	}
	if err := scheduler.Add("reminder", cfg.ReminderCron, func(ctx context.Context) error {
		_, err := reminder.Run(ctx)
		return err
	}); err != nil {
		logger.Fatalf("Failed to schedule reminders: %v", err)
	}
	scheduler.Start()

	srv := server.New(cfg, server.Deps{
		DB:       database,
		Redis:    rdb,
		Notifier: notifier,
		Sweep:    sweepJob,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)
	cancel()

	logger.Info("Server stopped")
}
