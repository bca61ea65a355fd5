// Command sweep runs the deactivation sweep once, and optionally the
// expiry reminders, then exits. It is meant for an external scheduler
// such as a Kubernetes CronJob.
package main

import (
	"context"
	"flag"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/souvik9998/gym-crm-sub001/internal/config"
	"github.com/souvik9998/gym-crm-sub001/internal/db"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
	"github.com/souvik9998/gym-crm-sub001/internal/sweep"
)

func main() {
	reminders := flag.Bool("reminders", false, "also queue expiring-soon reminders")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	subscriptions := subscription.NewRepository(database)

	result, err := sweep.NewJob(subscriptions, cfg.Location).Run(ctx)
	if err != nil {
		logger.Fatalf("Sweep failed: %v", err)
	}
	logger.Info("sweep finished",
		"cutoff", result.Cutoff,
		"gym", result.Gym,
		"pt", result.PT,
	)

	if !*reminders {
		return
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	notifier := notification.New(rdb, notification.NewSender(cfg.WhatsAppAPIURL, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID))
	defer notifier.Close()

	queued, err := sweep.NewReminder(subscriptions, notifier, cfg.ReminderLeadDays, cfg.Location).Run(ctx)
	if err != nil {
		logger.Fatalf("Reminders failed: %v", err)
	}
	logger.Info("reminders queued", "count", queued)
}
