// Command worker runs the background sweeps: the reminder processor and
// the email delivery worker.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/verticalhire/verticalhire/internal/config"
	"github.com/verticalhire/verticalhire/internal/mailing"
	"github.com/verticalhire/verticalhire/internal/pkg/distlock"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/repository/postgres"
	"github.com/verticalhire/verticalhire/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err.Error())
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err.Error())
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, sweep locks fall back to postgres", "error", err.Error())
			redisClient = nil
		}
	}

	queueRepo := postgres.NewQueueRepo(db)

	processor := worker.NewReminderProcessor(
		queueRepo,
		mailing.NewTemplateService(),
		distlock.NewLock(redisClient, db, "verticalhire:reminder-sweep", time.Minute),
		cfg.Workers.ReminderInterval(),
		cfg.Workers.ReminderBatchSize,
		cfg.Email.FromEmail, cfg.Email.FromName,
	)

	sender, err := worker.NewSESSender(context.Background(), cfg.Email.SESRegion)
	if err != nil {
		logger.Error("init ses sender", "error", err.Error())
		os.Exit(1)
	}
	delivery := worker.NewDeliveryWorker(
		queueRepo,
		sender,
		distlock.NewLock(redisClient, db, "verticalhire:delivery-drain", time.Minute),
		cfg.Workers.DeliveryInterval(),
		cfg.Workers.DeliveryBatchSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); processor.Start(ctx) }()
	go func() { defer wg.Done(); delivery.Start(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	wg.Wait()
}
