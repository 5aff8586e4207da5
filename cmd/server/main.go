// Command server runs the HTTP API.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/verticalhire/verticalhire/internal/ai"
	"github.com/verticalhire/verticalhire/internal/api"
	"github.com/verticalhire/verticalhire/internal/config"
	"github.com/verticalhire/verticalhire/internal/mailing"
	"github.com/verticalhire/verticalhire/internal/notify"
	"github.com/verticalhire/verticalhire/internal/pipeline"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/repository/postgres"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
	"github.com/verticalhire/verticalhire/internal/service/interview"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
	"github.com/verticalhire/verticalhire/internal/storage"
	"github.com/verticalhire/verticalhire/internal/stt"
	"github.com/verticalhire/verticalhire/internal/video"
)

// notifyStore satisfies notify.Repository by composing the interview and
// queue repositories.
type notifyStore struct {
	*postgres.InterviewRepo
	*postgres.QueueRepo
}

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

	campaignRepo := postgres.NewCampaignRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	interviewRepo := postgres.NewInterviewRepo(db)
	queueRepo := postgres.NewQueueRepo(db)

	suppSvc := suppression.NewService(suppressionRepo)
	campSvc := campaign.NewService(campaignRepo, suppSvc)
	ivSvc := interview.NewService(interviewRepo)

	var pipelineSvc *pipeline.Service
	if cfg.Video.Enabled() {
		ctx := context.Background()

		store, err := storage.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.Profile)
		if err != nil {
			logger.Error("init blob store", "error", err.Error())
			os.Exit(1)
		}
		analyzer, err := ai.NewBedrockAnalyzer(ctx, cfg.AI.Region, cfg.AI.ModelID)
		if err != nil {
			logger.Error("init analyzer", "error", err.Error())
			os.Exit(1)
		}

		var transcriber pipeline.Transcriber
		if c := stt.NewClient(stt.Config{BaseURL: cfg.STT.BaseURL, APIKey: cfg.STT.APIKey}); c != nil {
			transcriber = c
		}

		notifier := notify.NewService(
			&notifyStore{InterviewRepo: interviewRepo, QueueRepo: queueRepo},
			mailing.NewTemplateService(),
			cfg.Email.FromEmail, cfg.Email.FromName,
		)

		pipelineSvc = pipeline.NewService(
			interviewRepo,
			video.NewClient(video.Config{
				BaseURL:      cfg.Video.BaseURL,
				TokenURL:     cfg.Video.TokenURL,
				AccountID:    cfg.Video.AccountID,
				ClientID:     cfg.Video.ClientID,
				ClientSecret: cfg.Video.ClientSecret,
			}),
			store, transcriber, analyzer, notifier,
			cfg.App.DetailBaseURL,
		)
	} else {
		logger.Warn("video provider not configured: post-interview pipeline disabled")
	}

	handlers := api.NewHandlers(campSvc, ivSvc, suppSvc, pipelineSvc)
	server := api.NewServer(cfg.Server.Port, handlers, cfg.Server.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown", "error", err.Error())
		}
	}
}
