package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application"
	"github.com/pactguard/pactguard/internal/application/analysis"
	appnotify "github.com/pactguard/pactguard/internal/application/notify"
	"github.com/pactguard/pactguard/internal/config"
	domai "github.com/pactguard/pactguard/internal/domain/ai"
	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/usage"
	"github.com/pactguard/pactguard/internal/infra/ai/guard"
	"github.com/pactguard/pactguard/internal/infra/ai/local"
	"github.com/pactguard/pactguard/internal/infra/ai/openai"
	mysqlp "github.com/pactguard/pactguard/internal/infra/db/mysql"
	"github.com/pactguard/pactguard/internal/infra/db/postgres"
	"github.com/pactguard/pactguard/internal/infra/httpserver"
	"github.com/pactguard/pactguard/internal/infra/mail"
	"github.com/pactguard/pactguard/internal/infra/parser"
	"github.com/pactguard/pactguard/internal/infra/storage"
	"github.com/pactguard/pactguard/internal/logging"
	"github.com/pactguard/pactguard/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx := context.Background()
	clock := application.SystemClock{}
	metrics := middleware.NewMetrics()
	checkers := map[string]middleware.HealthChecker{}

	// collaborator, chosen once
	fallback := local.Fallback{Now: clock.Now}
	var collaborator domai.Client = fallback
	if cfg.Collaborator.Mode == config.ModeOpenAI && cfg.Collaborator.APIKey != "" {
		collaborator = guard.New(openai.NewClient(openai.Options{
			APIKey:              cfg.Collaborator.APIKey,
			BaseURL:             cfg.Collaborator.BaseURL,
			Model:               cfg.Collaborator.Model,
			Provider:            cfg.Collaborator.Provider,
			OrchestrationKey:    cfg.Collaborator.OrchestrationKey,
			OrchestrationHeader: cfg.Collaborator.OrchestrationHeader,
			Timeout:             cfg.Collaborator.Timeout,
		}), guard.Settings{
			RatePerSecond:    cfg.Collaborator.RatePerSecond,
			Burst:            cfg.Collaborator.Burst,
			FailureThreshold: cfg.Collaborator.FailureThreshold,
		}, log)
	}
	log.WithField("collaborator", collaborator.Name()).Info("collaborator selected")

	// usage ledger
	ledger, db, err := openLedger(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("usage ledger init error")
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	source, err := openSource(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("document source init error")
	}

	// gmail is optional; without it /send-email answers 503
	notifier := &appnotify.Service{Log: log}
	if cfg.Gmail.RefreshToken != "" {
		gm, err := mail.NewGmail(ctx, mail.GmailConfig{
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			RefreshToken: cfg.Gmail.RefreshToken,
			Sender:       cfg.Gmail.Sender,
		})
		if err != nil {
			log.WithError(err).Warn("gmail disabled")
		} else {
			notifier.Mailer = gm
		}
	}

	svc := &analysis.Service{
		AI:       collaborator,
		Fallback: fallback,
		Usage:    ledger,
		Source:   source,
		Parser:   parser.New(),
		Clock:    clock,
		Log:      log,
		Metrics:  metrics,
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis:          svc,
		Notify:            notifier,
		Metrics:           metrics,
		Log:               log,
		APIKey:            cfg.Server.APIKey,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		Checkers:          checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func openLedger(ctx context.Context, cfg *config.Config) (usage.Repository, *sql.DB, error) {
	var (
		db   *sql.DB
		repo usage.Repository
		err  error
	)
	switch cfg.Database.Driver {
	case "", "none":
		return nil, nil, nil
	case "mysql":
		db, err = mysqlp.Connect(ctx, mysqlp.Options{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo = mysqlp.NewUsageRepository(db)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo = postgres.NewUsageRepository(db)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}

func openSource(ctx context.Context, cfg *config.Config) (document.Source, error) {
	switch cfg.Documents.Source {
	case "", "none":
		return nil, nil
	case "gdrive":
		return storage.NewDrive(ctx, storage.DriveConfig{
			APIKey:          cfg.Drive.APIKey,
			CredentialsFile: cfg.Drive.CredentialsFile,
		})
	case "minio":
		return storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
	default:
		return nil, fmt.Errorf("unknown document source %q", cfg.Documents.Source)
	}
}
