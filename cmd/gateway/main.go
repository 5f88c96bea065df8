package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application/gateway"
	"github.com/pactguard/pactguard/internal/config"
	domsession "github.com/pactguard/pactguard/internal/domain/session"
	"github.com/pactguard/pactguard/internal/infra/backend"
	"github.com/pactguard/pactguard/internal/infra/httpserver"
	"github.com/pactguard/pactguard/internal/infra/session"
	"github.com/pactguard/pactguard/internal/logging"
)

func main() {
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

	// latest-analysis store: in-process LRU, or redis in cloud mode
	var sessions domsession.Store
	switch cfg.Gateway.StorageMode {
	case config.StorageCloud:
		rs, err := session.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Gateway.SessionTTL)
		if err != nil {
			log.WithError(err).Fatal("redis connect error")
		}
		defer rs.Close()
		sessions = rs
	default:
		sessions = session.NewMemoryStore(cfg.Gateway.SessionCapacity, cfg.Gateway.SessionTTL)
	}

	handler := httpserver.NewGatewayRouter(httpserver.GatewayDeps{
		Gateway: &gateway.Service{
			Backend:  backend.NewClient(cfg.Gateway.BackendURL, cfg.Server.APIKey, cfg.Gateway.Timeout),
			Sessions: sessions,
			Log:      log,
		},
		Log:               log,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		CookieName:        cfg.Gateway.CookieName,
		SecureCookie:      cfg.Gateway.SecureCookie,
		SessionTTL:        cfg.Gateway.SessionTTL,
		StorageMode:       cfg.Gateway.StorageMode,
	})

	addr := fmt.Sprintf(":%d", cfg.Gateway.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		// the backend ceiling plus room to write the answer
		WriteTimeout: cfg.Gateway.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    addr,
			"backend": cfg.Gateway.BackendURL,
			"storage": cfg.Gateway.StorageMode,
		}).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down gateway...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
