package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vietbuild/internal/util"
	"vietbuild/pkg/auth"
	"vietbuild/pkg/events"
	"vietbuild/pkg/localstore"
	"vietbuild/pkg/storage"
	"vietbuild/services/portal/internal/aiclient"
	"vietbuild/services/portal/internal/app"
	"vietbuild/services/portal/internal/authclient"
	"vietbuild/services/portal/internal/config"
	"vietbuild/services/portal/internal/queryclient"
	"vietbuild/services/portal/internal/server"
	"vietbuild/services/portal/internal/store"
	"vietbuild/services/portal/internal/uploadclient"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	durations, err := cfg.ParseDurations()
	if err != nil {
		log.Fatalf("failed to parse durations: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	persistPath := cfg.Persistence.Path
	if persistPath == "" {
		persistPath = filepath.Join(cfg.DataDir, "portal")
		if cfg.Persistence.Driver == "sqlite" {
			persistPath = filepath.Join(cfg.DataDir, "portal.db")
		}
	}
	records, err := localstore.Open(localstore.Config{
		Driver:        cfg.Persistence.Driver,
		Path:          persistPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisPrefix:   cfg.Persistence.RedisPrefix,
		DatabaseURL:   cfg.Persistence.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to open persistence: %v", err)
	}
	defer records.Close()

	publisher, err := events.Open(events.Config{
		Driver:        cfg.Events.Driver,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		Stream:        cfg.Events.Stream,
		AMQPURL:       cfg.Events.AMQPURL,
		Exchange:      cfg.Events.Exchange,
		KafkaBrokers:  cfg.Events.KafkaBrokers,
		Topic:         cfg.Events.Topic,
	})
	if err != nil {
		log.Fatalf("failed to open events publisher: %v", err)
	}
	defer publisher.Close()

	var archive storage.ObjectStore
	if cfg.ObjectStore.Endpoint != "" {
		archive, err = storage.NewMinioStore(context.Background(), storage.MinioConfig{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Bucket:    cfg.ObjectStore.Bucket,
			UseSSL:    cfg.ObjectStore.UseSSL,
		})
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
	}

	authClient := authclient.NewClient(cfg.UploadServiceURL)
	uploadClient := uploadclient.NewClient(cfg.UploadServiceURL)
	admin := auth.Credential{
		Username: cfg.Admin.Username,
		Secret:   cfg.Admin.Password,
		Hash:     cfg.Admin.PasswordHash,
	}
	sessions := store.NewSessionStore(records, authClient, admin)
	documents := store.NewDocumentStore(records)

	appCore, err := app.New(app.Config{
		Sessions:          sessions,
		Documents:         documents,
		Registrar:         authClient,
		Uploader:          uploadClient,
		Querier:           queryclient.NewClient(cfg.QueryServiceURL),
		Assistant:         aiclient.NewClient(cfg.AIServiceURL),
		Publisher:         publisher,
		Archive:           archive,
		UploadMode:        app.UploadMode(cfg.UploadMode),
		ChatMode:          app.ChatMode(cfg.ChatMode),
		MockReplyDelay:    durations.MockReplyDelay,
		ProgressInterval:  durations.ProgressInterval,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	if err := appCore.Init(context.Background()); err != nil {
		log.Fatalf("failed to restore state: %v", err)
	}
	defer appCore.Close()

	tokens, err := store.NewTokenIssuer(cfg.SessionSecret, durations.SessionTTL)
	if err != nil {
		log.Fatalf("failed to init session tokens: %v", err)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("sessionSecret not set; tokens will not survive a restart")
	}

	settings := app.DefaultSettings()
	if cfg.Persistence.Driver != "" {
		settings.Persistence = cfg.Persistence.Driver
	}
	if cfg.Events.Driver != "" {
		settings.Events = cfg.Events.Driver
	}
	if durations.SessionTTL > 0 {
		settings.SessionTimeoutMin = int(durations.SessionTTL / time.Minute)
	}

	var statuses server.StatusReader
	if rs, ok := publisher.(*events.RedisStreamPublisher); ok {
		statuses = rs
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		Sessions:                   sessions,
		Tokens:                     tokens,
		Statuses:                   statuses,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		TrustedProxyCIDRs:          cfg.TrustedProxyCIDRs,
		CORSOrigins:                cfg.CORSOrigins,
		SecureCookies:              cfg.SecureCookies,
		SessionTTL:                 durations.SessionTTL,
		Settings:                   settings,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer httpServer.Close()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", addr, "upload_mode", cfg.UploadMode, "chat_mode", cfg.ChatMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
