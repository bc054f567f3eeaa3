package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"designer-onboarding/internal/api"
	"designer-onboarding/internal/common/auth"
	awsclient "designer-onboarding/internal/common/aws"
	"designer-onboarding/internal/common/camunda"
	"designer-onboarding/internal/common/config"
	"designer-onboarding/internal/common/database"
	"designer-onboarding/internal/common/lock"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/observability"
	"designer-onboarding/internal/notifications"
	"designer-onboarding/internal/provisioning"
	"designer-onboarding/internal/search"
	"designer-onboarding/internal/store"

	da "designer-onboarding/internal/workers/application/delete-application"
	uas "designer-onboarding/internal/workers/application/update-application-status"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	log := logger.NewStructured(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	zapLog := log.Zap()
	defer zapLog.Sync()

	zapLog.Info("Starting onboarding service...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(ctx)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	checks := map[string]api.Checker{"postgres": pg.Ping}

	deps := provisioning.ServiceDependencies{
		Applications: store.NewApplicationStore(pg.DB),
		Brands:       store.NewBrandStore(pg.DB),
		Profiles:     store.NewProfileStore(pg.DB),
		Recorder:     obs,
		Logger:       log,
	}

	// --- Identity provider ---
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)
	identities := auth.NewIdentityService(keycloak)
	resetLinks := auth.NewResetLinkIssuer(cfg.Auth.ResetLink.Secret, cfg.App.Name, cfg.ResetLinkTTL())
	deps.Identities = identities
	deps.RecoveryLinks = resetLinks

	// --- Notifications ---
	// Disabled channels stay nil interfaces so the dispatcher skips them.
	var (
		sesClient notifications.SESService
		snsClient notifications.SNSService
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			sesClient = awsclient.NewSESClient(awsCfg)
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient = awsclient.NewSNSClient(awsCfg)
		}
	}
	deps.Notifier = notifications.NewDispatcher(notifications.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		ReplyTo:      cfg.Notifications.Email.ReplyTo,
		SupportEmail: cfg.Notifications.Email.SupportEmail,
		SiteBaseURL:  cfg.Site.BaseURL,
		SMSSenderID:  cfg.Integrations.AWS.SNS.SMSSenderID,
	}, sesClient, snsClient, log)

	// --- Elasticsearch (optional directory index) ---
	if cfg.Database.Elasticsearch.Enabled() {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client failed", zap.Error(err))
		}
		if err := esClient.Ping(ctx); err != nil {
			zapLog.Warn("elasticsearch unreachable at startup, directory indexing will degrade", zap.Error(err))
		}
		deps.Indexer = search.NewBrandIndexer(esClient, cfg.Search.BrandIndex)
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Brand directory indexing enabled", zap.String("index", cfg.Search.BrandIndex))
	}

	// --- Redis (optional review lock, single-use reset links) ---
	var spentResets auth.TokenClaimer
	if cfg.Approval.Lock.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable at startup, reviews proceed unlocked until it recovers", zap.Error(err))
		}
		deps.Locker = lock.NewRedisLocker(rdb.Client, "review:", config.GetDuration(cfg.Approval.Lock.TTL))
		spentResets = lock.NewRedisLocker(rdb.Client, "reset:", cfg.ResetLinkTTL())
		checks["redis"] = rdb.Ping
		zapLog.Info("Review lock enabled")
	}

	service := provisioning.NewService(deps, provisioning.Config{
		SiteBaseURL: cfg.Site.BaseURL,
		ResetPath:   cfg.Auth.ResetLink.Path,
	})

	// --- Zeebe workers (optional) ---
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		if wc := uas.LoadConfig(cfg); wc.Enabled {
			if err := wc.Validate(); err != nil {
				zapLog.Fatal("invalid worker config", zap.String("taskType", uas.TaskType), zap.Error(err))
			}
			handler := uas.NewHandler(wc, service, log)
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      uas.TaskType,
				MaxJobsActive: wc.MaxJobsActive,
				Timeout:       wc.Timeout,
			}, handler, zapLog))
		}

		if wc := da.LoadConfig(cfg); wc.Enabled {
			if err := wc.Validate(); err != nil {
				zapLog.Fatal("invalid worker config", zap.String("taskType", da.TaskType), zap.Error(err))
			}
			handler := da.NewHandler(wc, service, log)
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      da.TaskType,
				MaxJobsActive: wc.MaxJobsActive,
				Timeout:       wc.Timeout,
			}, handler, zapLog))
		}
	}

	// --- HTTP ---
	e := api.NewServer(api.ServerConfig{
		AdminJWTSecret: cfg.Auth.AdminJWT.Secret,
		AdminJWTIssuer: cfg.Auth.AdminJWT.Issuer,
		ReadTimeout:    config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:   config.GetDuration(cfg.Server.WriteTimeout),
		Checks:         checks,
		Resets:         auth.NewResetRedeemer(resetLinks, identities, spentResets),
	}, service, log)

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.Server.Address()))
		if err := e.Start(cfg.Server.Address()); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("Onboarding service stopped")
}
