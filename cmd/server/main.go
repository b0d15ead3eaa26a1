package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"groupsched/config"
	"groupsched/internal/adapters/auth"
	"groupsched/internal/adapters/email"
	deliveryhttp "groupsched/internal/delivery/http"
	"groupsched/internal/delivery/http/controllers"
	"groupsched/internal/delivery/http/middleware"
	"groupsched/internal/docstore"
	"groupsched/internal/ranking"
	"groupsched/internal/repository/postgres"
	"groupsched/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	bcryptCost      = 12
)

// @title Group Scheduling API
// @version 1.0
// @description Campaign-based group availability scheduling.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open document store", "driver", cfg.DocstoreDriver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	jwtAuth := auth.NewJWTAuth(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcryptCost)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureTLS,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	legacyCodes := make(map[string]services.LegacyInvite, len(cfg.LegacyInviteCodes))
	for code, target := range cfg.LegacyInviteCodes {
		legacyCodes[code] = services.LegacyInvite{CampaignID: target.CampaignID, Role: target.Role}
	}

	rankOptions := ranking.Options{TopN: cfg.SummaryTopN, SkipUnanswered: cfg.SkipUnanswered}

	userService := services.NewUserService(store, hasher, jwtAuth, cfg.TokenExpiry, serviceTimeout)
	campaignService := services.NewCampaignService(store, serviceTimeout)
	inviteService := services.NewInviteService(store, emailService, legacyCodes, serviceTimeout)
	availabilityService := services.NewAvailabilityService(store, rankOptions, serviceTimeout)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:         controllers.NewAuthController(logger, userService),
		Campaign:     controllers.NewCampaignController(logger, campaignService, userService),
		Invite:       controllers.NewInviteController(logger, inviteService, userService),
		Availability: controllers.NewAvailabilityController(logger, availabilityService, time.Weekday(cfg.WeekStart)),
	}, jwtAuth, logger)

	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment, "docstore", cfg.DocstoreDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
	}
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.DocstoreDriver {
	case "bolt":
		return docstore.NewBoltStore(cfg.BoltPath)
	case "postgres":
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		return postgres.NewDocStore(db), nil
	case "none":
		return docstore.NewNoopStore(), nil
	default:
		return docstore.NewMemoryStore(), nil
	}
}
