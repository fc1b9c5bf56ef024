package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rapha/clinic/internal/config"
	"github.com/rapha/clinic/internal/domain/audit"
	"github.com/rapha/clinic/internal/domain/patient"
	"github.com/rapha/clinic/internal/domain/schema"
	"github.com/rapha/clinic/internal/domain/visit"
	"github.com/rapha/clinic/internal/platform/auth"
	"github.com/rapha/clinic/internal/platform/db"
	"github.com/rapha/clinic/internal/platform/middleware"
	"github.com/rapha/clinic/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic patient-record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the patients table against the column metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			verifier := schema.NewVerifier(schema.NewMetadataRepoPG(pool), schema.NewTableInspectorPG(pool))
			report, err := verifier.Verify(ctx)
			if err != nil {
				return err
			}

			report.Print(os.Stdout)
			if !report.Clean() {
				return fmt.Errorf("schema drift detected")
			}
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if err := db.Bootstrap(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap tables")
	}

	// Notifications
	var sender notification.EmailSender
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPPassword)
	} else {
		logger.Warn().Msg("SMTP not configured, notifications disabled")
	}
	mailer := notification.NewMailer(sender, notification.NewTemplateEngine(), logger)

	// Audit trail
	auditSvc := audit.NewService(audit.NewRepoPG(pool), mailer, cfg.ReportEmail, logger)

	// Column metadata
	runner := db.NewRunner(pool)
	schemaSvc := schema.NewService(schema.NewMetadataRepoPG(pool), schema.NewTableMutatorPG(pool), runner)
	if err := schemaSvc.Bootstrap(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed column metadata")
	}

	// Patients and visits
	patientSvc := patient.NewService(patient.NewRepoPG(pool), schemaSvc, mailer, auditSvc, patient.ServiceConfig{
		NursesEmail:     cfg.NursesEmail,
		PhysiciansEmail: cfg.PhysiciansEmail,
		ChiefPhysician:  cfg.ChiefPhysician,
	}, logger)
	visitSvc := visit.NewService(visit.NewRepoPG(pool), auditSvc)

	// Auth
	authenticator := auth.NewAuthenticator(cfg.Credentials(), cfg.PhysicianAccounts,
		cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && len(cfg.Credentials()) == 0 {
		logger.Warn().Msg("no staff credentials configured, every request runs as a physician")
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.Middleware(authenticator))
	}

	// Routes
	e.GET("/health/db", db.HealthHandler(pool))
	auth.NewHandler(authenticator, auditSvc).RegisterRoutes(e)

	apiV1 := e.Group("/api/v1")
	schema.NewHandler(schemaSvc, auditSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc, auditSvc).RegisterRoutes(apiV1)
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
