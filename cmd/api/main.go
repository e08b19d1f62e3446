package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/condo-service/internal/app"
	"github.com/Dan9191/condo-service/internal/config"
	"github.com/Dan9191/condo-service/internal/handler"
	"github.com/Dan9191/condo-service/internal/integrations/ecf"
	"github.com/Dan9191/condo-service/internal/integrations/firebase"
	"github.com/Dan9191/condo-service/internal/logger"
	"github.com/Dan9191/condo-service/internal/middleware"
	"github.com/Dan9191/condo-service/internal/scheduler"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Money goes out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize layers
	a, err := app.New(ctx, cfg, log, true)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer a.Close()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize authentication: %v", err)
	}

	h := handler.NewHandler(a.Service, ecf.NewParser(log), log)

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(a.Service, scheduler.Specs{
			Fees:      cfg.FeesCron,
			Overdue:   cfg.OverdueCron,
			Reconcile: cfg.ReconcileCron,
			Reminders: cfg.RemindersCron,
		}, cfg.Location, log)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		sched.Start()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(verifier),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		log.Errorf("Server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shut down server: %v", err)
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		return firebase.NewVerifier(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentialsFile)
	}
	return middleware.NewJWTVerifier(cfg.JWTSecret), nil
}
