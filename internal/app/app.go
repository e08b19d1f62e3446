// Package app wires configuration into the storage backend and the service,
// shared by the API server and the condoctl command.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/Dan9191/condo-service/internal/config"
	"github.com/Dan9191/condo-service/internal/integrations/gcs"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/Dan9191/condo-service/internal/repository/firestore"
	"github.com/Dan9191/condo-service/internal/repository/memory"
	"github.com/Dan9191/condo-service/internal/repository/postgres"
	"github.com/Dan9191/condo-service/internal/service"
	"github.com/Dan9191/condo-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

// App holds the long-lived dependencies of a process
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	Store   repository.Store
	Service *service.Service

	closers []io.Closer
}

// OpenStore connects to the configured backend. With migrate set, pending
// Postgres migrations are applied first.
func OpenStore(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) (repository.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		store, err := postgres.Open(cfg.DBConn)
		if err != nil {
			return nil, err
		}
		if migrate {
			applied, err := store.Migrate(ctx)
			if err != nil {
				store.Close()
				return nil, err
			}
			for _, name := range applied {
				log.Infof("Applied migration %s", name)
			}
		}
		log.Info("Connected to Postgres")
		return store, nil
	case config.DriverFirestore:
		store, err := firestore.Open(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, err
		}
		log.Infof("Connected to Firestore project %s", cfg.FirestoreProjectID)
		return store, nil
	case config.DriverMemory:
		log.Warn("Using in-memory storage; data is lost on exit")
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// New opens the store and builds the service with its SMTP notifier and, when
// REPORTS_BUCKET is set, the Cloud Storage uploader.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) (*App, error) {
	store, err := OpenStore(ctx, cfg, log, migrate)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, Store: store, closers: []io.Closer{store}}

	var uploader service.Uploader
	if cfg.ReportsBucket != "" {
		u, err := gcs.NewUploader(ctx, cfg.ReportsBucket, cfg.GoogleCredentialsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, u)
		uploader = u
	}

	a.Service = service.NewService(store, log, email.NewSender(cfg, log), uploader)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Log.Warnf("Failed to close: %v", err)
		}
	}
}
