package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrFeeNotConfigured = errors.New("monthly fee not configured for unit")
	ErrForbidden        = errors.New("forbidden")
	ErrUploadDisabled   = errors.New("report upload is not configured")
	ErrNotifierDisabled = errors.New("e-mail delivery is not configured")
)

// Notifier delivers e-mails to residents
type Notifier interface {
	SendCommunication(ctx context.Context, to []string, condo *models.Condominium, c models.Communication) error
	SendBalanceReminder(ctx context.Context, to string, condo *models.Condominium, unit *models.Unit, balance decimal.Decimal) error
}

// Uploader stores generated reports and returns their location
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error)
}

// Service handles business logic
type Service struct {
	store    repository.Store
	log      *logrus.Logger
	notifier Notifier
	uploader Uploader

	now        func() time.Time
	feeWorkers int
}

// NewService initializes a new service. notifier and uploader may be nil; the
// operations that need them then fail.
func NewService(store repository.Store, log *logrus.Logger, notifier Notifier, uploader Uploader) *Service {
	return &Service{
		store:      store,
		log:        log,
		notifier:   notifier,
		uploader:   uploader,
		now:        time.Now,
		feeWorkers: 8,
	}
}

// Authorize checks that the principal may read, or with write set modify,
// the condominium
func (s *Service) Authorize(p models.Principal, condoID string, write bool) error {
	if write && !p.CanManage(condoID) {
		return ErrForbidden
	}
	if !p.CanAccess(condoID) {
		return ErrForbidden
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func (s *Service) condoLog(condoID string) *logrus.Entry {
	return s.log.WithField("condominium_id", condoID)
}
