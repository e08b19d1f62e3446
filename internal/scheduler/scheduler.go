// Package scheduler runs the periodic jobs of the administration: monthly fee
// generation, overdue marking, invoice reconciliation and balance reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/condo-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs is the part of the service the scheduler drives
type Jobs interface {
	CondominiumIDs(ctx context.Context) ([]string, error)
	GenerateMonthlyFees(ctx context.Context, condoID string) (*service.FeeRun, error)
	MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error)
	ReconcileInvoices(ctx context.Context, condoID string) (*service.Reconciliation, error)
	SendBalanceReminders(ctx context.Context, condoID string) (int, error)
}

// Specs holds the cron expressions of each job. An empty spec disables the job.
type Specs struct {
	Fees      string
	Overdue   string
	Reconcile string
	Reminders string
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    Jobs
	log     *logrus.Logger
	timeout time.Duration
}

// New registers the jobs on a cron running in loc. Runs of the same job never
// overlap.
func New(jobs Jobs, specs Specs, loc *time.Location, log *logrus.Logger) (*Scheduler, error) {
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:    jobs,
		log:     log,
		timeout: 30 * time.Minute,
	}

	for _, j := range []struct {
		name string
		spec string
		run  func(ctx context.Context, condoID string) error
	}{
		{"monthly-fees", specs.Fees, s.fees},
		{"overdue", specs.Overdue, s.overdue},
		{"reconcile", specs.Reconcile, s.reconcile},
		{"reminders", specs.Reminders, s.reminders},
	} {
		if j.spec == "" {
			continue
		}
		name, run := j.name, j.run
		if _, err := s.cron.AddFunc(j.spec, func() { s.RunAll(context.Background(), name, run) }); err != nil {
			return nil, fmt.Errorf("failed to schedule %s job %q: %w", name, j.spec, err)
		}
		log.Infof("Scheduled %s job: %s", name, j.spec)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before running jobs finished")
	}
}

// RunAll applies run to every condominium. A failure on one condominium is
// logged and does not stop the sweep.
func (s *Scheduler) RunAll(ctx context.Context, name string, run func(ctx context.Context, condoID string) error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	ids, err := s.jobs.CondominiumIDs(ctx)
	if err != nil {
		s.log.WithField("job", name).Errorf("Failed to list condominiums: %v", err)
		return
	}
	failed := 0
	for _, id := range ids {
		if err := run(ctx, id); err != nil {
			failed++
			s.log.WithFields(logrus.Fields{
				"job":            name,
				"condominium_id": id,
			}).Errorf("Job failed: %v", err)
		}
	}
	s.log.WithFields(logrus.Fields{
		"job":          name,
		"condominiums": len(ids),
		"failed":       failed,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Job finished")
}

func (s *Scheduler) fees(ctx context.Context, condoID string) error {
	run, err := s.jobs.GenerateMonthlyFees(ctx, condoID)
	if err != nil {
		return err
	}
	if len(run.Failed) > 0 {
		return fmt.Errorf("monthly fee failed for units %v", run.Failed)
	}
	return nil
}

func (s *Scheduler) overdue(ctx context.Context, condoID string) error {
	_, err := s.jobs.MarkOverdue(ctx, condoID, time.Now())
	return err
}

// reconcile only reports; the service logs what it finds
func (s *Scheduler) reconcile(ctx context.Context, condoID string) error {
	_, err := s.jobs.ReconcileInvoices(ctx, condoID)
	return err
}

func (s *Scheduler) reminders(ctx context.Context, condoID string) error {
	_, err := s.jobs.SendBalanceReminders(ctx, condoID)
	return err
}

// cronLogger routes cron's own messages to logrus
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
