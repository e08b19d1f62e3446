package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
)

// SendCommunication e-mails a communication to its audience and records when
// it was sent
func (s *Service) SendCommunication(ctx context.Context, condoID, id string) (*models.Communication, error) {
	if s.notifier == nil {
		return nil, ErrNotifierDisabled
	}
	condo, err := s.store.Condominiums().Get(ctx, condoID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Communications().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	units, err := s.store.Units().List(ctx, condoID)
	if err != nil {
		return nil, err
	}

	to := Recipients(units, c.Audience)
	if len(to) > 0 {
		if err := s.notifier.SendCommunication(ctx, to, condo, c); err != nil {
			return nil, fmt.Errorf("failed to send communication: %w", err)
		}
	}

	sent := s.now()
	c.SentAt = &sent
	if err := s.store.Communications().Update(ctx, condoID, id, c); err != nil {
		return nil, err
	}
	s.condoLog(condoID).Infof("Communication %q sent to %d recipients", c.Title, len(to))
	return &c, nil
}

// Recipients collects the distinct e-mail addresses of an audience. Owners
// and tenants count for todos, and so do payment responsibles.
func Recipients(units []*models.Unit, audience models.Audience) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p *models.Person) {
		if p == nil {
			return
		}
		addr := strings.ToLower(strings.TrimSpace(p.Email))
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}
	for _, u := range units {
		if audience == models.AudienceEveryone || audience == models.AudienceOwners {
			add(&u.Owner)
		}
		if audience == models.AudienceEveryone || audience == models.AudienceTenants {
			add(u.Occupation.Tenant)
		}
		if audience == models.AudienceEveryone {
			for i := range u.PaymentResponsibles {
				add(&u.PaymentResponsibles[i])
			}
		}
	}
	return out
}

// SendBalanceReminders e-mails the owner of every unit that owes. It returns
// how many reminders went out; units without an owner e-mail are skipped.
func (s *Service) SendBalanceReminders(ctx context.Context, condoID string) (int, error) {
	if s.notifier == nil {
		return 0, ErrNotifierDisabled
	}
	condo, err := s.store.Condominiums().Get(ctx, condoID)
	if err != nil {
		return 0, err
	}
	units, err := s.store.Units().List(ctx, condoID)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, u := range units {
		movs, err := s.store.Units().ListMovements(ctx, condoID, u.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		balance := ledger.Balance(movs)
		if ledger.Classify(balance) != ledger.Owes || strings.TrimSpace(u.Owner.Email) == "" {
			continue
		}
		if err := s.notifier.SendBalanceReminder(ctx, u.Owner.Email, condo, u, balance); err != nil {
			errs = append(errs, fmt.Errorf("unit %s: %w", u.UnitNumber, err))
			continue
		}
		sent++
	}
	s.condoLog(condoID).Infof("Balance reminders sent: %d", sent)
	if len(errs) > 0 {
		return sent, fmt.Errorf("failed to send %d reminders: %w", len(errs), errors.Join(errs...))
	}
	return sent, nil
}
