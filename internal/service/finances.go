package service

import (
	"context"
	"strings"

	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultCashflowMonths = 6
	MaxCashflowMonths     = 24
)

// AddTransaction records a manual entry in the condominium's ledger
func (s *Service) AddTransaction(ctx context.Context, condoID string, params models.TransactionParams) (*models.Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	date := params.Date
	if date.IsZero() {
		date = s.now()
	}
	t := &models.Transaction{
		ID:            newID(),
		CondominiumID: condoID,
		Date:          date,
		Description:   strings.TrimSpace(params.Description),
		Type:          params.Type,
		Category:      params.Category,
		Amount:        params.Amount,
		Reference:     params.Reference,
	}
	if err := s.store.Transactions().Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// TransactionHistory returns the ledger with the running balance from the
// condominium's manual balance, newest first
func (s *Service) TransactionHistory(ctx context.Context, condoID string) ([]ledger.HistoryEntry, error) {
	c, err := s.store.Condominiums().Get(ctx, condoID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	return ledger.TransactionHistory(c.ManualBalance, txns), nil
}

// FinanceSummary builds the dashboard figures for the current month
func (s *Service) FinanceSummary(ctx context.Context, condoID string) (*ledger.Summary, error) {
	c, err := s.store.Condominiums().Get(ctx, condoID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	invs, err := s.store.Invoices().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	invoices := make([]models.Invoice, 0, len(invs))
	for _, inv := range invs {
		invoices = append(invoices, *inv)
	}
	receivables, err := s.Receivables(ctx, condoID)
	if err != nil {
		return nil, err
	}
	balances := make([]decimal.Decimal, 0, len(receivables))
	for _, r := range receivables {
		balances = append(balances, r.Balance)
	}
	summary := ledger.Summarize(c.ManualBalance, txns, invoices, balances, s.now())
	return &summary, nil
}

// Cashflow returns monthly income and expenses for the last months, oldest
// first. A non-positive months means 6; more than 24 is capped.
func (s *Service) Cashflow(ctx context.Context, condoID string, months int) ([]ledger.MonthFlow, error) {
	if months <= 0 {
		months = DefaultCashflowMonths
	}
	if months > MaxCashflowMonths {
		months = MaxCashflowMonths
	}
	if _, err := s.store.Condominiums().Get(ctx, condoID); err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	return ledger.Cashflow(txns, months, s.now()), nil
}
