package ledger

import (
	"fmt"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
)

// Summary holds the figures of the finances dashboard
type Summary struct {
	Income            decimal.Decimal `json:"income"`   // current month
	Expenses          decimal.Decimal `json:"expenses"` // current month
	ReconciledBalance decimal.Decimal `json:"reconciled_balance"`
	ToCollect         decimal.Decimal `json:"to_collect"`
	ToPay             decimal.Decimal `json:"to_pay"`
}

// Summarize computes the dashboard figures. unitBalances are the folded
// balances of every unit; only those that owe count towards ToCollect.
func Summarize(manualBalance decimal.Decimal, txns []models.Transaction, invoices []models.Invoice, unitBalances []decimal.Decimal, now time.Time) Summary {
	s := Summary{
		Income:            decimal.Zero,
		Expenses:          decimal.Zero,
		ReconciledBalance: manualBalance,
		ToCollect:         decimal.Zero,
		ToPay:             decimal.Zero,
	}

	current := models.PeriodOf(now)
	for _, t := range txns {
		s.ReconciledBalance = s.ReconciledBalance.Add(t.Signed())
		if models.PeriodOf(t.Date.In(now.Location())) != current {
			continue
		}
		if t.Type == models.TransactionIncome {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expenses = s.Expenses.Add(t.Amount)
		}
	}

	for _, inv := range invoices {
		if inv.Status.Outstanding() {
			s.ToPay = s.ToPay.Add(inv.Amount)
		}
	}

	for _, b := range unitBalances {
		if b.IsPositive() {
			s.ToCollect = s.ToCollect.Add(b)
		}
	}
	return s
}

// MonthFlow is the income and expense total of one calendar month
type MonthFlow struct {
	Month    string          `json:"month"` // YYYY-MM
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Cashflow buckets transactions into the last n calendar months up to and
// including the month of now, oldest first. Transactions outside the window
// are ignored.
func Cashflow(txns []models.Transaction, n int, now time.Time) []MonthFlow {
	if n <= 0 {
		return []MonthFlow{}
	}

	flows := make([]MonthFlow, n)
	index := make(map[models.Period]int, n)
	p := models.PeriodOf(now)
	for i := n - 1; i >= 0; i-- {
		flows[i] = MonthFlow{
			Month:    p.Key(),
			Label:    fmt.Sprintf("%s %d", shortMonthName(p.Month), p.Year),
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		}
		index[p] = i
		p = models.PeriodOf(p.Start().AddDate(0, -1, 0))
	}

	for _, t := range txns {
		i, ok := index[models.PeriodOf(t.Date.In(now.Location()))]
		if !ok {
			continue
		}
		if t.Type == models.TransactionIncome {
			flows[i].Income = flows[i].Income.Add(t.Amount)
		} else {
			flows[i].Expenses = flows[i].Expenses.Add(t.Amount)
		}
	}
	return flows
}
