// Package ledger folds account movements and ledger transactions into
// balances, running statements and dashboard figures. It performs no I/O.
package ledger

import (
	"sort"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
)

// Status classifies the balance of a unit account
type Status string

const (
	Owes    Status = "owes"
	Credit  Status = "credit"
	Settled Status = "settled"
)

// Label returns the Spanish label shown to residents
func (s Status) Label() string {
	switch s {
	case Owes:
		return "Debe"
	case Credit:
		return "A favor"
	default:
		return "Al día"
	}
}

// Balance sums the signed amounts of the movements
func Balance(movements []models.AccountMovement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Amount)
	}
	return total
}

// Classify maps a balance to owes (> 0), credit (< 0) or settled (== 0)
func Classify(balance decimal.Decimal) Status {
	switch balance.Sign() {
	case 1:
		return Owes
	case -1:
		return Credit
	default:
		return Settled
	}
}

// StatementEntry is a movement with the account balance right after it
type StatementEntry struct {
	models.AccountMovement
	Balance decimal.Decimal `json:"balance"`
}

// Statement replays the movements oldest to newest and returns them newest
// first, each carrying the cumulative balance at that point. Movements on the
// same date keep their relative input order during the replay.
func Statement(movements []models.AccountMovement) []StatementEntry {
	ordered := make([]models.AccountMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	entries := make([]StatementEntry, len(ordered))
	running := decimal.Zero
	for i, m := range ordered {
		running = running.Add(m.Amount)
		entries[len(ordered)-1-i] = StatementEntry{AccountMovement: m, Balance: running}
	}
	return entries
}

// HistoryEntry is a ledger transaction with the condominium balance right after it
type HistoryEntry struct {
	models.Transaction
	Balance decimal.Decimal `json:"balance"`
}

// TransactionHistory is Statement for the global ledger, starting from the
// opening balance. Income adds and expenses subtract.
func TransactionHistory(initial decimal.Decimal, txns []models.Transaction) []HistoryEntry {
	ordered := make([]models.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	entries := make([]HistoryEntry, len(ordered))
	running := initial
	for i, t := range ordered {
		running = running.Add(t.Signed())
		entries[len(ordered)-1-i] = HistoryEntry{Transaction: t, Balance: running}
	}
	return entries
}
