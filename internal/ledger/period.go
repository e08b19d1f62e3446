package ledger

import (
	"fmt"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the capitalised Spanish name of the month
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

func shortMonthName(m time.Month) string {
	return monthNames[m-1][:3]
}

// NextPeriod returns the calendar month after the one containing now
func NextPeriod(now time.Time) models.Period {
	return models.PeriodOf(now).Next()
}

// FeeDescription is the account history label of a monthly maintenance fee
func FeeDescription(p models.Period) string {
	return fmt.Sprintf("Cuota de Mantenimiento %s %d", MonthName(p.Month), p.Year)
}
