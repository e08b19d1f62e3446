// Package report reads and writes the CSV files exchanged with administrators.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// DebtorRow is one line of the debtor report
type DebtorRow struct {
	Unit    string `csv:"Unidad"`
	Owner   string `csv:"Propietario"`
	Status  string `csv:"Estado"`
	Balance string `csv:"Saldo"`
}

// WriteDebtors writes the rows with a header line
func WriteDebtors(w io.Writer, rows []DebtorRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write debtor report: %w", err)
	}
	return nil
}

// SupplierRow is one line of a supplier import file
type SupplierRow struct {
	Name     string `csv:"Nombre"`
	RNC      string `csv:"RNC"`
	Contact  string `csv:"Contacto"`
	Phone    string `csv:"Telefono"`
	Email    string `csv:"Email"`
	Category string `csv:"Categoria"`
}

// ReadSuppliers parses a supplier import file. Rows without a name are
// dropped.
func ReadSuppliers(r io.Reader) ([]SupplierRow, error) {
	var rows []SupplierRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read supplier file: %w", err)
	}
	out := rows[:0]
	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.RNC = strings.TrimSpace(row.RNC)
		if row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
