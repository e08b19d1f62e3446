package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports an invalid field in a create or update payload
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// checkCents rejects amounts with more than two decimal places, the scale
// every store keeps money in
func checkCents(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}
