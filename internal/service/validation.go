package service

import (
	"strings"
	"time"

	"ancillary-api/internal/model"

	"github.com/shopspring/decimal"
)

// normaliseCurrency upper-cases the code and falls back to the default currency.
func normaliseCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return model.DefaultCurrency
	}
	return code
}

// validateCurrency accepts an empty code or three ASCII letters.
func validateCurrency(code string) error {
	code = normaliseCurrency(code)
	if len(code) != 3 {
		return model.NewValidationError(model.ErrCodeInvalidCurrency, "Currency must be a 3-letter code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return model.NewValidationError(model.ErrCodeInvalidCurrency, "Currency must be a 3-letter code")
		}
	}
	return nil
}

// validateRange rejects inverted bounds in search criteria.
func validateRange(minAmount, maxAmount *decimal.Decimal, after, before *time.Time) error {
	if minAmount != nil && maxAmount != nil && minAmount.GreaterThan(*maxAmount) {
		return model.NewValidationError(model.ErrCodeInvalidCriteria, "Minimum amount must not exceed maximum amount")
	}
	if after != nil && before != nil && after.After(*before) {
		return model.NewValidationError(model.ErrCodeInvalidCriteria, "createdAfter must not be later than createdBefore")
	}
	return nil
}
