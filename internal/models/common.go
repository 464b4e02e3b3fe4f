package models

import (
	"github.com/shopspring/decimal"
)

// Money rounds a decimal amount to cents for presentation
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// stringValue safely dereferences an optional string
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
