package dto

import "github.com/shopspring/decimal"

// Money is a decimal amount that goes out as a JSON number (60.5) instead of
// decimal's default quoted string. Decoding accepts both forms.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}
