package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept on computed amounts.
const MoneyScale int32 = 4

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Amount prices a volume: quantity x unitPrice, rounded to MoneyScale digits.
func Amount(q Quantity, unitPrice Money) Money {
	return q.Decimal().Mul(unitPrice).Round(MoneyScale)
}
