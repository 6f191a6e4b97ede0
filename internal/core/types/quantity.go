// Package types provides value types shared by the ledgers.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a fuel volume in liters, fixed-point with 4 decimal places (scale = 1e4).
// Stored as a scaled BIGINT so balance arithmetic never rounds.
type Quantity int64

const QuantityScale int64 = 10_000

// maxWholeLiters is the largest integer part a Quantity can hold.
const maxWholeLiters = math.MaxInt64/QuantityScale - 1

// Liters builds a Quantity from whole liters.
func Liters(v int64) Quantity { return Quantity(v * QuantityScale) }

func NewQuantityFromFloat64(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

// ParseQuantity parses a decimal string such as "125.5".
func ParseQuantity(s string) (Quantity, error) { return parseQuantityString(s) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

// Decimal converts the quantity for monetary arithmetic.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -4)
}

// MinQuantity returns the smaller of a and b.
func MinQuantity(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

// MaxQuantity returns the larger of a and b.
func MaxQuantity(a, b Quantity) Quantity {
	if a > b {
		return a
	}
	return b
}

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number, preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	parsed, err := parseQuantityString(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func parseQuantityString(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse quantity: %w", err)
		}
		if math.IsNaN(f) || math.Abs(f) > float64(maxWholeLiters) {
			return 0, fmt.Errorf("quantity %q out of range", s)
		}
		return NewQuantityFromFloat64(f), nil
	}

	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = strings.TrimPrefix(s, "-")
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	intPartStr, fracStr, _ := strings.Cut(s, ".")
	if intPartStr == "" {
		intPartStr = "0"
	}
	intPart, err := strconv.ParseInt(intPartStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity integer part: %w", err)
	}
	if intPart < 0 {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	if intPart > maxWholeLiters {
		return 0, fmt.Errorf("quantity %q out of range", s)
	}

	// Normalize fractional part to 4 digits (pad right, truncate extra digits).
	if len(fracStr) > 4 {
		fracStr = fracStr[:4]
	}
	fracStr += strings.Repeat("0", 4-len(fracStr))
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity fractional part: %w", err)
	}
	if frac < 0 {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}

	return Quantity(sign * (intPart*QuantityScale + frac)), nil
}
