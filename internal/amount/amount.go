// Package amount holds the single numeric parsing rule applied to every money
// and quantity field coming from the procurement portal.
package amount

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse turns a raw JSON value into a decimal. Absent, null, blank and
// unparsable values all become zero. The second result is false only when a
// non-blank value could not be parsed, so callers can emit a diagnostic.
func Parse(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, true
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		return ParseString(s)
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseString applies the same rule to an already unquoted string.
func ParseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Positive reports whether value is strictly greater than zero.
func Positive(value decimal.Decimal) bool {
	return value.Sign() > 0
}

// PositiveOnly returns nil unless value is strictly positive. A nil amount
// renders as "no data", distinct from a computed zero.
func PositiveOnly(value decimal.Decimal) *decimal.Decimal {
	if !Positive(value) {
		return nil
	}
	v := value
	return &v
}

// Variance returns planned - actual, defined only when both sides are
// strictly positive.
func Variance(planned, actual decimal.Decimal) *decimal.Decimal {
	if !Positive(planned) || !Positive(actual) {
		return nil
	}
	v := planned.Sub(actual)
	return &v
}
