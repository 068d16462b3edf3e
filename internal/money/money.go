// Package money provides exact decimal amounts with an attached
// currency. All monetary arithmetic in this codebase goes through this
// package; floats are never used for money.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a statement prints bare amounts.
const DefaultCurrency = "USD"

// Money is an exact amount in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Zero returns a zero amount in the default currency.
func Zero() Money {
	return Money{Amount: decimal.Zero, Currency: DefaultCurrency}
}

// New builds a Money from an integer number of cents.
func New(cents int64, currency string) Money {
	return Money{Amount: decimal.New(cents, -2), Currency: currency}
}

// Parse converts strings like "1,234.56", "$25.99", "-£1,234.56" or
// "25.99 USD" into a Money. A trailing currency code overrides the
// default. Statements sometimes print the sign detached ("- 45.00"),
// so interior whitespace after a leading minus is tolerated.
func Parse(s string) (Money, error) {
	currency := DefaultCurrency

	s = strings.TrimSpace(s)
	if fields := strings.Fields(s); len(fields) == 2 && isCurrencyCode(fields[1]) {
		currency = fields[1]
		s = fields[0]
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range []string{"$", "£", "£", "€", "€"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("bad amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return Money{Amount: d, Currency: currency}, nil
}

// MustParse is Parse for amounts that are known-good literals (tests,
// generated defaults). It panics on error.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Add returns m + o. Mixing currencies is a programming error and panics.
func (m Money) Add(o Money) Money {
	m.checkCurrency(o)
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.currencyOr(o)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	m.checkCurrency(o)
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.currencyOr(o)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Equal reports cent-exact equality. Currencies must match for two
// non-zero amounts to be equal.
func (m Money) Equal(o Money) bool {
	if m.Amount.IsZero() && o.Amount.IsZero() {
		return true
	}
	return m.currencyOr(o) == o.currencyOr(m) && m.Amount.Equal(o.Amount)
}

// Cmp returns -1, 0, or 1 comparing m to o by amount.
func (m Money) Cmp(o Money) int {
	return m.Amount.Cmp(o.Amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String renders like "1234.56 USD" with two decimal places.
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.currencyOr(Money{})
}

// Format renders just the numeric part, two decimal places.
func (m Money) Format() string {
	return m.Amount.StringFixed(2)
}

func (m Money) currencyOr(o Money) string {
	if m.Currency != "" {
		return m.Currency
	}
	if o.Currency != "" {
		return o.Currency
	}
	return DefaultCurrency
}

func (m Money) checkCurrency(o Money) {
	if m.Currency != "" && o.Currency != "" && m.Currency != o.Currency &&
		!m.Amount.IsZero() && !o.Amount.IsZero() {
		panic(fmt.Sprintf("currency mismatch: %s vs %s", m.Currency, o.Currency))
	}
}

// Sum adds a list of amounts, returning Zero for an empty list.
func Sum(ms []Money) Money {
	total := Zero()
	for _, m := range ms {
		total = total.Add(m)
	}
	return total
}
