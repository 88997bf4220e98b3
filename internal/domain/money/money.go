// Package money provides the fixed-point Money value used for every balance,
// debt and price in the ledger. Amounts never pass through floating point.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is one of the two currencies the business trades in
type Currency string

const (
	UZS Currency = "UZS"
	USD Currency = "USD"
)

// Scale is the number of fractional digits kept after conversions
const Scale int32 = 2

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidRate      = errors.New("conversion rate must be positive")
)

// Currencies lists every supported currency in a stable order
func Currencies() []Currency {
	return []Currency{UZS, USD}
}

// IsValid reports whether c is a supported currency
func (c Currency) IsValid() bool {
	return c == UZS || c == USD
}

// ParseCurrency validates a currency code
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// Money is an immutable decimal amount tagged with its currency.
// Negative amounts are allowed and represent debits.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates Money from a decimal amount
func New(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNew is New for literals known to be valid
func MustNew(amount string, currency Currency) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse creates Money from a decimal string such as "126500.00"
func Parse(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return New(d, currency)
}

// Zero returns a zero amount in the given currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Add returns m + other; both must share a currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch(m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other; both must share a currency
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch(m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Cmp compares two amounts of the same currency (-1, 0, +1)
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, mismatch(m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether both values carry the same currency and amount
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Times multiplies by an integer quantity
func (m Money) Times(quantity int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(quantity)), currency: m.currency}
}

// Neg flips the sign
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Clamp bounds m to [lo, hi]; all three must share a currency
func (m Money) Clamp(lo, hi Money) (Money, error) {
	if m.currency != lo.currency || m.currency != hi.currency {
		return Money{}, mismatch(m.currency, lo.currency)
	}
	switch {
	case m.amount.LessThan(lo.amount):
		return lo, nil
	case m.amount.GreaterThan(hi.amount):
		return hi, nil
	}
	return m, nil
}

// Convert expresses m in the target currency using a UZS-per-USD rate:
// USD→UZS multiplies by rate, UZS→USD divides by rate.
// Converting to the same currency returns m unchanged.
func (m Money) Convert(to Currency, rate decimal.Decimal) (Money, error) {
	if !to.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, to)
	}
	if to == m.currency {
		return m, nil
	}
	if !rate.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	var converted decimal.Decimal
	if m.currency == USD && to == UZS {
		converted = m.amount.Mul(rate)
	} else {
		converted = m.amount.DivRound(rate, Scale)
	}
	return Money{amount: converted.Round(Scale), currency: to}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Scale), m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON encodes the amount as a string to keep it exact
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON decodes {"amount":"10.50","currency":"USD"}
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := Parse(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func mismatch(a, b Currency) error {
	return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a, b)
}
