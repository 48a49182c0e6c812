package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// DefaultCurrency is what the ledger falls back to when no account exists.
const DefaultCurrency = CurrencyEUR

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

// minorDigits is the ISO-4217 minor unit exponent. All supported
// currencies use two decimal places.
func (c Currency) minorDigits() int32 { return 2 }

// Money is a monetary value held as an exact count of the currency's
// minor unit (cents). Arithmetic never passes through floating point;
// Format output is for display only.
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

func NewMoney(amount int64, cur Currency) Money {
	return Money{Amount: amount, Currency: cur}
}

// EUR builds a euro amount from cents.
func EUR(cents int64) Money { return Money{Amount: cents, Currency: CurrencyEUR} }

func ZeroMoney(cur Currency) Money { return Money{Amount: 0, Currency: cur} }

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("Add: %s + %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("Subtract: %s - %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }

func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor renders the amount in major units without a currency
// symbol, e.g. 1234 EUR cents -> "12.34".
func (m Money) FormatMajor() string {
	return decimal.New(m.Amount, -m.Currency.minorDigits()).StringFixed(m.Currency.minorDigits())
}

// Format renders a locale-aware currency string for display, e.g.
// Format("en") on 1234 EUR cents -> "€12.34". Falls back to
// "<CODE> <major>" when the locale or currency is unknown, or when the
// amount does not survive the printer's float64 representation intact.
func (m Money) Format(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return string(m.Currency) + " " + m.FormatMajor()
	}
	unit, err := currency.ParseISO(string(m.Currency))
	if err != nil {
		return string(m.Currency) + " " + m.FormatMajor()
	}
	major, exact := decimal.New(m.Amount, -m.Currency.minorDigits()).Float64()
	if !exact {
		return string(m.Currency) + " " + m.FormatMajor()
	}
	return message.NewPrinter(tag).Sprintf("%v", currency.Symbol(unit.Amount(major)))
}

// ParseMajor converts a decimal major-unit string such as "12.34" into
// Money, exact to the minor unit. Sub-cent precision is rejected.
func ParseMajor(value string, cur Currency) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("ParseMajor: %q: %w", value, ErrInvalidAmount)
	}
	minor := d.Shift(cur.minorDigits())
	if !minor.IsInteger() {
		return Money{}, fmt.Errorf("ParseMajor: %q has sub-minor-unit precision: %w", value, ErrInvalidAmount)
	}
	return Money{Amount: minor.IntPart(), Currency: cur}, nil
}

func (m Money) String() string {
	return string(m.Currency) + " " + m.FormatMajor()
}
