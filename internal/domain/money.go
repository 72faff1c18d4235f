package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CNY Currency = "CNY"
	HKD Currency = "HKD"
	SGD Currency = "SGD"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
	KRW Currency = "KRW"
	KWD Currency = "KWD"
)

// currencyDecimals lists every supported currency with its minor unit precision.
var currencyDecimals = map[Currency]int32{
	USD: 2, EUR: 2, GBP: 2, JPY: 0,
	CNY: 2, HKD: 2, SGD: 2, AUD: 2,
	CAD: 2, CHF: 2, KRW: 0, KWD: 3,
	"SEK": 2, "NZD": 2, "NOK": 2, "DKK": 2,
	"MXN": 2, "INR": 2, "BRL": 2, "ZAR": 2,
	"RUB": 2, "TRY": 2, "PLN": 2, "THB": 2,
	"TWD": 2, "VND": 0, "CLP": 0, "ISK": 0,
	"BHD": 3, "OMR": 3, "JOD": 3, "TND": 3,
}

var currencyAliases = map[string]Currency{
	"RMB": CNY,
}

// ParseCurrency normalises a currency code and checks that it is supported.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := currencyAliases[code]; ok {
		return alias, nil
	}

	c := Currency(code)
	if _, ok := currencyDecimals[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}

	return c, nil
}

// DecimalPlaces returns the number of minor unit digits for the currency.
func (c Currency) DecimalPlaces() int32 {
	if places, ok := currencyDecimals[c]; ok {
		return places
	}
	return 2
}

// IsSupported reports whether the currency is in the supported table.
func (c Currency) IsSupported() bool {
	_, ok := currencyDecimals[c]
	return ok
}

func (c Currency) String() string {
	return string(c)
}

// Money is an exact decimal amount tagged with its currency.
// The amount never carries more precision than the currency allows.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney builds a Money value, rejecting amounts more precise than the currency.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsSupported() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	places := currency.DecimalPlaces()
	if !amount.Equal(amount.Truncate(places)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places for %s",
			ErrInvalidPrecision, amount.String(), places, currency)
	}

	return Money{Amount: amount.Round(places), Currency: currency}, nil
}

// NewMoneyRounded builds a Money value, rounding half-to-even to the currency precision.
func NewMoneyRounded(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsSupported() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	return Money{Amount: amount.RoundBank(currency.DecimalPlaces()), Currency: currency}, nil
}

// ParseMoney parses a decimal string into Money.
func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return NewMoney(d, currency)
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero.Round(currency.DecimalPlaces()), Currency: currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.Amount.Add(other.Amount)), nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.Amount.Sub(other.Amount)), nil
}

// Mul multiplies by a factor and rounds to the currency precision.
func (m Money) Mul(factor decimal.Decimal) Money {
	return m.with(m.Amount.Mul(factor))
}

// Div divides by a divisor and rounds to the currency precision.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return m.with(m.Amount.Div(divisor)), nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// Equal reports exact equality of amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// StringFixed formats the amount with exactly the currency's decimal places.
func (m Money) StringFixed() string {
	return m.Amount.StringFixed(m.Currency.DecimalPlaces())
}

func (m Money) String() string {
	return m.StringFixed() + " " + string(m.Currency)
}

func (m Money) with(amount decimal.Decimal) Money {
	return Money{Amount: amount.RoundBank(m.Currency.DecimalPlaces()), Currency: m.Currency}
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON encodes the amount as a fixed-precision string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.StringFixed(), Currency: m.Currency})
}

// UnmarshalJSON decodes and validates a Money value.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	currency, err := ParseCurrency(string(raw.Currency))
	if err != nil {
		return err
	}

	parsed, err := ParseMoney(raw.Amount, currency)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}
