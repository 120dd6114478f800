package models

import (
	"errors"
	"fmt"
)

// DefaultCurrency is the ISO 4217 code used when none is given.
const DefaultCurrency = "BRL"

var (
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrNegativeResult   = errors.New("arithmetic result would be negative")
	ErrNegativeFactor   = errors.New("multiplication factor cannot be negative")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money is a fixed-point monetary value held in minor units (centavos).
// All arithmetic is integer arithmetic; no value ever passes through a float.
type Money struct {
	Amount   int64  `json:"amount" db:"amount"` // minor units
	Currency string `json:"currency" db:"currency"`
}

// NewMoney builds a Money from a non-negative minor-unit amount.
// An empty currency defaults to BRL.
func NewMoney(minorUnits int64, currency string) (Money, error) {
	if minorUnits < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, minorUnits)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: minorUnits, Currency: currency}, nil
}

// MustMoney is NewMoney for statically known amounts; panics on invalid input.
func MustMoney(minorUnits int64, currency string) Money {
	m, err := NewMoney(minorUnits, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: 0, Currency: currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub fails with ErrNegativeResult instead of producing a negative value.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if m.Amount < other.Amount {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrNegativeResult, m.Amount, other.Amount)
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) MulInt(factor int64) (Money, error) {
	if factor < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeFactor, factor)
	}
	return Money{Amount: m.Amount * factor, Currency: m.Currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount == other.Amount
}

// Cmp returns -1, 0 or 1; comparing across currencies is an error.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < other.Amount:
		return -1, nil
	case m.Amount > other.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) GreaterOrEqual(other Money) (bool, error) {
	c, err := m.Cmp(other)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// String renders the amount with exactly two decimals ("25.50"), the form
// the PIX transaction-amount field requires.
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.Amount/100, m.Amount%100)
}
