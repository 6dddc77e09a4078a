// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. On the wire they travel as JSON decimal
// numbers; BRL formatted strings such as "R$ 1.234,56" are accepted on input.
package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an amount in centavos.
type Money struct {
	Cents int64
}

var (
	maxAmount = decimal.New(1, 13)
	// groupedThousands matches "1.500" or "12.345.678": dots as digit grouping.
	groupedThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in reais.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount as BRL, e.g. "R$1.234,56".
func (m Money) String() string {
	return FormatBRL(m.Cents)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.Cents = 0
		return nil
	}
	var (
		cents int64
		err   error
	)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return ErrInvalidAmount
		}
		cents, err = parseCents(raw)
	} else {
		// bare JSON numbers always use a decimal point
		cents, err = decimalCents(string(data))
	}
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// ParseAmount converts a user supplied amount to cents.
//
// It accepts BRL formatting ("R$ 1.234,56", "1.500", "1234,56") as well as
// plain decimals ("1234.56", "12") and rounds half-up to the cent. Dots are
// thousands separators when the amount carries the R$ symbol, a comma, or
// groups of three digits; otherwise a single dot is a decimal point. Zero,
// negative and unparseable amounts are rejected.
//
// Examples:
//
//	ParseAmount("R$ 1.234,56") -> 123456, nil
//	ParseAmount("R$ 1.500")    -> 150000, nil
//	ParseAmount("12.345")      -> 1234500, nil
//	ParseAmount("12.34")       -> 1234, nil
func ParseAmount(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	symbol := strings.HasPrefix(s, "R$")
	s = strings.TrimPrefix(s, "R$")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	if symbol || strings.Contains(s, ",") || groupedThousands.MatchString(s) {
		// BRL notation: dots group thousands, the comma is the decimal mark
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimalCents(s)
}

func decimalCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatBRL formats cents as a Brazilian real amount (e.g. "R$1.234,56").
func FormatBRL(cents int64) string {
	return money.New(cents, money.BRL).Display()
}
