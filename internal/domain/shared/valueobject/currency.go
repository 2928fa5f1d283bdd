package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
	PLN Currency = "PLN"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
	BHD Currency = "BHD"
	KWD Currency = "KWD"
	OMR Currency = "OMR"
	TND Currency = "TND"
)

// DefaultCurrency is used when an order does not name one
const DefaultCurrency = EUR

// minorUnitExponents lists currencies whose minor unit is not 1/100
var minorUnitExponents = map[Currency]int32{
	JPY: 0,
	KRW: 0,
	BHD: 3,
	KWD: 3,
	OMR: 3,
	TND: 3,
}

// ParseCurrency normalizes a three-letter currency code
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return DefaultCurrency, nil
	}
	if len(c) != 3 {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	return Currency(c), nil
}

// Exponent returns the number of decimal places of the currency's minor unit
func (c Currency) Exponent() int32 {
	if exp, ok := minorUnitExponents[c]; ok {
		return exp
	}
	return 2
}

// MinorUnit returns the smallest representable amount, e.g. 0.01 for EUR
func (c Currency) MinorUnit() decimal.Decimal {
	return decimal.New(1, -c.Exponent())
}

// Round rounds an amount to the currency's minor unit
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Exponent())
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}
