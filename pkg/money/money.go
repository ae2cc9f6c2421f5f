// Package money converts decimal amounts to the integer minor units payment
// gateways expect.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// PriceScale is the number of decimal places persisted for prices and totals.
const PriceScale = 2

var exponents = map[enums.Currency]int32{
	enums.CurrencyINR: 2,
	enums.CurrencyUSD: 2,
	enums.CurrencyEUR: 2,
	enums.CurrencyGBP: 2,
	enums.CurrencyJPY: 0,
	enums.CurrencyKWD: 3,
	enums.CurrencyBHD: 3,
}

// Exponent returns the number of minor-unit digits for the currency.
func Exponent(currency enums.Currency) (int32, error) {
	exp, ok := exponents[currency]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", currency)
	}
	return exp, nil
}

// ToMinorUnits converts amount to the smallest unit of currency. Amounts that
// carry precision below the minor unit are rejected instead of rounded.
func ToMinorUnits(amount decimal.Decimal, currency enums.Currency) (int64, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return 0, err
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s must not be negative", amount)
	}

	minor := amount.Shift(exp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more precision than %s allows", amount, currency)
	}
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency enums.Currency) (decimal.Decimal, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(minor, -exp), nil
}

// HasPriceScale reports whether amount fits the persisted price precision.
func HasPriceScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(PriceScale))
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Format renders amount with the currency's minor-unit digits, e.g. "150.00 INR".
func Format(amount decimal.Decimal, currency enums.Currency) string {
	exp, err := Exponent(currency)
	if err != nil {
		exp = PriceScale
	}
	return amount.StringFixed(exp) + " " + currency.String()
}
