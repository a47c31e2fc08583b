// Package core describes the native wallet library as seen by the rest of the
// application. Everything here is either a plain value or an interface that a
// native implementation (see internal/backend) satisfies.
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency identifies a currency on a network. UID is unique per system.
type Currency struct {
	UID      string `json:"uid"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

func (c Currency) String() string {
	return c.Code
}

// Amount is a value in the currency's base unit (e.g. satoshis).
type Amount struct {
	Value    int64    `json:"value"`
	Currency Currency `json:"currency"`
}

// NewAmount returns an amount of value base units of c.
func NewAmount(value int64, c Currency) Amount {
	return Amount{Value: value, Currency: c}
}

// Decimal returns the amount in whole currency units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Value, -int32(a.Currency.Decimals))
}

// Add returns a+b. Both amounts must share a currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency.UID != b.Currency.UID {
		return Amount{}, fmt.Errorf("currency mismatch: %s vs %s", a.Currency.UID, b.Currency.UID)
	}
	return Amount{Value: a.Value + b.Value, Currency: a.Currency}, nil
}

func (a Amount) IsZero() bool {
	return a.Value == 0
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(int32(a.Currency.Decimals)) + " " + a.Currency.Code
}
