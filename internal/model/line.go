package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentNone is the HomeBank payment type used for every exported line.
const PaymentNone = 0

// AccountingLine is a classified transaction ready for export.
type AccountingLine struct {
	Date     time.Time
	Payment  int    // HomeBank payment type, always PaymentNone here
	Info     string
	Payee    string
	Memo     string
	Amount   decimal.Decimal
	Category string
	Tags     []string
}

// IsIncome reports whether the line carries a strictly positive amount.
func (l AccountingLine) IsIncome() bool {
	return l.Amount.IsPositive()
}

// TagString joins tags the way HomeBank expects them (space separated).
func (l AccountingLine) TagString() string {
	return strings.Join(l.Tags, " ")
}
