package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a bank-agnostic row produced by a source adapter.
type Transaction struct {
	AccountID string // IBAN or bank account number
	Text      string
	Date      time.Time
	Amount    decimal.Decimal // negative = expense, positive = income
	Currency  string
}
