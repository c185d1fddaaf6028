package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry records one balance delta applied on behalf of a transaction.
type Entry struct {
	CreatedAt              time.Time
	ID                     string
	AccountID              string
	TransactionID          string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}

// Leg is a single balance delta inside an atomic multi-account write.
type Leg struct {
	AccountID string
	Delta     decimal.Decimal
}
