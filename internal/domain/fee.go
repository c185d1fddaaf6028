package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary precision. Every amount is normalised to this many fractional digits.
const AmountScale = 2

// FeePolicy computes the fee for a movement. Implementations must be pure.
type FeePolicy interface {
	Fee(t TransactionType, amount decimal.Decimal) decimal.Decimal
	Version() string
}

var (
	// MinSendAmount is the smallest amount SendMoney accepts.
	MinSendAmount = decimal.NewFromInt(50)

	cashOutRate        = decimal.RequireFromString("0.015")
	sendMoneyFeeAbove  = decimal.NewFromInt(100)
	sendMoneyFlatFee   = decimal.NewFromInt(5)
	defaultFeePolicies = map[string]FeePolicy{
		FeeScheduleV1{}.Version(): FeeScheduleV1{},
	}
)

// FeeScheduleV1: cash-in is free, cash-out costs 1.5%, sending more than 100
// costs a flat 5.
type FeeScheduleV1 struct{}

// Version implements FeePolicy.
func (FeeScheduleV1) Version() string { return "v1" }

// Fee implements FeePolicy.
func (FeeScheduleV1) Fee(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TransactionCashOut:
		return amount.Mul(cashOutRate).Round(AmountScale)
	case TransactionSendMoney:
		if amount.GreaterThan(sendMoneyFeeAbove) {
			return sendMoneyFlatFee
		}
	}
	return decimal.Zero
}

// FeePolicyByVersion returns the registered policy for version.
func FeePolicyByVersion(version string) (FeePolicy, error) {
	p, ok := defaultFeePolicies[version]
	if !ok {
		return nil, fmt.Errorf("unknown fee policy version %q", version)
	}
	return p, nil
}

// NormalizeAmount rounds amount to the ledger precision.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountScale)
}
