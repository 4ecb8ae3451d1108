package models

import (
	"time"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

// TransactionKind classifies a settled funds or stock movement.
type TransactionKind string

const (
	KindSendMoney     TransactionKind = "send-money"
	KindCashIn        TransactionKind = "cash-in"
	KindCashOut       TransactionKind = "cash-out"
	KindAssetCheckout TransactionKind = "asset-checkout"
	KindAssetReturn   TransactionKind = "asset-return"
	KindBonus         TransactionKind = "bonus"
)

// Transaction is an immutable record of a settled movement. From and To are
// the debited and credited accounts; for asset movements Amount counts units
// and Fee is always zero. RequestID links resolutions back to the workflow
// request that produced them.
type Transaction struct {
	ID        domain.TransactionID `json:"id"`
	Kind      TransactionKind      `json:"kind"`
	Amount    int64                `json:"amount"`
	Fee       int64                `json:"fee"`
	From      domain.AccountID     `json:"from"`
	To        domain.AccountID     `json:"to"`
	RequestID domain.RequestID     `json:"request_id,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// FeePolicy computes the flat fee charged on peer transfers. Amounts at or
// below the threshold move free of charge.
type FeePolicy struct {
	Threshold int64
	Flat      int64
}

// DefaultFeePolicy charges 5 units on transfers above 100.
var DefaultFeePolicy = FeePolicy{Threshold: 100, Flat: 5}

// FeeFor returns the fee for a transfer of amount.
func (p FeePolicy) FeeFor(amount int64) int64 {
	if amount > p.Threshold {
		return p.Flat
	}
	return 0
}

// NewTransaction validates and constructs a settled transaction record.
func NewTransaction(id domain.TransactionID, kind TransactionKind, amount, fee int64, from, to domain.AccountID, now time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount must be positive")
	}
	if fee < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fee must not be negative")
	}
	if from.IsNil() || to.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "both parties are required")
	}
	if from == to {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cannot transact with self")
	}
	return &Transaction{
		ID:        id,
		Kind:      kind,
		Amount:    amount,
		Fee:       fee,
		From:      from,
		To:        to,
		CreatedAt: now,
	}, nil
}
