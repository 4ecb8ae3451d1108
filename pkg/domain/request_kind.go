package domain

import dErrors "pesa/pkg/domain-errors"

// RequestKind is the tagged variant discriminator for deferred requests.
// Cash kinds carry an amount; the asset kind carries a resource reference.
// Resolution dispatches on the kind exhaustively — an unknown kind is a bug,
// not a branch to fall through.
type RequestKind string

const (
	KindCashIn        RequestKind = "cash-in"
	KindCashOut       RequestKind = "cash-out"
	KindAssetCheckout RequestKind = "asset-checkout"
)

var validRequestKinds = map[RequestKind]bool{
	KindCashIn:        true,
	KindCashOut:       true,
	KindAssetCheckout: true,
}

// ParseRequestKind constructs a RequestKind from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRequestKind(s string) (RequestKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "kind cannot be empty")
	}
	k := RequestKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid request kind")
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k RequestKind) IsValid() bool {
	return validRequestKinds[k]
}

// MovesFunds reports whether resolving this kind settles a currency amount.
func (k RequestKind) MovesFunds() bool {
	return k == KindCashIn || k == KindCashOut
}

// CounterpartyRole is the role the counterparty must hold for this kind:
// agents settle cash movements, approvers manage asset inventory.
func (k RequestKind) CounterpartyRole() Role {
	if k == KindAssetCheckout {
		return RoleApprover
	}
	return RoleAgent
}
