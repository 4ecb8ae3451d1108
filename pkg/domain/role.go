package domain

import dErrors "pesa/pkg/domain-errors"

// Role identifies what an account is allowed to do.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	// RoleCustomer holds a wallet and initiates transfers and requests.
	RoleCustomer Role = "customer"
	// RoleAgent is the counterparty for cash-in/cash-out requests.
	RoleAgent Role = "agent"
	// RoleApprover manages account lifecycle, resources, and asset checkouts.
	RoleApprover Role = "approver"
)

var validRoles = map[Role]bool{
	RoleCustomer: true,
	RoleAgent:    true,
	RoleApprover: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}
