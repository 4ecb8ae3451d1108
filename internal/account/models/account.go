package models

import (
	"strings"
	"time"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

// Account is the aggregate root for a balance-holding identity.
//
// Invariants:
//   - Name, Email and Phone are non-empty; Email and Phone are unique
//     (enforced by the store)
//   - Role is one of customer, agent, approver
//   - Status transitions: pending → approved, {pending, approved} → blocked,
//     blocked → approved; nothing else
//   - Balance is only mutated through the ledger and workflow services, never
//     written directly by transport code
//   - The one-time welcome bonus is granted at first activation only;
//     BonusGranted guards re-activation after a block
type Account struct {
	ID           domain.AccountID `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Role         domain.Role      `json:"role"`
	Status       Status           `json:"status"`
	Balance      int64            `json:"balance"`
	PINHash      string           `json:"-"`
	BonusGranted bool             `json:"-"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Status is the account lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusBlocked  Status = "blocked"
)

var statusTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusBlocked},
	StatusApproved: {StatusBlocked},
	StatusBlocked:  {StatusApproved},
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NewAccount constructs a pending account with zero balance.
func NewAccount(id domain.AccountID, name, email, phone string, role domain.Role, pinHash string, now time.Time) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account name is required")
	}
	if email == "" || phone == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email and phone are required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	if pinHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pin hash is required")
	}
	return &Account{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Role:      role,
		Status:    StatusPending,
		Balance:   0,
		PINHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsBlocked reports whether the account may not move funds.
func (a *Account) IsBlocked() bool {
	return a.Status == StatusBlocked
}

// CanActivate checks the pending/blocked → approved transition.
// Use with ApplyActivation under the store's transactional boundary.
func (a *Account) CanActivate() error {
	if !a.Status.CanTransitionTo(StatusApproved) {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already active")
	}
	return nil
}

// ApplyActivation transitions the account to approved and returns the welcome
// bonus to credit: non-zero only on the first activation.
func (a *Account) ApplyActivation(now time.Time) int64 {
	a.Status = StatusApproved
	a.UpdatedAt = now
	if a.BonusGranted {
		return 0
	}
	a.BonusGranted = true
	bonus := WelcomeBonus(a.Role)
	a.Balance += bonus
	return bonus
}

// CanBlock checks the → blocked transition.
func (a *Account) CanBlock() error {
	if !a.Status.CanTransitionTo(StatusBlocked) {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already blocked")
	}
	return nil
}

// ApplyBlock transitions the account to blocked.
func (a *Account) ApplyBlock(now time.Time) {
	a.Status = StatusBlocked
	a.UpdatedAt = now
}

// WelcomeBonus is the one-time credit granted at first activation, in the
// smallest currency unit.
func WelcomeBonus(role domain.Role) int64 {
	switch role {
	case domain.RoleCustomer:
		return 40
	case domain.RoleAgent:
		return 10000
	default:
		return 0
	}
}
