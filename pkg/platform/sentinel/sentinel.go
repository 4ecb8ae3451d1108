package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors without knowing
// which backing implementation produced them.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrAlreadyUsed: a uniqueness constraint was hit (phone, email)
//   - ErrInvalidState: entity in the wrong state for the requested transition
//   - ErrInsufficient: a balance or quantity would go negative
//   - ErrInconsistent: a multi-step mutation was partially applied; must be
//     escalated, never retried blindly
//   - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrInsufficient = errors.New("insufficient")
	ErrInconsistent = errors.New("inconsistent state")
	ErrUnavailable  = errors.New("unavailable")
)
