package audit

import (
	"time"

	"pesa/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time        `json:"timestamp"`
	AccountID domain.AccountID `json:"account_id"`
	// Actor tracks who performed the action when different from AccountID,
	// e.g. an approver resolving a customer's request.
	Actor     string `json:"actor,omitempty"`
	Action    string `json:"action"`
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Action names. Services emit these; dashboards and retention policies key
// off them, so treat the strings as a public contract.
const (
	ActionAccountRegistered = "account_registered"
	ActionAccountActivated  = "account_activated"
	ActionAccountBlocked    = "account_blocked"
	ActionLoginSucceeded    = "login_succeeded"
	ActionLoginFailed       = "login_failed"
	ActionLoginLocked       = "login_locked_out"
	ActionTransferSettled   = "transfer_settled"
	ActionBalanceAdjusted   = "balance_adjusted"
	ActionRequestCreated    = "request_created"
	ActionRequestResolved   = "request_resolved"
	ActionRequestCanceled   = "request_canceled"
	ActionResourceReturned  = "resource_returned"
)
