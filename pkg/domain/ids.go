package domain

import (
	"bytes"

	"github.com/google/uuid"

	dErrors "pesa/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types make cross-entity assignment a
// compile error: an AccountID can never be passed where a RequestID is
// expected.
//
// Construct via the Parse* functions at trust boundaries; direct casting
// bypasses validation and is reserved for internal code that already holds a
// valid uuid.
type (
	AccountID     uuid.UUID
	RequestID     uuid.UUID
	TransactionID uuid.UUID
	ResourceID    uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

// ParseAccountID validates external input into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseRequestID validates external input into a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// ParseResourceID validates external input into a ResourceID.
func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ResourceID{}, err
	}
	return ResourceID(u), nil
}

func (id AccountID) String() string     { return uuid.UUID(id).String() }
func (id RequestID) String() string     { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }
func (id ResourceID) String() string    { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// The text marshalers keep JSON and database round-trips in canonical uuid
// string form rather than raw bytes. RequestID and ResourceID appear as
// optional fields (a direct transfer has no workflow request, a cash request
// has no resource), so their nil value marshals as the empty string and the
// unmarshalers accept it back; the Parse* helpers stay strict for required
// input.

func (id AccountID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id TransactionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id RequestID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return nil, nil
	}
	return []byte(id.String()), nil
}

func (id ResourceID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return nil, nil
	}
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = u
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = RequestID{}
		return nil
	}
	u, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = u
	return nil
}

func (id *TransactionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	*id = TransactionID(u)
	return nil
}

func (id *ResourceID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ResourceID{}
		return nil
	}
	u, err := ParseResourceID(string(b))
	if err != nil {
		return err
	}
	*id = u
	return nil
}

// Less imposes a total order on account IDs. Multi-account mutations acquire
// locks in ascending ID order so two concurrent transfers touching the same
// pair cannot deadlock.
func (id AccountID) Less(other AccountID) bool {
	a, b := uuid.UUID(id), uuid.UUID(other)
	return bytes.Compare(a[:], b[:]) < 0
}
