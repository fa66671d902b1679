package model

import "time"

// Key status values. Expiry is never stored as a status: it is always
// derived from ExpiresAt against the current time, so status and time
// jointly determine effective validity.
const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

// AccessKey is a short-lived, opaque access credential. The ID doubles as
// the credential itself; it is a 128-bit random value formatted as a UUID
// and is never reused once deleted.
type AccessKey struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Validity is the outcome of checking a key. These are ordinary result
// values, not errors: an expired or revoked key is an expected answer on
// the hot validation path.
type Validity string

const (
	ValidityValid    Validity = "valid"
	ValidityExpired  Validity = "expired"
	ValidityRevoked  Validity = "revoked"
	ValidityNotFound Validity = "not_found"
)
