package model

import "time"

// AdminSession records a successful operator login. The token is both the
// identifier and the bearer secret. IP and UserAgent are audit attributes
// captured at login time and immutable afterwards; the IP is never used as
// an access condition.
//
// There is no stored expiry: the effective lifetime is CreatedAt plus the
// session store's fixed TTL, recomputed on every access.
type AdminSession struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
}
