// Package accesskey implements validation and classification of
// presented access keys. Validation is pure: it inspects an issuance
// record against a point in time and never mutates state, so it is
// safe to call speculatively. The usage counter is consumed
// separately by the login flow, atomically with session creation.
package accesskey

import (
	"strings"
	"time"

	"github.com/iliyamo/hearhere/internal/model"
	"github.com/iliyamo/hearhere/internal/repository"
)

// Normalize trims surrounding whitespace from a presented key. Keys
// are otherwise matched exactly and case-sensitively.
func Normalize(presented string) string { return strings.TrimSpace(presented) }

// IsMaster reports whether the presented key equals the configured
// master creator secret. Master-key sessions are classified CREATOR
// without touching the issuance table.
func IsMaster(presented, masterKey string) bool {
	return masterKey != "" && presented == masterKey
}

// Validate checks an issuance record for usability at the given
// time. It returns nil when the key may start a session, or one of
// the repository sentinels (ErrKeyDisabled, ErrKeyExpired,
// ErrKeyExhausted) naming the specific reason, so callers can surface
// a distinguishable message rather than a generic failure.
//
// Check order mirrors the admin console: disabled first, then
// expiry, then the usage cap. A nil ExpiresAt never expires and a
// UsesLimit of -1 is never exhausted.
func Validate(rec model.AccessKey, now time.Time) error {
	if !rec.Enabled {
		return repository.ErrKeyDisabled
	}
	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(now) {
		return repository.ErrKeyExpired
	}
	if rec.UsesLimit != model.UsesUnlimited && rec.UsesCount >= rec.UsesLimit {
		return repository.ErrKeyExhausted
	}
	return nil
}
