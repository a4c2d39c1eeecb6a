package model

import "time"

// UsesUnlimited marks a key whose uses_limit places no cap on logins.
const UsesUnlimited = -1

// Access key roles stored in access_keys.role. A key classifies the
// session it starts; it does not grant admin access.
const (
    KeyRoleListener = "LISTENER"
    KeyRoleCreator  = "CREATOR"
)

// AccessKey represents an issued key in the `access_keys` table.
// Keys are created by admins, handed to users out of band and
// validated at login. A key becomes bound to the anonymous account
// it bootstraps so the wallet survives re-login.
//
// Fields:
//  ID        – primary key identifier.
//  Key       – the opaque key string, unique and case-sensitive.
//  Role      – LISTENER or CREATOR.
//  UsesCount – number of successful logins performed with this key.
//  UsesLimit – maximum number of logins, or UsesUnlimited (-1).
//  Enabled   – admins may disable a key at any time.
//  ExpiresAt – optional expiry; nil means the key never expires.
//  AccountID – account bound on first successful login (nullable).
//  CreatedAt – timestamp of issuance.
//  UpdatedAt – timestamp of last update.
type AccessKey struct {
    ID        uint64     // access_keys.id
    Key       string     // access_keys.access_key
    Role      string     // access_keys.role
    UsesCount int64      // access_keys.uses_count
    UsesLimit int64      // access_keys.uses_limit
    Enabled   bool       // access_keys.enabled
    ExpiresAt *time.Time // access_keys.expires_at (nullable)
    AccountID *uint64    // access_keys.account_id (nullable)
    CreatedAt time.Time  // access_keys.created_at
    UpdatedAt time.Time  // access_keys.updated_at
}
