package model

import "time"

// Role names stored in accounts.role. LISTENER accounts are usually
// anonymous (bootstrapped from an access key), CREATOR and ADMIN
// accounts authenticate with email and password.
const (
    RoleListener = "LISTENER"
    RoleCreator  = "CREATOR"
    RoleAdmin    = "ADMIN"
)

// Account represents a row in the `accounts` table. Listener accounts
// created through key login have no email or password hash; the json
// tags are omitted because handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique email address (nil for anonymous listeners).
//  PasswordHash – bcrypt hashed password (nil for anonymous listeners).
//  DisplayName  – name shown in the app.
//  Role         – LISTENER, CREATOR or ADMIN.
//  CoinBalance  – current wallet balance in coins, never negative.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
    ID           uint64     // accounts.id
    Email        *string    // accounts.email (nullable)
    PasswordHash *string    // accounts.password_hash (nullable)
    DisplayName  string     // accounts.display_name
    Role         string     // accounts.role
    CoinBalance  uint64     // accounts.coin_balance
    IsActive     bool       // accounts.is_active
    CreatedAt    time.Time  // accounts.created_at
    UpdatedAt    time.Time  // accounts.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to an account; only the SHA‑256 hash of the
// raw token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    AccountID uint64     // refresh_tokens.account_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
