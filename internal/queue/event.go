// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names double as routing keys on the default exchange.
const (
    CoinsCreditedQueue   = "ledger.credited"
    EpisodeUnlockedQueue = "episode.unlocked"
)

// CoinsCreditedEvent is published when an admin verifies a top-up and
// coins land in the wallet. It carries enough detail for downstream
// consumers to audit the credit without querying the primary database.
type CoinsCreditedEvent struct {
    RequestID  uint64 `json:"request_id"`
    AccountID  uint64 `json:"account_id"`
    Coins      uint64 `json:"coins"`
    AmountPaid uint64 `json:"amount_paid"`
    ProofRef   string `json:"proof_ref"`
    ResolvedAt string `json:"resolved_at"`
}

// EpisodeUnlockedEvent is published when a paid unlock commits. Free
// and idempotent unlocks do not emit it; no coins moved.
type EpisodeUnlockedEvent struct {
    UnlockID   uint64 `json:"unlock_id"`
    AccountID  uint64 `json:"account_id"`
    EpisodeID  uint64 `json:"episode_id"`
    NovelID    uint64 `json:"novel_id"`
    PriceCoins uint64 `json:"price_coins"`
    NewBalance uint64 `json:"new_balance"`
    UnlockedAt string `json:"unlocked_at"`
}
