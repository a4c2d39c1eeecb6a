package model

import "time"

// Unlock records that an account has permanently unlocked an episode.
// Rows are created only as the side effect of a successful unlock
// transaction and are never mutated or deleted; the price is
// snapshotted so later price edits do not affect existing unlocks.
// A UNIQUE(account_id, episode_id) index guarantees at most one
// unlock (and therefore at most one debit) per account and episode.
//
// Fields:
//  ID         – primary key identifier.
//  AccountID  – account that unlocked the episode.
//  EpisodeID  – episode that was unlocked.
//  PriceCoins – price paid at unlock time (0 for free episodes).
//  CreatedAt  – when the unlock happened.
type Unlock struct {
    ID         uint64    // unlocks.id
    AccountID  uint64    // unlocks.account_id
    EpisodeID  uint64    // unlocks.episode_id
    PriceCoins uint64    // unlocks.price_coins
    CreatedAt  time.Time // unlocks.created_at
}
