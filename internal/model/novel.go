package model

import "time"

// Novel represents an audio story in the `novels` table. Episodes
// belong to exactly one novel; the novel itself carries no price.
//
// Fields:
//  ID          – primary key identifier.
//  CreatorID   – account that owns and manages the novel.
//  Title       – display title.
//  Author      – author or narrator credit.
//  Description – synopsis shown on the detail page.
//  Language    – content language (e.g. "hi", "en").
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Novel struct {
    ID          uint64    // novels.id
    CreatorID   uint64    // novels.creator_id
    Title       string    // novels.title
    Author      string    // novels.author
    Description string    // novels.description
    Language    string    // novels.language
    CreatedAt   time.Time // novels.created_at
    UpdatedAt   time.Time // novels.updated_at
}

// Episode represents a single paywalled audio episode in the
// `episodes` table. An episode with PriceCoins == 0 is free and
// unlocking it never touches the wallet.
//
// Fields:
//  ID              – primary key identifier.
//  NovelID         – owning novel.
//  EpisodeNumber   – position within the novel, 1-based.
//  Title           – episode title.
//  DurationSeconds – audio length in seconds.
//  PriceCoins      – unlock price in coins; 0 means free.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Episode struct {
    ID              uint64    // episodes.id
    NovelID         uint64    // episodes.novel_id
    EpisodeNumber   uint32    // episodes.episode_number
    Title           string    // episodes.title
    DurationSeconds uint32    // episodes.duration_seconds
    PriceCoins      uint64    // episodes.price_coins
    CreatedAt       time.Time // episodes.created_at
    UpdatedAt       time.Time // episodes.updated_at
}

// IsFree reports whether the episode can be unlocked without coins.
func (e Episode) IsFree() bool { return e.PriceCoins == 0 }
