// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the ledger to distinguish between different failure
// scenarios without inspecting driver errors. For example,
// ErrInsufficientBalance signals a normal business outcome (the
// wallet cannot cover the price), not a system fault.
package repository

import "errors"

// ErrAccountNotFound is returned when an account referenced by an
// operation does not exist. Handlers translate this into HTTP 404.
var ErrAccountNotFound = errors.New("account not found")

// ErrNovelNotFound is returned when a novel lookup misses.
var ErrNovelNotFound = errors.New("novel not found")

// ErrEpisodeNotFound is returned when an episode lookup misses.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrEmailExists is returned when registration collides with an
// existing account email. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientBalance is returned when a debit would push the
// wallet below zero. No state is changed when it is returned.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrAlreadyUnlocked is returned by the unlock insert when the
// UNIQUE(account_id, episode_id) constraint fires. Callers treat it
// as success: the episode is unlocked, nothing further to debit.
var ErrAlreadyUnlocked = errors.New("already unlocked")

// ErrTopUpNotFound is returned when a top-up request lookup misses.
var ErrTopUpNotFound = errors.New("top-up request not found")

// ErrAlreadyResolved is returned when resolving a top-up request
// that is no longer PENDING. Decisions are final; handlers translate
// this into HTTP 409.
var ErrAlreadyResolved = errors.New("top-up request already resolved")

// ErrInvalidProof is returned when a submitted payment reference does
// not look like a bank UTR (12–15 alphanumeric characters).
var ErrInvalidProof = errors.New("invalid payment reference")

// ErrKeyNotFound is returned when a presented access key does not
// match any issued key. Empty and malformed keys get the same error.
var ErrKeyNotFound = errors.New("invalid key")

// ErrKeyDisabled is returned when the key exists but an admin has
// disabled it.
var ErrKeyDisabled = errors.New("key disabled")

// ErrKeyExpired is returned when the key's expiry has passed.
var ErrKeyExpired = errors.New("key expired")

// ErrKeyExhausted is returned when the key has reached its usage
// limit.
var ErrKeyExhausted = errors.New("key usage limit reached")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent records, such as deleting a novel whose
// episodes have been unlocked. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
