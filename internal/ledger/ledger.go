// Package ledger implements the coin ledger: the single authority
// over account balances and episode unlocks. Every mutating
// operation runs as one database transaction so concurrent requests
// for the same account serialize on the account row, and a failed
// operation leaves no partial state behind. Handlers call these
// methods and translate the sentinel errors into HTTP responses;
// nothing here is fatal to the process.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/iliyamo/hearhere/internal/model"
	"github.com/iliyamo/hearhere/internal/repository"
)

// proofRefPattern is the UTR convention from the recharge flow:
// 12–15 alphanumeric characters, no separators.
var proofRefPattern = regexp.MustCompile(`^[A-Za-z0-9]{12,15}$`)

// Ledger bundles the repositories the ledger operations span. All
// balance writes go through AccountRepo's guarded Tx methods; no
// other component writes coin_balance.
type Ledger struct {
	db       *sql.DB
	accounts *repository.AccountRepo
	catalog  *repository.CatalogRepo
	unlocks  *repository.UnlockRepo
	topups   *repository.TopUpRepo
}

// New constructs a Ledger. All dependencies must be non-nil.
func New(db *sql.DB, accounts *repository.AccountRepo, catalog *repository.CatalogRepo, unlocks *repository.UnlockRepo, topups *repository.TopUpRepo) *Ledger {
	if db == nil || accounts == nil || catalog == nil || unlocks == nil || topups == nil {
		panic("nil dependency passed to ledger.New")
	}
	return &Ledger{db: db, accounts: accounts, catalog: catalog, unlocks: unlocks, topups: topups}
}

// InsufficientBalanceError reports a wallet that cannot cover an
// unlock. It wraps repository.ErrInsufficientBalance and carries the
// numbers the UI needs to show the shortfall and a path to top up.
type InsufficientBalanceError struct {
	Balance uint64
	Price   uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d coins, need %d", e.Balance, e.Price)
}

func (e *InsufficientBalanceError) Unwrap() error { return repository.ErrInsufficientBalance }

// Shortfall is the number of coins missing.
func (e *InsufficientBalanceError) Shortfall() uint64 { return e.Price - e.Balance }

// UnlockResult is returned by Unlock. AlreadyUnlocked marks the
// idempotent path: the record existed before this call and no coins
// were debited.
type UnlockResult struct {
	Unlock          model.Unlock
	NewBalance      uint64
	AlreadyUnlocked bool
}

// Unlock makes an episode permanently available to an account,
// debiting its price unless the episode is free or already unlocked.
// The debit and the unlock record are committed together or not at
// all. Safe to retry: a repeat call returns the existing record with
// no second debit.
func (l *Ledger) Unlock(ctx context.Context, accountID, episodeID uint64) (UnlockResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return UnlockResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the account row first: this both verifies the account
	// exists and serializes concurrent ledger operations on it.
	balance, err := l.accounts.BalanceForUpdateTx(ctx, tx, accountID)
	if err != nil {
		return UnlockResult{}, err
	}

	// Idempotent re-unlock: an existing record is success, not an
	// error, and must not debit again.
	if existing, found, err := l.unlocks.GetTx(ctx, tx, accountID, episodeID); err != nil {
		return UnlockResult{}, err
	} else if found {
		if err := tx.Commit(); err != nil {
			return UnlockResult{}, err
		}
		committed = true
		return UnlockResult{Unlock: existing, NewBalance: balance, AlreadyUnlocked: true}, nil
	}

	episode, err := l.catalog.GetEpisodeTx(ctx, tx, episodeID)
	if err != nil {
		return UnlockResult{}, err
	}

	rec := model.Unlock{AccountID: accountID, EpisodeID: episodeID, PriceCoins: episode.PriceCoins}

	if !episode.IsFree() {
		if balance < episode.PriceCoins {
			return UnlockResult{}, &InsufficientBalanceError{Balance: balance, Price: episode.PriceCoins}
		}
		if err := l.accounts.DebitTx(ctx, tx, accountID, episode.PriceCoins); err != nil {
			// The guarded UPDATE re-checks the balance; with the row
			// locked above this only fires if the account raced us.
			if err == repository.ErrInsufficientBalance {
				return UnlockResult{}, &InsufficientBalanceError{Balance: balance, Price: episode.PriceCoins}
			}
			return UnlockResult{}, err
		}
		balance -= episode.PriceCoins
	}

	if err := l.unlocks.CreateTx(ctx, tx, &rec); err != nil {
		if err == repository.ErrAlreadyUnlocked {
			// Lost a race on the unique index. Roll back the debit and
			// hand back the record the winner created.
			_ = tx.Rollback()
			existing, found, err2 := l.unlocks.Get(ctx, accountID, episodeID)
			if err2 != nil || !found {
				return UnlockResult{}, err
			}
			account, err2 := l.accounts.GetByID(ctx, accountID)
			if err2 != nil {
				return UnlockResult{}, err2
			}
			return UnlockResult{Unlock: existing, NewBalance: account.CoinBalance, AlreadyUnlocked: true}, nil
		}
		return UnlockResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return UnlockResult{}, err
	}
	committed = true
	return UnlockResult{Unlock: rec, NewBalance: balance}, nil
}

// TopUp records a proof-of-payment as a PENDING request. The wallet
// is only credited later, when an admin verifies the payment. The
// proof reference must look like a bank UTR; amounts must be
// positive.
func (l *Ledger) TopUp(ctx context.Context, accountID, amountPaid, coinsRequested uint64, proofRef, method string) (model.TopUpRequest, error) {
	if amountPaid == 0 || coinsRequested == 0 {
		return model.TopUpRequest{}, repository.ErrInvalidProof
	}
	if !proofRefPattern.MatchString(proofRef) {
		return model.TopUpRequest{}, repository.ErrInvalidProof
	}
	if _, err := l.accounts.GetByID(ctx, accountID); err != nil {
		return model.TopUpRequest{}, err
	}
	req := model.TopUpRequest{
		AccountID:      accountID,
		AmountPaid:     amountPaid,
		CoinsRequested: coinsRequested,
		ProofRef:       proofRef,
		Method:         method,
	}
	if err := l.topups.Create(ctx, &req); err != nil {
		return model.TopUpRequest{}, err
	}
	return req, nil
}

// ResolveTopUp finalizes a PENDING request. Approving credits the
// requested coins and marks the request VERIFIED in the same
// transaction; rejecting only marks it REJECTED. Either outcome is
// terminal: a second resolution attempt fails with ErrAlreadyResolved
// and changes nothing.
func (l *Ledger) ResolveTopUp(ctx context.Context, requestID uint64, approve bool) (model.TopUpRequest, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TopUpRequest{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	req, err := l.topups.GetForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return model.TopUpRequest{}, err
	}
	if req.Status != model.TopUpPending {
		return model.TopUpRequest{}, repository.ErrAlreadyResolved
	}

	status := model.TopUpRejected
	if approve {
		status = model.TopUpVerified
	}
	if err := l.topups.MarkResolvedTx(ctx, tx, requestID, status); err != nil {
		return model.TopUpRequest{}, err
	}
	if approve {
		if err := l.accounts.CreditTx(ctx, tx, req.AccountID, req.CoinsRequested); err != nil {
			return model.TopUpRequest{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.TopUpRequest{}, err
	}
	committed = true

	// Re-read outside the transaction to pick up resolved_at.
	return l.topups.Get(ctx, requestID)
}
