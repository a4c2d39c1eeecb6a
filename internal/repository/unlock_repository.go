package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hearhere/internal/model"
)

// UnlockRepo provides access to the unlocks table. Rows are
// append-only: they are inserted by the ledger's unlock transaction
// and never updated or deleted, which is what makes the wallet
// history auditable.
type UnlockRepo struct{ DB *sql.DB }

func NewUnlockRepo(db *sql.DB) *UnlockRepo { return &UnlockRepo{DB: db} }

const unlockColumns = "id, account_id, episode_id, price_coins, created_at"

func scanUnlock(scan func(dest ...interface{}) error) (model.Unlock, error) {
	var u model.Unlock
	err := scan(&u.ID, &u.AccountID, &u.EpisodeID, &u.PriceCoins, &u.CreatedAt)
	return u, err
}

// GetTx looks up an existing unlock for (account, episode) inside a
// transaction. The bool reports whether a record was found.
func (r *UnlockRepo) GetTx(ctx context.Context, tx *sql.Tx, accountID, episodeID uint64) (model.Unlock, bool, error) {
	u, err := scanUnlock(tx.QueryRowContext(ctx,
		"SELECT "+unlockColumns+" FROM unlocks WHERE account_id=? AND episode_id=? LIMIT 1",
		accountID, episodeID).Scan)
	if err == sql.ErrNoRows {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	return u, true, nil
}

// Get is GetTx outside a transaction, used when re-reading the record
// after a duplicate-key race.
func (r *UnlockRepo) Get(ctx context.Context, accountID, episodeID uint64) (model.Unlock, bool, error) {
	u, err := scanUnlock(r.DB.QueryRowContext(ctx,
		"SELECT "+unlockColumns+" FROM unlocks WHERE account_id=? AND episode_id=? LIMIT 1",
		accountID, episodeID).Scan)
	if err == sql.ErrNoRows {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	return u, true, nil
}

// CreateTx inserts the unlock record inside the ledger transaction
// and populates the generated ID and timestamp. A duplicate-key
// error from the UNIQUE(account_id, episode_id) index is mapped to
// ErrAlreadyUnlocked so the ledger can fall back to the existing row.
func (r *UnlockRepo) CreateTx(ctx context.Context, tx *sql.Tx, u *model.Unlock) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO unlocks (account_id, episode_id, price_coins) VALUES (?,?,?)",
		u.AccountID, u.EpisodeID, u.PriceCoins)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyUnlocked
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM unlocks WHERE id=?", u.ID).Scan(&u.CreatedAt)
	return err
}

// LibraryEntry is an unlock joined with its episode and novel for the
// listener's library view.
type LibraryEntry struct {
	UnlockID      uint64 `json:"unlock_id"`
	EpisodeID     uint64 `json:"episode_id"`
	EpisodeTitle  string `json:"episode_title"`
	EpisodeNumber uint32 `json:"episode_number"`
	NovelID       uint64 `json:"novel_id"`
	NovelTitle    string `json:"novel_title"`
	PricePaid     uint64 `json:"price_paid"`
	UnlockedAt    string `json:"unlocked_at"`
}

// ListByAccount returns the account's unlocks with episode and novel
// detail, newest first.
func (r *UnlockRepo) ListByAccount(ctx context.Context, accountID uint64) ([]LibraryEntry, error) {
	const q = `SELECT u.id, u.episode_id, e.title, e.episode_number, n.id, n.title, u.price_coins, u.created_at
	           FROM unlocks u
	           JOIN episodes e ON e.id = u.episode_id
	           JOIN novels n ON n.id = e.novel_id
	           WHERE u.account_id = ?
	           ORDER BY u.created_at DESC, u.id DESC`
	rows, err := r.DB.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]LibraryEntry, 0)
	for rows.Next() {
		var entry LibraryEntry
		var unlockedAt sql.NullTime
		if err := rows.Scan(&entry.UnlockID, &entry.EpisodeID, &entry.EpisodeTitle, &entry.EpisodeNumber,
			&entry.NovelID, &entry.NovelTitle, &entry.PricePaid, &unlockedAt); err != nil {
			return nil, err
		}
		if unlockedAt.Valid {
			entry.UnlockedAt = unlockedAt.Time.UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// UnlockedEpisodeIDs returns the set of episode IDs the account has
// unlocked within one novel, used to decorate the episode list.
func (r *UnlockRepo) UnlockedEpisodeIDs(ctx context.Context, accountID, novelID uint64) (map[uint64]bool, error) {
	const q = `SELECT u.episode_id FROM unlocks u
	           JOIN episodes e ON e.id = u.episode_id
	           WHERE u.account_id = ? AND e.novel_id = ?`
	rows, err := r.DB.QueryContext(ctx, q, accountID, novelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[uint64]bool)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
