package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hearhere/internal/model"
)

// AccessKeyRepo manages issued access keys. Validation itself is pure
// (see the accesskey package); this repo only reads and mutates the
// issuance records. The uses_count column is incremented exclusively
// by ConsumeUseTx, which the key-login handler calls in the same
// transaction that creates or binds the session account.
type AccessKeyRepo struct{ DB *sql.DB }

func NewAccessKeyRepo(db *sql.DB) *AccessKeyRepo { return &AccessKeyRepo{DB: db} }

const accessKeyColumns = "id, access_key, role, uses_count, uses_limit, enabled, expires_at, account_id, created_at, updated_at"

func scanAccessKey(scan func(dest ...interface{}) error) (model.AccessKey, error) {
	var k model.AccessKey
	var expires sql.NullTime
	var account sql.NullInt64
	err := scan(&k.ID, &k.Key, &k.Role, &k.UsesCount, &k.UsesLimit, &k.Enabled, &expires, &account, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return k, err
	}
	if expires.Valid {
		t := expires.Time
		k.ExpiresAt = &t
	}
	if account.Valid {
		id := uint64(account.Int64)
		k.AccountID = &id
	}
	return k, nil
}

// GetByKeyForUpdateTx loads a key by its exact string inside a
// transaction, locking the row so two concurrent logins with the same
// key serialize on the usage counter. Returns ErrKeyNotFound on miss.
func (r *AccessKeyRepo) GetByKeyForUpdateTx(ctx context.Context, tx *sql.Tx, key string) (model.AccessKey, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+accessKeyColumns+" FROM access_keys WHERE access_key=? LIMIT 1 FOR UPDATE", key)
	k, err := scanAccessKey(row.Scan)
	if err == sql.ErrNoRows {
		return k, ErrKeyNotFound
	}
	return k, err
}

// ConsumeUseTx increments uses_count for a key, re-checking the limit
// in the WHERE clause so concurrent logins cannot both consume the
// last use. Zero affected rows means the key is exhausted.
func (r *AccessKeyRepo) ConsumeUseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE access_keys SET uses_count = uses_count + 1 WHERE id = ? AND (uses_limit = -1 OR uses_count < uses_limit)",
		id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyExhausted
	}
	return nil
}

// BindAccountTx records the account a key bootstrapped on first
// login. Later logins with the same key reuse this account so the
// wallet balance survives.
func (r *AccessKeyRepo) BindAccountTx(ctx context.Context, tx *sql.Tx, keyID, accountID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE access_keys SET account_id = ? WHERE id = ? AND account_id IS NULL",
		accountID, keyID)
	return err
}

// Create inserts a freshly issued key. Admin handlers generate the
// key string; duplicates are rejected by the unique index.
func (r *AccessKeyRepo) Create(ctx context.Context, key, role string, usesLimit int64, expiresAt *time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_keys (access_key, role, uses_limit, expires_at) VALUES (?,?,?,?)",
		key, role, usesLimit, expiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all issued keys, newest first, for the admin console.
func (r *AccessKeyRepo) List(ctx context.Context) ([]model.AccessKey, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accessKeyColumns+" FROM access_keys ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]model.AccessKey, 0)
	for rows.Next() {
		k, err := scanAccessKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// SetEnabled toggles a key on or off. Disabling takes effect on the
// next login attempt; sessions already started with the key stay
// valid until their tokens expire.
func (r *AccessKeyRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	// updated_at is set explicitly so RowsAffected distinguishes a
	// missing key from a no-op toggle.
	res, err := r.DB.ExecContext(ctx,
		"UPDATE access_keys SET enabled = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?", enabled, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Delete removes an issued key. The bound account (if any) is left
// untouched so in-flight sessions are not corrupted.
func (r *AccessKeyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM access_keys WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}
