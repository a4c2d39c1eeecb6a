package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hearhere/internal/model"
	"github.com/iliyamo/hearhere/internal/utils"
)

// AccountRepo provides access to the accounts table. The coin
// balance column is mutated only through the guarded DebitTx and
// CreditTx methods, which the ledger calls inside a transaction; no
// other code path writes it.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id, email, password_hash, display_name, role, coin_balance, is_active, created_at, updated_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	var email, hash sql.NullString
	err := row.Scan(&a.ID, &email, &hash, &a.DisplayName, &a.Role, &a.CoinBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if email.Valid {
		v := email.String
		a.Email = &v
	}
	if hash.Valid {
		v := hash.String
		a.PasswordHash = &v
	}
	return a, nil
}

// Create inserts an email+password account and returns its ID.
// Registration is how creators and admins get accounts; listeners
// normally arrive through key login instead.
func (r *AccountRepo) Create(ctx context.Context, email, password, displayName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash, display_name, role) VALUES (?,?,?,?)",
		email, hash, displayName, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateAnonymousTx inserts a password-less account inside an existing
// transaction. It is used by key login to bootstrap the account a key
// becomes bound to. The role comes from the key record.
func (r *AccountRepo) CreateAnonymousTx(ctx context.Context, tx *sql.Tx, displayName, role string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (display_name, role) VALUES (?,?)",
		displayName, role)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return a, ErrAccountNotFound
	}
	return a, err
}

// BalanceForUpdateTx reads the account's balance within a transaction,
// locking the row so concurrent ledger operations on the same account
// serialize. Returns ErrAccountNotFound when the account is missing.
func (r *AccountRepo) BalanceForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
	var balance uint64
	err := tx.QueryRowContext(ctx,
		"SELECT coin_balance FROM accounts WHERE id=? FOR UPDATE", id).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

// DebitTx subtracts coins from the balance inside a transaction. The
// WHERE clause re-checks the balance so the column can never go
// negative even if the caller raced; zero affected rows means the
// wallet cannot cover the amount.
func (r *AccountRepo) DebitTx(ctx context.Context, tx *sql.Tx, id, coins uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET coin_balance = coin_balance - ? WHERE id = ? AND coin_balance >= ?",
		coins, id, coins)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// CreditTx adds coins to the balance inside a transaction. Zero
// affected rows means the account does not exist.
func (r *AccountRepo) CreditTx(ctx context.Context, tx *sql.Tx, id, coins uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET coin_balance = coin_balance + ? WHERE id = ?",
		coins, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
