package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hearhere/internal/model"
)

// TopUpRepo provides access to the topup_requests table. Requests are
// created by account holders and resolved exactly once by an admin;
// the guarded UPDATE in MarkResolvedTx is what enforces the
// PENDING → VERIFIED | REJECTED state machine.
type TopUpRepo struct{ DB *sql.DB }

func NewTopUpRepo(db *sql.DB) *TopUpRepo { return &TopUpRepo{DB: db} }

const topUpColumns = "id, account_id, amount_paid, coins_requested, proof_ref, method, status, submitted_at, resolved_at"

func scanTopUp(scan func(dest ...interface{}) error) (model.TopUpRequest, error) {
	var t model.TopUpRequest
	var resolved sql.NullTime
	err := scan(&t.ID, &t.AccountID, &t.AmountPaid, &t.CoinsRequested, &t.ProofRef, &t.Method, &t.Status, &t.SubmittedAt, &resolved)
	if err != nil {
		return t, err
	}
	if resolved.Valid {
		at := resolved.Time
		t.ResolvedAt = &at
	}
	return t, nil
}

// Create inserts a PENDING request and populates the generated ID and
// submission timestamp. The wallet is not touched here.
func (r *TopUpRepo) Create(ctx context.Context, t *model.TopUpRequest) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO topup_requests (account_id, amount_paid, coins_requested, proof_ref, method, status) VALUES (?,?,?,?,?,?)",
		t.AccountID, t.AmountPaid, t.CoinsRequested, t.ProofRef, t.Method, model.TopUpPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TopUpPending
	err = r.DB.QueryRowContext(ctx,
		"SELECT submitted_at FROM topup_requests WHERE id=?", t.ID).Scan(&t.SubmittedAt)
	return err
}

// GetForUpdateTx loads a request inside a transaction, locking the
// row so concurrent resolutions serialize. Returns ErrTopUpNotFound
// on miss.
func (r *TopUpRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TopUpRequest, error) {
	t, err := scanTopUp(tx.QueryRowContext(ctx,
		"SELECT "+topUpColumns+" FROM topup_requests WHERE id=? LIMIT 1 FOR UPDATE", id).Scan)
	if err == sql.ErrNoRows {
		return t, ErrTopUpNotFound
	}
	return t, err
}

// MarkResolvedTx transitions a request out of PENDING inside the
// ledger transaction. The WHERE clause re-checks the status so a
// request can never be resolved twice; zero affected rows means it
// was already resolved.
func (r *TopUpRepo) MarkResolvedTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE topup_requests SET status = ?, resolved_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?",
		status, id, model.TopUpPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// Get returns a single request outside a transaction.
func (r *TopUpRepo) Get(ctx context.Context, id uint64) (model.TopUpRequest, error) {
	t, err := scanTopUp(r.DB.QueryRowContext(ctx,
		"SELECT "+topUpColumns+" FROM topup_requests WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return t, ErrTopUpNotFound
	}
	return t, err
}

// ListByAccount returns the account's request history, newest first.
func (r *TopUpRepo) ListByAccount(ctx context.Context, accountID uint64) ([]model.TopUpRequest, error) {
	return r.list(ctx,
		"SELECT "+topUpColumns+" FROM topup_requests WHERE account_id=? ORDER BY submitted_at DESC, id DESC",
		accountID)
}

// ListByStatus returns all requests in one state for the admin review
// queue, oldest first so operators work through the backlog in order.
func (r *TopUpRepo) ListByStatus(ctx context.Context, status string) ([]model.TopUpRequest, error) {
	return r.list(ctx,
		"SELECT "+topUpColumns+" FROM topup_requests WHERE status=? ORDER BY submitted_at ASC, id ASC",
		status)
}

func (r *TopUpRepo) list(ctx context.Context, query string, arg interface{}) ([]model.TopUpRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.TopUpRequest, 0)
	for rows.Next() {
		t, err := scanTopUp(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
