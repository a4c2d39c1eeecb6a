package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/hearhere/internal/model"
	"github.com/iliyamo/hearhere/internal/repository"
)

// Queries as the repositories issue them; QueryMatcherEqual compares
// after collapsing whitespace so these must stay in sync with the
// repository layer.
const (
	qBalanceForUpdate = "SELECT coin_balance FROM accounts WHERE id=? FOR UPDATE"
	qGetUnlock        = "SELECT id, account_id, episode_id, price_coins, created_at FROM unlocks WHERE account_id=? AND episode_id=? LIMIT 1"
	qGetEpisode       = "SELECT id, novel_id, episode_number, title, duration_seconds, price_coins, created_at, updated_at FROM episodes WHERE id=? LIMIT 1"
	qDebit            = "UPDATE accounts SET coin_balance = coin_balance - ? WHERE id = ? AND coin_balance >= ?"
	qCredit           = "UPDATE accounts SET coin_balance = coin_balance + ? WHERE id = ?"
	qInsertUnlock     = "INSERT INTO unlocks (account_id, episode_id, price_coins) VALUES (?,?,?)"
	qUnlockCreatedAt  = "SELECT created_at FROM unlocks WHERE id=?"
	qGetAccount       = "SELECT id, email, password_hash, display_name, role, coin_balance, is_active, created_at, updated_at FROM accounts WHERE id=? LIMIT 1"
	qTopUpForUpdate   = "SELECT id, account_id, amount_paid, coins_requested, proof_ref, method, status, submitted_at, resolved_at FROM topup_requests WHERE id=? LIMIT 1 FOR UPDATE"
	qTopUpGet         = "SELECT id, account_id, amount_paid, coins_requested, proof_ref, method, status, submitted_at, resolved_at FROM topup_requests WHERE id=? LIMIT 1"
	qMarkResolved     = "UPDATE topup_requests SET status = ?, resolved_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?"
	qInsertTopUp      = "INSERT INTO topup_requests (account_id, amount_paid, coins_requested, proof_ref, method, status) VALUES (?,?,?,?,?,?)"
	qTopUpSubmittedAt = "SELECT submitted_at FROM topup_requests WHERE id=?"
)

func newLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	l := New(db,
		repository.NewAccountRepo(db),
		repository.NewCatalogRepo(db),
		repository.NewUnlockRepo(db),
		repository.NewTopUpRepo(db))
	return l, mock
}

func episodeRow(id, novelID uint64, price uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "novel_id", "episode_number", "title", "duration_seconds", "price_coins", "created_at", "updated_at"}).
		AddRow(id, novelID, 1, "Episode", 600, price, now, now)
}

func TestUnlockDebitsAndRecords(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBalanceForUpdate).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"coin_balance"}).AddRow(150))
	mock.ExpectQuery(qGetUnlock).WithArgs(uint64(9), uint64(12)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qGetEpisode).WithArgs(uint64(12)).
		WillReturnRows(episodeRow(12, 3, 15))
	mock.ExpectExec(qDebit).WithArgs(uint64(15), uint64(9), uint64(15)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertUnlock).WithArgs(uint64(9), uint64(12), uint64(15)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(qUnlockCreatedAt).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	res, err := l.Unlock(context.Background(), 9, 12)
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if res.AlreadyUnlocked {
		t.Fatal("fresh unlock reported as already unlocked")
	}
	if res.NewBalance != 135 {
		t.Fatalf("new balance = %d, want 135", res.NewBalance)
	}
	if res.Unlock.PriceCoins != 15 {
		t.Fatalf("price snapshot = %d, want 15", res.Unlock.PriceCoins)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUnlockInsufficientBalance(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBalanceForUpdate).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"coin_balance"}).AddRow(45))
	mock.ExpectQuery(qGetUnlock).WithArgs(uint64(9), uint64(12)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qGetEpisode).WithArgs(uint64(12)).
		WillReturnRows(episodeRow(12, 3, 50))
	mock.ExpectRollback()

	_, err := l.Unlock(context.Background(), 9, 12)
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}
	if insufficient.Shortfall() != 5 {
		t.Fatalf("shortfall = %d, want 5", insufficient.Shortfall())
	}
	// No debit and no insert were expected; the mock verifies the
	// balance stayed untouched.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUnlockIdempotent(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBalanceForUpdate).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"coin_balance"}).AddRow(135))
	mock.ExpectQuery(qGetUnlock).WithArgs(uint64(9), uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "episode_id", "price_coins", "created_at"}).
			AddRow(7, 9, 12, 15, time.Now().UTC()))
	mock.ExpectCommit()

	res, err := l.Unlock(context.Background(), 9, 12)
	if err != nil {
		t.Fatalf("re-unlock failed: %v", err)
	}
	if !res.AlreadyUnlocked {
		t.Fatal("expected AlreadyUnlocked on repeat call")
	}
	if res.NewBalance != 135 {
		t.Fatalf("balance changed on re-unlock: %d", res.NewBalance)
	}
	if res.Unlock.PriceCoins != 15 {
		t.Fatalf("expected the original snapshot price, got %d", res.Unlock.PriceCoins)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUnlockFreeEpisode(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBalanceForUpdate).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"coin_balance"}).AddRow(45))
	mock.ExpectQuery(qGetUnlock).WithArgs(uint64(9), uint64(30)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qGetEpisode).WithArgs(uint64(30)).
		WillReturnRows(episodeRow(30, 3, 0))
	mock.ExpectExec(qInsertUnlock).WithArgs(uint64(9), uint64(30), uint64(0)).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery(qUnlockCreatedAt).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	res, err := l.Unlock(context.Background(), 9, 30)
	if err != nil {
		t.Fatalf("free unlock failed: %v", err)
	}
	if res.NewBalance != 45 {
		t.Fatalf("free unlock changed balance: %d", res.NewBalance)
	}
	if res.Unlock.PriceCoins != 0 {
		t.Fatalf("free unlock snapshot = %d, want 0", res.Unlock.PriceCoins)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUnlockMissingAccount(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBalanceForUpdate).WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := l.Unlock(context.Background(), 404, 12)
	if !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func topUpRow(id, accountID, coins uint64, status string, resolved interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "account_id", "amount_paid", "coins_requested", "proof_ref", "method", "status", "submitted_at", "resolved_at"}).
		AddRow(id, accountID, coins, coins, "ICICI987654321", "UPI", status, time.Now().UTC(), resolved)
}

func TestResolveTopUpVerifiedCredits(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qTopUpForUpdate).WithArgs(uint64(4)).
		WillReturnRows(topUpRow(4, 9, 100, model.TopUpPending, nil))
	mock.ExpectExec(qMarkResolved).WithArgs(model.TopUpVerified, uint64(4), model.TopUpPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qCredit).WithArgs(uint64(100), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(qTopUpGet).WithArgs(uint64(4)).
		WillReturnRows(topUpRow(4, 9, 100, model.TopUpVerified, time.Now().UTC()))

	req, err := l.ResolveTopUp(context.Background(), 4, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if req.Status != model.TopUpVerified {
		t.Fatalf("status = %s, want VERIFIED", req.Status)
	}
	if req.ResolvedAt == nil {
		t.Fatal("resolved_at not set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestResolveTopUpRejectedDoesNotCredit(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qTopUpForUpdate).WithArgs(uint64(5)).
		WillReturnRows(topUpRow(5, 9, 100, model.TopUpPending, nil))
	mock.ExpectExec(qMarkResolved).WithArgs(model.TopUpRejected, uint64(5), model.TopUpPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(qTopUpGet).WithArgs(uint64(5)).
		WillReturnRows(topUpRow(5, 9, 100, model.TopUpRejected, time.Now().UTC()))

	req, err := l.ResolveTopUp(context.Background(), 5, false)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if req.Status != model.TopUpRejected {
		t.Fatalf("status = %s, want REJECTED", req.Status)
	}
	// The mock verifies no credit UPDATE ran.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestResolveTopUpTwiceFails(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qTopUpForUpdate).WithArgs(uint64(4)).
		WillReturnRows(topUpRow(4, 9, 100, model.TopUpVerified, time.Now().UTC()))
	mock.ExpectRollback()

	_, err := l.ResolveTopUp(context.Background(), 4, false)
	if !errors.Is(err, repository.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTopUpCreatesPendingRequest(t *testing.T) {
	l, mock := newLedger(t)

	now := time.Now().UTC()
	mock.ExpectQuery(qGetAccount).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "display_name", "role", "coin_balance", "is_active", "created_at", "updated_at"}).
			AddRow(9, nil, nil, "Listener", model.RoleListener, 45, true, now, now))
	mock.ExpectExec(qInsertTopUp).WithArgs(uint64(9), uint64(100), uint64(100), "ICICI987654321", "UPI", model.TopUpPending).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(qTopUpSubmittedAt).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).AddRow(now))

	req, err := l.TopUp(context.Background(), 9, 100, 100, "ICICI987654321", "UPI")
	if err != nil {
		t.Fatalf("top-up failed: %v", err)
	}
	if req.Status != model.TopUpPending {
		t.Fatalf("status = %s, want PENDING", req.Status)
	}
	if req.ID != 4 {
		t.Fatalf("id = %d, want 4", req.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTopUpProofValidation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	// Too short, too long, separators, empty: all rejected before any
	// database work happens.
	for _, proof := range []string{"", "ABC123", "THISREFERENCEISTOOLONG", "ICICI-9876543", "ICICI 98765432"} {
		if _, err := l.TopUp(ctx, 9, 100, 100, proof, "UPI"); !errors.Is(err, repository.ErrInvalidProof) {
			t.Fatalf("proof %q: expected ErrInvalidProof, got %v", proof, err)
		}
	}
	if _, err := l.TopUp(ctx, 9, 0, 100, "ICICI987654321", "UPI"); !errors.Is(err, repository.ErrInvalidProof) {
		t.Fatalf("zero amount: expected ErrInvalidProof, got %v", err)
	}
}
