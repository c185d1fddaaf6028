package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

var accountColumns = []string{"id", "name", "mobile", "email", "role", "status", "balance", "version", "created_at", "updated_at"}

var transactionColumns = []string{
	"id", "type", "from_account_id", "to_account_id", "amount", "fee",
	"fee_policy_version", "status", "description", "created_at", "updated_at",
}

func num(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func ts(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBeginTx(readCommitted)
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestAccountRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("acc-1", "Alice", "01711111111", "alice@example.com", "user", "approved", num("40.00"), int64(1), ts(now), ts(now)))

	account, err := repo.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Role != domain.RoleUser || account.Status != domain.ApprovalApproved {
		t.Errorf("unexpected role/status %s/%s", account.Role, account.Status)
	}
	if !account.Balance.Equal(decimal.NewFromInt(40)) || account.Version != 1 {
		t.Errorf("unexpected balance %s version %d", account.Balance, account.Version)
	}

	pool.ExpectQuery(`SELECT (.+) FROM accounts WHERE mobile = \$1`).
		WithArgs("01700000000").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByMobile(context.Background(), "01700000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryCreateDuplicate(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	tx := beginTx(t, pool)

	pool.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc-1", "Alice", "01711111111", "alice@example.com", "user", "approved",
			pgxmock.AnyArg(), int64(0), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "idx_accounts_mobile"})

	err := repo.Create(context.Background(), tx, &domain.Account{
		ID:     "acc-1",
		Name:   "Alice",
		Mobile: "01711111111",
		Email:  "alice@example.com",
		Role:   domain.RoleUser,
		Status: domain.ApprovalApproved,
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryLocksInOrder(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	ids := []string{"a", "b"}
	pool.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = ANY\(\$1::varchar\[\]\) ORDER BY id FOR UPDATE`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("a", "A", "1", "a@x.io", "user", "approved", num("10"), int64(0), ts(now), ts(now)).
			AddRow("b", "B", "2", "b@x.io", "agent", "approved", num("20.50"), int64(3), ts(now), ts(now)))

	accounts, err := repo.GetByIDsForUpdate(context.Background(), tx, ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != "a" || !accounts[1].Balance.Equal(decimal.RequireFromString("20.5")) {
		t.Fatalf("unexpected accounts %+v", accounts)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateBalance(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	tx := beginTx(t, pool)
	ctx := context.Background()
	now := time.Now().UTC()

	pool.ExpectExec(`UPDATE accounts SET balance = \$2, version = version \+ 1`).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(5), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool.ExpectExec(`UPDATE accounts SET balance`).
		WithArgs("missing", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.UpdateBalance(ctx, tx, "missing", decimal.NewFromInt(5), now); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	pool.ExpectExec(`UPDATE accounts SET balance`).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation})
	if err := repo.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(-1), now); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	assertExpectations(t, pool)
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestRepositoriesRejectForeignTransactions(t *testing.T) {
	pool := newMockPool(t)
	ctx := context.Background()

	if err := NewAccountRepository(pool).UpdateBalance(ctx, foreignTx{}, "a", decimal.Zero, time.Now()); !errors.Is(err, errForeignTransaction) {
		t.Errorf("account repo: expected errForeignTransaction, got %v", err)
	}
	if err := NewAuditRepository(pool).CreateTx(ctx, foreignTx{}, &domain.AuditLog{}); !errors.Is(err, errForeignTransaction) {
		t.Errorf("audit repo: expected errForeignTransaction, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryCreateBonus(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec(`INSERT INTO transactions`).
		WithArgs("tx-1", "bonus", pgtype.Text{}, "acc-1", pgxmock.AnyArg(), pgxmock.AnyArg(),
			"v1", "approved", "signup bonus", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx, &domain.Transaction{
		ID:               "tx-1",
		Type:             domain.TransactionBonus,
		ToAccountID:      "acc-1",
		Amount:           decimal.NewFromInt(40),
		FeePolicyVersion: "v1",
		Status:           domain.StatusApproved,
		Description:      "signup bonus",
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryListFilters(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`SELECT (.+) FROM transactions\s+WHERE \(\$1::varchar IS NULL`).
		WithArgs(pgtype.Text{}, pgtype.Text{String: "pending", Valid: true}, int32(1000), int32(0)).
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow("tx-1", "cash-in", pgtype.Text{String: "user-1", Valid: true}, "agent-1",
				num("500.00"), num("0.00"), "v1", "pending", "", ts(now), ts(now)))

	txs, err := repo.List(context.Background(), domain.TransactionFilter{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	got := txs[0]
	if got.Type != domain.TransactionCashIn || got.FromAccountID != "user-1" || !got.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected transaction %+v", got)
	}

	pool.ExpectQuery(`SELECT (.+) FROM transactions WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryListByParticipant(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`WHERE from_account_id = \$1::varchar OR to_account_id = \$1::varchar\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("user-1", int32(20), int32(40)).
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow("tx-2", "send-money", pgtype.Text{String: "user-1", Valid: true}, "user-2",
				num("150.00"), num("5.00"), "v1", "approved", "rent", ts(now), ts(now)))

	txs, err := repo.ListByParticipant(context.Background(), "user-1", 20, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "tx-2" || !txs[0].Fee.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected transactions %+v", txs)
	}

	assertExpectations(t, pool)
}

func TestLedgerRepositoryReadsOneSnapshot(t *testing.T) {
	pool := newMockPool(t)
	repo := NewLedgerRepository(pool)

	pool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	pool.ExpectQuery(`SUM\(balance\)`).WillReturnRows(pgxmock.NewRows([]string{"total"}).AddRow(num("10080.00")))
	pool.ExpectQuery(`FROM entries`).WillReturnRows(pgxmock.NewRows([]string{"total"}).AddRow(num("10080.00")))
	pool.ExpectQuery(`type = 'bonus'`).WillReturnRows(pgxmock.NewRows([]string{"total"}).AddRow(num("10080.00")))
	pool.ExpectRollback()

	balances, entries, minted, err := repo.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := decimal.NewFromInt(10080)
	if !balances.Equal(want) || !entries.Equal(want) || !minted.Equal(want) {
		t.Errorf("unexpected sums %s %s %s", balances, entries, minted)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryMarkPublishedMissing(t *testing.T) {
	pool := newMockPool(t)
	repo := NewOutboxRepository(pool)

	pool.ExpectExec(`UPDATE outbox_events SET published = TRUE`).
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkPublished(context.Background(), "evt-1", time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := NewOutboxRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`FROM outbox_events\s+WHERE published = FALSE`).
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published",
		}).AddRow("evt-1", "tx-1", "transaction", "cash_out.settled", []byte(`{"amount":"500.00"}`), ts(now), pgtype.Timestamptz{}, false))

	events, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Payload["amount"] != "500.00" || events[0].PublishedAt != nil {
		t.Fatalf("unexpected events %+v", events)
	}

	assertExpectations(t, pool)
}

func TestCredentialRepository(t *testing.T) {
	pool := newMockPool(t)
	repo := NewCredentialRepository(pool)

	pool.ExpectQuery(`SELECT pin_hash FROM account_credentials`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}).AddRow("$2a$hash"))
	hash, err := repo.GetPINHash(context.Background(), "acc-1")
	if err != nil || hash != "$2a$hash" {
		t.Fatalf("unexpected result %q %v", hash, err)
	}

	pool.ExpectQuery(`SELECT pin_hash FROM account_credentials`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetPINHash(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAuditRepository(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAuditRepository(pool)
	tx := beginTx(t, pool)
	ctx := context.Background()
	now := time.Now().UTC()

	pool.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(pgxmock.AnyArg(), "admin-1", "agent.approve", "account", "acc-1", "", "", "req-1",
			[]byte(nil), []byte(`{"status":"approved"}`), "success", "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	log := &domain.AuditLog{
		UserID:       "admin-1",
		Action:       string(domain.AuditActionAgentApprove),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   "acc-1",
		RequestID:    "req-1",
		AfterState:   domain.JSON{"status": "approved"},
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if err := repo.CreateTx(ctx, tx, log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.ID == "" {
		t.Error("expected a generated id")
	}

	pool.ExpectQuery(`AND resource_type = \$1 AND resource_id = \$2 ORDER BY created_at, id`).
		WithArgs("account", "acc-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "action", "resource_type", "resource_id", "ip_address", "user_agent",
			"request_id", "before_state", "after_state", "status", "error_message", "created_at",
		}).AddRow(log.ID, "admin-1", "agent.approve", "account", "acc-1", "", "", "req-1",
			[]byte(nil), []byte(`{"status":"approved"}`), "success", "", now))

	logs, err := repo.GetByResourceID(ctx, domain.AggregateTypeAccount, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].AfterState["status"] != "approved" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	assertExpectations(t, pool)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "7.50", "10000.00", "1234567.89"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("%s: got %s", s, got)
		}
	}

	if got := numericToDecimal(pgtype.Numeric{}); !got.IsZero() {
		t.Errorf("invalid numeric should read as zero, got %s", got)
	}
}

func TestULIDGeneratorIsMonotonic(t *testing.T) {
	gen := NewULIDGenerator()
	prev := gen.Generate()
	for range 100 {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}
