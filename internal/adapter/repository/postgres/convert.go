package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
)

var errForeignTransaction = errors.New("transaction was not started by the postgres transaction manager")

// queriesFor binds the generated queries to the pgx transaction behind tx.
func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %T", errForeignTransaction, tx)
	}
	return generated.New(t.PgxTx()), nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// clampPage converts pagination to the int32 the queries take.
func clampPage(limit, offset int) (int32, int32) {
	const maxPage = 1000
	if limit <= 0 || limit > maxPage {
		limit = maxPage
	}
	if offset < 0 {
		offset = 0
	}
	return int32(limit), int32(offset)
}
