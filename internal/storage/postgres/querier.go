package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-shop-api/internal/storage"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the postgres dialect
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var dialect = goqu.Dialect("postgres")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	// pgStockRejected is raised by the job_parts stock trigger.
	pgStockRejected = "U0001"
)

// mapPgError translates driver errors into storage errors, leaving unknown errors untouched.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, storage.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("related entity not found (%s): %w", pgErr.ConstraintName, storage.ErrConflict)
	case pgCheckViolation:
		return fmt.Errorf("check %s violated: %w", pgErr.ConstraintName, storage.ErrConflict)
	case pgStockRejected:
		rejection := &storage.StockRejection{}
		if _, scanErr := fmt.Sscanf(pgErr.Detail, "available=%d requested=%d", &rejection.Available, &rejection.Requested); scanErr != nil {
			return fmt.Errorf("%s: %w", pgErr.Message, storage.ErrInsufficientStock)
		}
		return rejection
	}
	return err
}

// uuidFromValue converts what pgx.RowToMap yields for a uuid column.
func uuidFromValue(v any) (uuid.UUID, error) {
	switch id := v.(type) {
	case [16]byte:
		return uuid.UUID(id), nil
	case uuid.UUID:
		return id, nil
	case string:
		return uuid.Parse(id)
	case []byte:
		return uuid.ParseBytes(id)
	default:
		return uuid.Nil, fmt.Errorf("unexpected id type %T", v)
	}
}

func intFromValue(v any) (int, error) {
	switch n := v.(type) {
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case int16:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected version type %T", v)
	}
}

func timeFromValue(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
