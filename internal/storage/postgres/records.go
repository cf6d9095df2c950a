package postgres

import (
	"context"
	"errors"
	"fmt"

	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordRepo implements storage.RecordStore with conditional writes on the version column.
type RecordRepo struct {
	db Querier
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{db: db}
}

// WithTx creates a new RecordRepo bound to the transaction.
func (r *RecordRepo) WithTx(tx pgx.Tx) storage.RecordStore {
	return &RecordRepo{db: tx}
}

// Compile-time check to ensure RecordRepo implements RecordStore
var _ storage.RecordStore = (*RecordRepo)(nil)

func checkTable(table string) error {
	if !storage.IsVersionedTable(table) {
		return fmt.Errorf("%w: %s", storage.ErrUnknownTable, table)
	}
	return nil
}

func (r *RecordRepo) Get(ctx context.Context, table string, id uuid.UUID) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query, args, err := dialect.From(table).
		Where(goqu.Ex{"id": id.String()}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build select for %s: %w", table, err)
	}
	return r.queryOne(ctx, table, query, args, storage.ErrNotFound)
}

func (r *RecordRepo) Insert(ctx context.Context, table string, fields map[string]interface{}) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query, args, err := dialect.Insert(table).
		Rows(sqlRecord(fields)).
		Returning(goqu.Star()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert for %s: %w", table, err)
	}
	rec, err := r.queryOne(ctx, table, query, args, storage.ErrNotFound)
	if err != nil {
		logger.Get().Errorf("Error inserting record into %s: %v", table, err)
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepo) UpdateIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int, fields map[string]interface{}) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query, args, err := dialect.Update(table).
		Set(sqlRecord(fields)).
		Where(goqu.Ex{"id": id.String(), "version": expectedVersion}).
		Returning(goqu.Star()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build update for %s: %w", table, err)
	}
	// Zero rows back means the version (or the row) moved on.
	return r.queryOne(ctx, table, query, args, storage.ErrVersionMismatch)
}

func (r *RecordRepo) DeleteIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int) error {
	if err := checkTable(table); err != nil {
		return err
	}
	query, args, err := dialect.Delete(table).
		Where(goqu.Ex{"id": id.String(), "version": expectedVersion}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build delete for %s: %w", table, err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Get().Errorf("Error deleting %s %s: %v", table, id, err)
		return mapPgError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storage.ErrVersionMismatch
	}
	return nil
}

// queryOne runs a statement expected to return a single row; noRows is returned when it returns none.
func (r *RecordRepo) queryOne(ctx context.Context, table, query string, args []interface{}, noRows error) (*models.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, noRows
		}
		return nil, mapPgError(err)
	}
	return recordFromRow(table, row)
}

// sqlRecord passes uuids as their text form so they bind as plain placeholders.
func sqlRecord(fields map[string]interface{}) goqu.Record {
	rec := make(goqu.Record, len(fields))
	for k, v := range fields {
		switch id := v.(type) {
		case uuid.UUID:
			rec[k] = id.String()
		case *uuid.UUID:
			if id == nil {
				rec[k] = nil
			} else {
				rec[k] = id.String()
			}
		default:
			rec[k] = v
		}
	}
	return rec
}

func recordFromRow(table string, row map[string]any) (*models.Record, error) {
	id, err := uuidFromValue(row["id"])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s id: %w", table, err)
	}
	version, err := intFromValue(row["version"])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s version: %w", table, err)
	}
	rec := &models.Record{
		Table:     table,
		ID:        id,
		Version:   version,
		UpdatedAt: timeFromValue(row["updated_at"]),
		Fields:    make(map[string]interface{}, len(row)),
	}
	for k, v := range row {
		switch k {
		case "id", "version", "updated_at":
			continue
		}
		rec.Fields[k] = v
	}
	return rec, nil
}
