// infrastructure/recordstore/postgres_store.go
package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vitovidale/video-publisher-service/domain"
)

// Schema creates the single JSONB table every record service table maps onto.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    id           BIGSERIAL PRIMARY KEY,
    uuid         UUID NOT NULL UNIQUE,
    table_name   TEXT NOT NULL,
    data         JSONB NOT NULL DEFAULT '{}'::jsonb,
    version      INTEGER NOT NULL DEFAULT 1,
    date_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    date_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS records_table_name_idx ON records (table_name);
`

const recordsTable = "records"

var (
	recordColumns = []string{"id", "uuid", "table_name", "data", "version", "date_created", "date_updated"}
	fieldPattern  = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

type recordRow struct {
	ID          int64     `db:"id"`
	UUID        string    `db:"uuid"`
	TableName   string    `db:"table_name"`
	Data        []byte    `db:"data"`
	Version     int       `db:"version"`
	DateCreated time.Time `db:"date_created"`
	DateUpdated time.Time `db:"date_updated"`
}

func (r recordRow) toMap() (map[string]any, error) {
	m := map[string]any{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &m); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	m["id"] = r.ID
	m["uuid"] = r.UUID
	m["version"] = r.Version
	m["date_created"] = r.DateCreated.UTC().Format(time.RFC3339Nano)
	m["date_updated"] = r.DateUpdated.UTC().Format(time.RFC3339Nano)
	return m, nil
}

// PostgresStore implements the record service on top of a Postgres database,
// one JSONB row per record.
type PostgresStore struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the records table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate records table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, table string, data any, out any) error {
	fail := func(err error) error { return &domain.StoreError{Op: "create", Table: table, Err: err} }

	payload, err := toMap(data)
	if err != nil {
		return fail(err)
	}
	stripEnvelope(payload)
	raw, err := json.Marshal(payload)
	if err != nil {
		return fail(err)
	}

	query, args, err := s.qb.Insert(recordsTable).
		Columns("uuid", "table_name", "data").
		Values(uuid.NewString(), table, string(raw)).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return fail(fmt.Errorf("build query: %w", err))
	}

	var row recordRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return fail(err)
	}
	return s.decodeRow(row, out, fail)
}

func (s *PostgresStore) GetByUUID(ctx context.Context, table, id string, out any) error {
	fail := func(status int, err error) error {
		return &domain.StoreError{Op: "get", Table: table, UUID: id, StatusCode: status, Err: err}
	}
	if _, err := uuid.Parse(id); err != nil {
		return fail(http.StatusNotFound, errRecordMissing)
	}

	query, args, err := s.qb.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Eq{"table_name": table}).
		Where(sq.Eq{"uuid": id}).
		ToSql()
	if err != nil {
		return fail(0, fmt.Errorf("build query: %w", err))
	}

	var row recordRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(http.StatusNotFound, errRecordMissing)
		}
		return fail(0, err)
	}
	return s.decodeRow(row, out, func(err error) error { return fail(0, err) })
}

func (s *PostgresStore) Query(ctx context.Context, table string, opts domain.QueryOptions, out any) error {
	fail := func(err error) error { return &domain.StoreError{Op: "query", Table: table, Err: err} }

	query, args, err := s.buildSelect(table, opts)
	if err != nil {
		return fail(err)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fail(err)
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m, err := row.toMap()
		if err != nil {
			return fail(err)
		}
		records = append(records, m)
	}
	if err := decode(records, out); err != nil {
		return fail(err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, table, id string, data any, out any) error {
	return s.update(ctx, table, id, -1, data, out)
}

func (s *PostgresStore) UpdateVersioned(ctx context.Context, table, id string, expectedVersion int, data any, out any) error {
	return s.update(ctx, table, id, expectedVersion, data, out)
}

func (s *PostgresStore) update(ctx context.Context, table, id string, expectedVersion int, data any, out any) error {
	fail := func(status int, err error) error {
		return &domain.StoreError{Op: "update", Table: table, UUID: id, StatusCode: status, Err: err}
	}
	if _, err := uuid.Parse(id); err != nil {
		return fail(http.StatusNotFound, errRecordMissing)
	}

	query, args, err := s.buildUpdate(table, id, expectedVersion, data)
	if err != nil {
		return fail(0, err)
	}

	var row recordRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		if expectedVersion < 0 {
			return fail(http.StatusNotFound, errRecordMissing)
		}
		exists, existsErr := s.Exists(ctx, table, id)
		if existsErr != nil {
			return fail(0, existsErr)
		}
		if !exists {
			return fail(http.StatusNotFound, errRecordMissing)
		}
		return fail(http.StatusPreconditionFailed, fmt.Errorf("expected version %d is stale", expectedVersion))
	}
	if err != nil {
		return fail(0, err)
	}
	return s.decodeRow(row, out, func(err error) error { return fail(0, err) })
}

func (s *PostgresStore) Delete(ctx context.Context, table, id string) error {
	fail := func(status int, err error) error {
		return &domain.StoreError{Op: "delete", Table: table, UUID: id, StatusCode: status, Err: err}
	}
	if _, err := uuid.Parse(id); err != nil {
		return fail(http.StatusNotFound, errRecordMissing)
	}

	query, args, err := s.qb.Delete(recordsTable).
		Where(sq.Eq{"table_name": table}).
		Where(sq.Eq{"uuid": id}).
		ToSql()
	if err != nil {
		return fail(0, fmt.Errorf("build query: %w", err))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fail(0, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fail(http.StatusNotFound, errRecordMissing)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, table string, opts domain.QueryOptions) (int, error) {
	builder := s.qb.Select("COUNT(*)").From(recordsTable).Where(sq.Eq{"table_name": table})
	builder, err := applyWhere(builder, opts.Where)
	if err != nil {
		return 0, &domain.StoreError{Op: "count", Table: table, Err: err}
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, &domain.StoreError{Op: "count", Table: table, Err: fmt.Errorf("build query: %w", err)}
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, &domain.StoreError{Op: "count", Table: table, Err: err}
	}
	return count, nil
}

func (s *PostgresStore) Exists(ctx context.Context, table, id string) (bool, error) {
	err := s.GetByUUID(ctx, table, id, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *PostgresStore) buildSelect(table string, opts domain.QueryOptions) (string, []any, error) {
	builder := s.qb.Select(recordColumns...).From(recordsTable).Where(sq.Eq{"table_name": table})
	builder, err := applyWhere(builder, opts.Where)
	if err != nil {
		return "", nil, err
	}

	orderBy, err := orderClause(opts.OrderBy)
	if err != nil {
		return "", nil, err
	}
	builder = builder.OrderBy(orderBy)
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		builder = builder.Offset(uint64(opts.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return query, args, nil
}

func (s *PostgresStore) buildUpdate(table, id string, expectedVersion int, data any) (string, []any, error) {
	patch, err := toMap(data)
	if err != nil {
		return "", nil, err
	}
	stripEnvelope(patch)
	raw, err := json.Marshal(patch)
	if err != nil {
		return "", nil, err
	}

	builder := s.qb.Update(recordsTable).
		Set("data", sq.Expr("data || ?::jsonb", string(raw))).
		Set("version", sq.Expr("version + 1")).
		Set("date_updated", sq.Expr("NOW()")).
		Where(sq.Eq{"table_name": table}).
		Where(sq.Eq{"uuid": id})
	if expectedVersion >= 0 {
		builder = builder.Where(sq.Eq{"version": expectedVersion})
	}

	query, args, err := builder.Suffix("RETURNING " + columnList()).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return query, args, nil
}

func (s *PostgresStore) decodeRow(row recordRow, out any, fail func(error) error) error {
	m, err := row.toMap()
	if err != nil {
		return fail(err)
	}
	if err := decode(m, out); err != nil {
		return fail(err)
	}
	return nil
}

func applyWhere(builder sq.SelectBuilder, where map[string]any) (sq.SelectBuilder, error) {
	for _, key := range sortedKeys(where) {
		if !fieldPattern.MatchString(key) {
			return builder, fmt.Errorf("invalid filter field %q", key)
		}
		switch key {
		case "id", "uuid", "version":
			builder = builder.Where(sq.Eq{key: where[key]})
		default:
			builder = builder.Where(sq.Expr("data->>? = ?", key, fmt.Sprint(where[key])))
		}
	}
	return builder, nil
}

func orderClause(orderBy string) (string, error) {
	field, desc := parseOrderBy(orderBy)
	if field == "" {
		field = "id"
	}
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid order field %q", field)
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	switch field {
	case "id", "version", "date_created", "date_updated":
		return field + " " + direction, nil
	}
	return fmt.Sprintf("data->>'%s' %s", field, direction), nil
}

func columnList() string {
	return strings.Join(recordColumns, ", ")
}
