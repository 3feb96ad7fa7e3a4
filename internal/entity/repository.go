package entity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/onexcrm/onexcrm/internal/platform/db"
)

const uniqueViolation = "23505"

// DB is the database handle used by the repository. *pgxpool.Pool satisfies it.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Recorder observes repository outcomes.
type Recorder interface {
	ObserveOperation(table, op string, err error)
}

// Repository runs parameterised CRUD statements against one table.
type Repository struct {
	db       DB
	schema   Schema
	recorder Recorder
}

// NewRepository builds a repository for schema. A nil db is allowed; every
// operation then fails with ErrNoConnection.
func NewRepository(db DB, schema Schema, recorder Recorder) (*Repository, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Repository{db: db, schema: schema, recorder: recorder}, nil
}

// Schema returns the table configuration.
func (r *Repository) Schema() Schema {
	return r.schema
}

// Load returns the live rows ordered ascending by orderBy.
func (r *Repository) Load(ctx context.Context, columns []string, orderBy string) (records []Record, err error) {
	defer func() { r.observe("load", err) }()
	if r.db == nil {
		return []Record{}, ErrNoConnection
	}
	if len(columns) == 0 {
		columns = r.schema.Columns
	}
	if orderBy == "" {
		orderBy = r.schema.IDColumn
	}
	if err := r.checkColumns(append([]string{orderBy}, columns...)); err != nil {
		return []Record{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL ORDER BY %s ASC`,
		joinIdents(columns), r.table(), ident(orderBy))
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return []Record{}, fmt.Errorf("entity: load %s: %w", r.schema.Table, err)
	}
	records, err = collect(rows, columns)
	if err != nil {
		return []Record{}, fmt.Errorf("entity: load %s: %w", r.schema.Table, err)
	}
	return records, nil
}

// Insert stores data and returns the persisted record including its id.
func (r *Repository) Insert(ctx context.Context, data Record) (record Record, err error) {
	defer func() { r.observe("insert", err) }()
	if r.db == nil {
		return nil, ErrNoConnection
	}
	cols, args, err := r.assignments(data)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		r.table(), joinIdents(cols), strings.Join(placeholders, ", "), joinIdents(r.schema.Columns))

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err := collect(rows, r.schema.Columns)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return errors.New("insert returned no row")
		}
		record = out[0]
		return nil
	})
	if err != nil {
		return nil, r.wrap("insert", err)
	}
	return record, nil
}

// Update sets every column in data plus updated_at for the live row id and
// returns the row as persisted.
func (r *Repository) Update(ctx context.Context, id int64, data Record) (record Record, err error) {
	defer func() { r.observe("update", err) }()
	if r.db == nil {
		return nil, ErrNoConnection
	}
	if id <= 0 {
		return nil, ErrInvalidID
	}
	cols, args, err := r.assignments(data)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(col), i+1))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d AND deleted_at IS NULL RETURNING %s`,
		r.table(), strings.Join(sets, ", "), ident(r.schema.IDColumn), len(args), joinIdents(r.schema.Columns))

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err := collect(rows, r.schema.Columns)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return ErrNotFound
		}
		record = out[0]
		return nil
	})
	if err != nil {
		return nil, r.wrap("update", err)
	}
	return record, nil
}

// SoftDelete stamps deleted_at on row id so every later read skips it.
func (r *Repository) SoftDelete(ctx context.Context, id int64) (err error) {
	defer func() { r.observe("soft_delete", err) }()
	if r.db == nil {
		return ErrNoConnection
	}
	if id <= 0 {
		return ErrInvalidID
	}
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = CURRENT_TIMESTAMP WHERE %s = $1 AND deleted_at IS NULL`,
		r.table(), ident(r.schema.IDColumn))

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return r.wrap("soft delete", err)
	}
	return nil
}

// NameExists reports whether a live row already uses name. A positive
// excludeID skips that row, which lets a record keep its own name on edit.
func (r *Repository) NameExists(ctx context.Context, name string, excludeID int64) (exists bool, err error) {
	defer func() { r.observe("name_exists", err) }()
	if r.db == nil {
		return false, ErrNoConnection
	}
	if r.schema.NameColumn == "" {
		return false, nil
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND deleted_at IS NULL`,
		r.table(), ident(r.schema.NameColumn))
	args := []any{name}
	if excludeID > 0 {
		query += fmt.Sprintf(` AND %s <> $2`, ident(r.schema.IDColumn))
		args = append(args, excludeID)
	}
	query += `)`

	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("entity: name exists %s: %w", r.schema.Table, err)
	}
	return exists, nil
}

// assignments orders data by the schema, dropping the id column.
func (r *Repository) assignments(data Record) ([]string, []any, error) {
	for col := range data {
		if !r.schema.HasColumn(col) {
			return nil, nil, fmt.Errorf("entity: %s.%s: %w", r.schema.Table, col, ErrUnknownColumn)
		}
	}
	var cols []string
	var args []any
	for _, col := range r.schema.Columns[1:] {
		v, ok := data[col]
		if !ok {
			continue
		}
		cols = append(cols, col)
		args = append(args, v)
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("entity: %s: no columns to write", r.schema.Table)
	}
	return cols, args, nil
}

func (r *Repository) checkColumns(cols []string) error {
	for _, col := range cols {
		if !r.schema.HasColumn(col) {
			return fmt.Errorf("entity: %s.%s: %w", r.schema.Table, col, ErrUnknownColumn)
		}
	}
	return nil
}

func (r *Repository) wrap(action string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("entity: %s %s: %w", action, r.schema.Table, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("entity: %s %s: %w: %s", action, r.schema.Table, ErrDuplicate, pgErr.Message)
	}
	return fmt.Errorf("entity: %s %s: %w", action, r.schema.Table, err)
}

func (r *Repository) observe(op string, err error) {
	if r.recorder != nil {
		r.recorder.ObserveOperation(r.schema.Table, op, err)
	}
}

func (r *Repository) table() string {
	return ident(r.schema.Table)
}

func collect(rows pgx.Rows, columns []string) ([]Record, error) {
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(values) {
				rec[col] = values[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = ident(name)
	}
	return strings.Join(quoted, ", ")
}
