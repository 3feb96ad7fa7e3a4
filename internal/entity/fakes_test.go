package entity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================================================
// SCRIPTED PGX FAKES
// ============================================================================

type result struct {
	rows     [][]any
	affected int64
}

type statement struct {
	sql  string
	args []any
	inTx bool
}

type fakeDB struct {
	handle     func(sql string, args []any) (result, error)
	statements []statement
	begins     int
	commits    int
	rollbacks  int
	beginErr   error
	commitErr  error
}

func (f *fakeDB) run(sql string, args []any, inTx bool) (result, error) {
	f.statements = append(f.statements, statement{sql: sql, args: args, inTx: inTx})
	if f.handle == nil {
		return result{}, nil
	}
	return f.handle(sql, args)
}

func (f *fakeDB) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begins++
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res, err := f.run(sql, args, false)
	if err != nil {
		return nil, err
	}
	return &fakeRows{rows: res.rows}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	res, err := f.run(sql, args, false)
	return fakeRow{rows: res.rows, err: err}
}

type fakeTx struct {
	pgx.Tx
	db   *fakeDB
	done bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res, err := t.db.run(sql, args, true)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", res.affected)), nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res, err := t.db.run(sql, args, true)
	if err != nil {
		return nil, err
	}
	return &fakeRows{rows: res.rows}, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if t.db.commitErr != nil {
		t.db.rollbacks++
		return t.db.commitErr
	}
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.rollbacks++
	return nil
}

type fakeRows struct {
	pgx.Rows
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

type fakeRow struct {
	rows [][]any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(r.rows) == 0 {
		return pgx.ErrNoRows
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.rows[0][i].(bool)
		default:
			return fmt.Errorf("fake row: unsupported dest %T", d)
		}
	}
	return nil
}

// ============================================================================
// IN-MEMORY TABLE SPEAKING THE REPOSITORY'S SQL
// ============================================================================

var identPattern = regexp.MustCompile(`"([^"]+)"`)

func idents(sql string) []string {
	var out []string
	for _, m := range identPattern.FindAllStringSubmatch(sql, -1) {
		out = append(out, m[1])
	}
	return out
}

type memTable struct {
	idColumn   string
	nameColumn string
	rows       []Record
	nextID     int64
	failNext   error
	now        time.Time
}

func newMemTable(idColumn, nameColumn string) *memTable {
	return &memTable{idColumn: idColumn, nameColumn: nameColumn, nextID: 1, now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memTable) find(id any) Record {
	for _, row := range m.rows {
		if row[m.idColumn] == id {
			return row
		}
	}
	return nil
}

func (m *memTable) project(row Record, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = row[c]
	}
	return out
}

func (m *memTable) handle(sql string, args []any) (result, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return result{}, err
	}
	switch {
	case strings.HasPrefix(sql, "SELECT EXISTS"):
		for _, row := range m.rows {
			if row["deleted_at"] != nil || row[m.nameColumn] != args[0] {
				continue
			}
			if len(args) == 2 && row[m.idColumn] == args[1] {
				continue
			}
			return result{rows: [][]any{{true}}}, nil
		}
		return result{rows: [][]any{{false}}}, nil

	case strings.HasPrefix(sql, "SELECT"):
		head, _, _ := strings.Cut(sql, " FROM ")
		cols := idents(head)
		var out [][]any
		for _, row := range m.rows {
			if row["deleted_at"] == nil {
				out = append(out, m.project(row, cols))
			}
		}
		return result{rows: out}, nil

	case strings.HasPrefix(sql, "INSERT"):
		head, tail, _ := strings.Cut(sql, " RETURNING ")
		cols := idents(head)[1:]
		row := Record{m.idColumn: m.nextID, "created_at": m.now, "updated_at": nil, "deleted_at": nil}
		m.nextID++
		for i, c := range cols {
			row[c] = args[i]
		}
		m.rows = append(m.rows, row)
		return result{rows: [][]any{m.project(row, idents(tail))}, affected: 1}, nil

	case strings.Contains(sql, "SET deleted_at"):
		row := m.find(args[0])
		if row == nil || row["deleted_at"] != nil {
			return result{}, nil
		}
		row["deleted_at"] = m.now
		return result{affected: 1}, nil

	case strings.HasPrefix(sql, "UPDATE"):
		head, tail, _ := strings.Cut(sql, " RETURNING ")
		setPart, _, _ := strings.Cut(head, " WHERE ")
		cols := idents(setPart)[1:]
		row := m.find(args[len(args)-1])
		if row == nil || row["deleted_at"] != nil {
			return result{}, nil
		}
		for i, c := range cols {
			row[c] = args[i]
		}
		row["updated_at"] = m.now
		return result{rows: [][]any{m.project(row, idents(tail))}, affected: 1}, nil
	}
	return result{}, errors.New("memtable: unsupported statement: " + sql)
}
