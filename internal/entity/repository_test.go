package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Table:         "supplier",
		IDColumn:      "supplier_id",
		NameColumn:    "supplier_name",
		Columns:       []string{"supplier_id", "supplier_name", "supplier_type", "supplier_status"},
		Headers:       []string{"Supplier ID", "Supplier Name", "Type", "Status"},
		DisplayName:   "Supplier",
		StretchColumn: "Description",
	}
}

type recordedOp struct {
	table, op string
	err       error
}

type opRecorder struct {
	ops []recordedOp
}

func (r *opRecorder) ObserveOperation(table, op string, err error) {
	r.ops = append(r.ops, recordedOp{table: table, op: op, err: err})
}

func newMemRepo(t *testing.T) (*Repository, *memTable, *fakeDB) {
	t.Helper()
	table := newMemTable("supplier_id", "supplier_name")
	db := &fakeDB{handle: table.handle}
	repo, err := NewRepository(db, testSchema(), nil)
	require.NoError(t, err)
	return repo, table, db
}

func acme() Record {
	return Record{"supplier_name": "Acme", "supplier_type": "Direct", "supplier_status": "Active"}
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, testSchema().Validate())

	s := testSchema()
	s.Headers = s.Headers[:2]
	require.Error(t, s.Validate())

	s = testSchema()
	s.Columns = []string{"supplier_name", "supplier_id", "supplier_type", "supplier_status"}
	require.Error(t, s.Validate())

	s = testSchema()
	s.NameColumn = "code"
	require.Error(t, s.Validate())
}

func TestSchemaForDevMode(t *testing.T) {
	dev := testSchema().ForDevMode()
	assert.Equal(t, "supplier_dev", dev.Table)
	assert.Equal(t, "supplier_dev", dev.ForDevMode().Table)
	assert.Equal(t, "supplier", testSchema().Table)
	assert.Equal(t, "ab_dev", Schema{Table: "ab"}.ForDevMode().Table)
	assert.Equal(t, "dev_dev", Schema{Table: "dev"}.ForDevMode().Table)
}

func TestInsertReturnsPersistedRecord(t *testing.T) {
	repo, _, db := newMemRepo(t)

	rec, err := repo.Insert(context.Background(), acme())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec["supplier_id"])
	assert.Equal(t, "Acme", rec["supplier_name"])
	assert.Equal(t, 1, db.commits)
	assert.Equal(t, 0, db.rollbacks)

	require.Len(t, db.statements, 1)
	assert.Equal(t,
		`INSERT INTO "supplier" ("supplier_name", "supplier_type", "supplier_status") VALUES ($1, $2, $3) RETURNING "supplier_id", "supplier_name", "supplier_type", "supplier_status"`,
		db.statements[0].sql)
	assert.Equal(t, []any{"Acme", "Direct", "Active"}, db.statements[0].args)
	assert.True(t, db.statements[0].inTx)
}

func TestInsertRollsBackOnFailure(t *testing.T) {
	repo, table, db := newMemRepo(t)
	table.failNext = errors.New("relation does not exist")

	rec, err := repo.Insert(context.Background(), acme())
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Contains(t, err.Error(), "relation does not exist")
	assert.Equal(t, 0, db.commits)
	assert.Equal(t, 1, db.rollbacks)
	assert.Empty(t, table.rows)
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	repo, table, _ := newMemRepo(t)
	table.failNext = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

	_, err := repo.Insert(context.Background(), acme())
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestInsertRejectsUnknownColumn(t *testing.T) {
	repo, _, db := newMemRepo(t)

	_, err := repo.Insert(context.Background(), Record{"supplier_name": "Acme", "owner": "x"})
	require.ErrorIs(t, err, ErrUnknownColumn)
	assert.Empty(t, db.statements)
	assert.Equal(t, 0, db.begins)
}

func TestOperationsWithoutConnection(t *testing.T) {
	ctx := context.Background()
	rec := &opRecorder{}
	repo, err := NewRepository(nil, testSchema(), rec)
	require.NoError(t, err)

	records, err := repo.Load(ctx, nil, "")
	require.ErrorIs(t, err, ErrNoConnection)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	inserted, err := repo.Insert(ctx, acme())
	require.ErrorIs(t, err, ErrNoConnection)
	assert.Nil(t, inserted)

	updated, err := repo.Update(ctx, 5, acme())
	require.ErrorIs(t, err, ErrNoConnection)
	assert.Nil(t, updated)

	require.ErrorIs(t, repo.SoftDelete(ctx, 5), ErrNoConnection)

	exists, err := repo.NameExists(ctx, "Acme", 0)
	require.ErrorIs(t, err, ErrNoConnection)
	assert.False(t, exists)

	require.Len(t, rec.ops, 5)
	for _, op := range rec.ops {
		assert.ErrorIs(t, op.err, ErrNoConnection, op.op)
	}
}

func TestLoadOrdersByIDAndSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	repo, _, db := newMemRepo(t)

	first, err := repo.Insert(ctx, acme())
	require.NoError(t, err)
	_, err = repo.Insert(ctx, Record{"supplier_name": "Globex", "supplier_type": "Other", "supplier_status": "Inactive"})
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, first["supplier_id"].(int64)))

	records, err := repo.Load(ctx, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Globex", records[0]["supplier_name"])

	last := db.statements[len(db.statements)-1]
	assert.Equal(t,
		`SELECT "supplier_id", "supplier_name", "supplier_type", "supplier_status" FROM "supplier" WHERE deleted_at IS NULL ORDER BY "supplier_id" ASC`,
		last.sql)
	assert.False(t, last.inTx)
}

func TestSoftDeleteKeepsRawRow(t *testing.T) {
	ctx := context.Background()
	repo, table, _ := newMemRepo(t)

	rec, err := repo.Insert(ctx, acme())
	require.NoError(t, err)
	id := rec["supplier_id"].(int64)

	require.NoError(t, repo.SoftDelete(ctx, id))
	require.Len(t, table.rows, 1)
	assert.NotNil(t, table.rows[0]["deleted_at"])

	err = repo.SoftDelete(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, id, Record{"supplier_name": "Acme 2"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSetsTimestamp(t *testing.T) {
	ctx := context.Background()
	repo, table, db := newMemRepo(t)

	rec, err := repo.Insert(ctx, acme())
	require.NoError(t, err)

	updated, err := repo.Update(ctx, rec["supplier_id"].(int64), Record{"supplier_name": "Acme Ltd", "supplier_status": "Inactive"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated["supplier_name"])
	assert.Equal(t, "Direct", updated["supplier_type"])
	assert.NotNil(t, table.rows[0]["updated_at"])

	last := db.statements[len(db.statements)-1]
	assert.Equal(t,
		`UPDATE "supplier" SET "supplier_name" = $1, "supplier_status" = $2, updated_at = CURRENT_TIMESTAMP WHERE "supplier_id" = $3 AND deleted_at IS NULL RETURNING "supplier_id", "supplier_name", "supplier_type", "supplier_status"`,
		last.sql)
	assert.Equal(t, []any{"Acme Ltd", "Inactive", int64(1)}, last.args)
}

func TestUpdateIgnoresIDInData(t *testing.T) {
	ctx := context.Background()
	repo, _, db := newMemRepo(t)
	_, err := repo.Insert(ctx, acme())
	require.NoError(t, err)

	_, err = repo.Update(ctx, 1, Record{"supplier_id": int64(99), "supplier_name": "Acme"})
	require.NoError(t, err)
	last := db.statements[len(db.statements)-1]
	assert.Equal(t, []any{"Acme", int64(1)}, last.args)
}

func TestUpdateRejectsInvalidID(t *testing.T) {
	repo, _, db := newMemRepo(t)
	_, err := repo.Update(context.Background(), 0, acme())
	require.ErrorIs(t, err, ErrInvalidID)
	require.ErrorIs(t, repo.SoftDelete(context.Background(), -1), ErrInvalidID)
	assert.Empty(t, db.statements)
}

func TestNameExistsScopedToLiveRows(t *testing.T) {
	ctx := context.Background()
	repo, _, db := newMemRepo(t)

	rec, err := repo.Insert(ctx, acme())
	require.NoError(t, err)
	id := rec["supplier_id"].(int64)

	exists, err := repo.NameExists(ctx, "Acme", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t,
		`SELECT EXISTS (SELECT 1 FROM "supplier" WHERE "supplier_name" = $1 AND deleted_at IS NULL)`,
		db.statements[len(db.statements)-1].sql)

	exists, err = repo.NameExists(ctx, "Acme", id)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t,
		`SELECT EXISTS (SELECT 1 FROM "supplier" WHERE "supplier_name" = $1 AND deleted_at IS NULL AND "supplier_id" <> $2)`,
		db.statements[len(db.statements)-1].sql)

	require.NoError(t, repo.SoftDelete(ctx, id))
	exists, err = repo.NameExists(ctx, "Acme", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNameExistsQueryFailure(t *testing.T) {
	repo, table, _ := newMemRepo(t)
	table.failNext = errors.New("connection reset")

	exists, err := repo.NameExists(context.Background(), "Acme", 0)
	require.Error(t, err)
	assert.False(t, exists)
}

func TestRecorderSeesOutcomes(t *testing.T) {
	table := newMemTable("supplier_id", "supplier_name")
	rec := &opRecorder{}
	repo, err := NewRepository(&fakeDB{handle: table.handle}, testSchema(), rec)
	require.NoError(t, err)

	_, err = repo.Insert(context.Background(), acme())
	require.NoError(t, err)
	table.failNext = errors.New("boom")
	_, err = repo.Load(context.Background(), nil, "")
	require.Error(t, err)

	require.Len(t, rec.ops, 2)
	assert.Equal(t, recordedOp{table: "supplier", op: "insert"}, rec.ops[0])
	assert.Equal(t, "load", rec.ops[1].op)
	assert.Error(t, rec.ops[1].err)
}

func TestParseID(t *testing.T) {
	for _, in := range []any{int64(7), int32(7), 7, "7", " 7 "} {
		id, err := ParseID(in)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	}
	_, err := ParseID(nil)
	require.Error(t, err)
	_, err = ParseID("abc")
	require.Error(t, err)
}
