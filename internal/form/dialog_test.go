package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
	"github.com/onexcrm/onexcrm/internal/notice"
)

type vendorInput struct {
	Name   string `col:"vendor_name" label:"Vendor Name" validate:"required,max=100,entityname"`
	Phone  string `col:"vendor_phone" label:"Vendor Contact" validate:"omitempty,max=50,contact"`
	Status string `col:"status" label:"Status" validate:"option=vendor_status"`
	Note   string `col:"note" label:"Description" validate:"max=500"`
	Since  string `col:"since" label:"Start Date" validate:"omitempty,datetime=2006-01-02"`
}

type vendorForm struct {
	*Base
}

func newVendorForm(mode Mode) EntityForm {
	RegisterOptions("vendor_status", shared.StatusOptions)
	f := &vendorForm{Base: NewBase(mode, "vendor_name", "vendor_phone", "status", "note", "since")}
	_ = f.Set("status", "Active")
	return f
}

func (f *vendorForm) NameField() (string, string) {
	return "vendor_name", strings.TrimSpace(f.Get("vendor_name"))
}

func (f *vendorForm) Confirm() (entity.Record, error) {
	in := vendorInput{
		Name:   strings.TrimSpace(f.Get("vendor_name")),
		Phone:  f.Get("vendor_phone"),
		Status: f.Get("status"),
		Note:   f.Get("note"),
		Since:  f.Get("since"),
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	return entity.Record{"vendor_name": in.Name, "vendor_phone": in.Phone, "status": in.Status}, nil
}

type memoryStore struct {
	names     map[int64]string
	nextID    int64
	inserts   int
	updates   int
	lookups   []int64
	looked    []string
	lookupErr error
	writeErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{names: map[int64]string{}, nextID: 1}
}

func (s *memoryStore) Insert(ctx context.Context, data entity.Record) (entity.Record, error) {
	s.inserts++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	id := s.nextID
	s.nextID++
	s.names[id] = data["vendor_name"].(string)
	out := data.Clone()
	out["vendor_id"] = id
	return out, nil
}

func (s *memoryStore) Update(ctx context.Context, id int64, data entity.Record) (entity.Record, error) {
	s.updates++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.names[id] = data["vendor_name"].(string)
	out := data.Clone()
	out["vendor_id"] = id
	return out, nil
}

func (s *memoryStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	s.lookups = append(s.lookups, excludeID)
	s.looked = append(s.looked, name)
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	for id, n := range s.names {
		if n == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func submit(t *testing.T, store *memoryStore, mode Mode, id int64, values map[string]string) (entity.Record, *notice.Recorder, EntityForm, error) {
	t.Helper()
	f := newVendorForm(mode)
	for k, v := range values {
		require.NoError(t, f.Set(k, v))
	}
	rec := &notice.Recorder{}
	d := &Dialog{Form: f, Store: store, Notifier: rec, Label: "Vendor", ID: id}
	out, err := d.Submit(context.Background())
	return out, rec, f, err
}

func TestSubmitAddPersists(t *testing.T) {
	store := newMemoryStore()
	rec, notes, _, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": " Acme "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec["vendor_id"])
	assert.Equal(t, "Acme", rec["vendor_name"])
	assert.Equal(t, []int64{0}, store.lookups)
	assert.Equal(t, []string{"Acme"}, store.looked)
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, notice.Notice{Level: notice.Info, Title: "Success", Message: "✅ Vendor added"}, notes.Notices[0])
}

func TestSubmitDuplicateBlocksInsert(t *testing.T) {
	store := newMemoryStore()
	store.names[1] = "Acme"

	rec, notes, f, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": "Acme"})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, Reopen(err))
	assert.Nil(t, rec)
	assert.Equal(t, 0, store.inserts)
	assert.True(t, f.Marked("vendor_name"))
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, "Duplicate Name", notes.Notices[0].Title)
	assert.Equal(t, `A vendor with the name "Acme" already exists.`, notes.Notices[0].Message)

	require.NoError(t, f.Set("vendor_name", "Acme Two"))
	assert.False(t, f.Marked("vendor_name"))
}

func TestSubmitPaddedDuplicateBlocksInsert(t *testing.T) {
	store := newMemoryStore()
	store.names[1] = "Acme"

	_, _, f, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": " Acme "})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Zero(t, store.inserts)
	assert.Equal(t, []string{"Acme"}, store.looked)
	assert.True(t, f.Marked("vendor_name"))
}

func TestSubmitEditExcludesOwnID(t *testing.T) {
	store := newMemoryStore()
	store.names[5] = "Acme"
	store.names[7] = "Globex"

	_, _, _, err := submit(t, store, ModeEdit, 5, map[string]string{"vendor_name": "Globex"})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, 0, store.updates)

	rec, _, _, err := submit(t, store, ModeEdit, 5, map[string]string{"vendor_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec["vendor_id"])
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, []int64{5, 5}, store.lookups)
}

func TestSubmitLookupFailureAborts(t *testing.T) {
	store := newMemoryStore()
	store.lookupErr = entity.ErrNoConnection

	_, notes, _, err := submit(t, store, ModeEdit, 3, map[string]string{"vendor_name": "Acme"})
	require.ErrorIs(t, err, ErrAborted)
	require.ErrorIs(t, err, entity.ErrNoConnection)
	assert.False(t, Reopen(err))
	assert.Equal(t, 0, store.updates)
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, "❌ Could not connect to database", notes.Notices[0].Message)
}

func TestSubmitValidationFailsBeforeLookup(t *testing.T) {
	store := newMemoryStore()

	_, notes, _, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": "Acme & Co"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "vendor_name", verr.Field)
	assert.Equal(t, "Vendor Name contains invalid characters.", verr.Message)
	assert.Empty(t, store.lookups)
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, notice.Warning, notes.Notices[0].Level)
}

func TestSubmitWriteFailureNotifiesOnce(t *testing.T) {
	store := newMemoryStore()
	store.writeErr = errors.New("entity: insert vendor: disk full")

	_, notes, _, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": "Acme"})
	require.Error(t, err)
	assert.False(t, Reopen(err))
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, notice.Critical, notes.Notices[0].Level)
	assert.Contains(t, notes.Notices[0].Message, "Failed to add vendor")
	assert.Contains(t, notes.Notices[0].Message, "disk full")
}

func TestSubmitStoreUniqueViolationIsDuplicate(t *testing.T) {
	store := newMemoryStore()
	store.writeErr = errors.Join(entity.ErrDuplicate, &pgconn.PgError{Code: "23505"})

	_, notes, f, err := submit(t, store, ModeAdd, 0, map[string]string{"vendor_name": "Acme"})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, f.Marked("vendor_name"))
	require.Len(t, notes.Notices, 1)
	assert.Equal(t, "Duplicate Name", notes.Notices[0].Title)
}

func TestValidateMessages(t *testing.T) {
	RegisterOptions("vendor_status", shared.StatusOptions)
	cases := []struct {
		in   vendorInput
		want string
	}{
		{vendorInput{Status: "Active"}, "Vendor Name cannot be empty."},
		{vendorInput{Name: strings.Repeat("a", 101), Status: "Active"}, "Vendor Name exceeds maximum length of 100."},
		{vendorInput{Name: "Acme", Phone: "+60 (12) 345-678", Status: "Gone"}, "Status selection is invalid."},
		{vendorInput{Name: "Acme", Phone: "call@me", Status: "Active"}, "Vendor Contact contains invalid characters."},
		{vendorInput{Name: "Acme", Status: "Active", Note: strings.Repeat("x", 501)}, "Description exceeds maximum length of 500."},
		{vendorInput{Name: "Acme", Status: "Active", Since: "01-05-2024"}, "Please enter a valid Start Date."},
	}
	for _, tc := range cases {
		err := Validate(tc.in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tc.want)
		assert.Equal(t, tc.want, verr.Message)
	}
	require.NoError(t, Validate(vendorInput{Name: "Acme 2", Status: "Inactive", Since: "2024-05-01"}))
}

func TestGuardVerdicts(t *testing.T) {
	notes := &notice.Recorder{}
	g := Guard{Notifier: notes}
	f := newVendorForm(ModeAdd)

	assert.Equal(t, VerdictDuplicate, g.Check(f, "Vendor", "vendor_name", "Acme", true, nil))
	assert.True(t, f.Marked("vendor_name"))

	assert.Equal(t, VerdictProceed, g.Check(f, "Vendor", "vendor_name", "Acme", false, nil))
	assert.False(t, f.Marked("vendor_name"))

	assert.Equal(t, VerdictAbort, g.Check(f, "Vendor", "vendor_name", "Acme", false, errors.New("timeout")))
	assert.Len(t, notes.Notices, 2)
}

func TestBasePopulateAndSet(t *testing.T) {
	f := newVendorForm(ModeEdit)
	f.Populate(entity.Record{"vendor_id": "4", "vendor_name": "Acme", "note": nil})
	values := f.Values()
	assert.Equal(t, "Acme", values["vendor_name"])
	assert.Equal(t, "", values["note"])
	assert.NotContains(t, values, "vendor_id")
	assert.Equal(t, ModeEdit, f.Mode())
	require.Error(t, f.Set("vendor_id", "9"))
}

func TestCounter(t *testing.T) {
	assert.Equal(t, 497, Remaining("abc", 500))
	assert.Equal(t, 0, Remaining(strings.Repeat("é", 510), 500))
	assert.Equal(t, "éé", Clip("ééé", 2))
	assert.Equal(t, "ab", Clip("ab", 5))
}
