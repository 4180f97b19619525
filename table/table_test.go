package table

import (
	"os"
	"testing"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/schema"
)

func newTestPool(t *testing.T, capacity int) (*buffer.Pool, func()) {
	t.Helper()
	d, err := disk.OpenRandom()
	if err != nil {
		t.Fatalf("OpenRandom failed: %v", err)
	}
	cleanup := func() {
		path := d.Path()
		d.Close()
		os.Remove(path)
	}
	return buffer.New(d, capacity), cleanup
}

func testSchema() schema.Schema {
	return schema.Schema{Columns: []schema.Column{
		{Name: "id", Type: schema.INT, Nullable: false, PrimaryKey: true},
		{Name: "name", Type: schema.VARCHAR, Nullable: true, MaxLen: 32},
	}}
}

func TestAppendGetRoundTrip(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rid, err := tbl.Append([]schema.Datum{schema.NewInt(1), schema.NewVarchar("alice")})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[0].Int != 1 || got[1].Str != "alice" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestOpenReloadsSchemaAndRows(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rid, err := tbl.Append([]schema.Datum{schema.NewInt(42), schema.NewNull(schema.VARCHAR)})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	reopened, err := Open(pool, tbl.RootId())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(reopened.Schema.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(reopened.Schema.Columns))
	}
	got, err := reopened.Get(rid)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got[0].Int != 42 || !got[1].Null {
		t.Errorf("row mismatch after reopen: %+v", got)
	}
}

func TestAppendAllocatesNewSliceWhenFull(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	big := make([]byte, 32)
	for i := range big {
		big[i] = 'x'
	}
	// enough large rows to force at least one extra slice.
	var last RID
	for i := 0; i < 400; i++ {
		rid, err := tbl.Append([]schema.Datum{schema.NewInt(int32(i)), schema.NewVarchar(string(big))})
		if err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		last = rid
	}
	if last.PageId == tbl.RootId() {
		t.Errorf("rows should never land on the root page")
	}

	count := 0
	if err := tbl.Iter(func(rid RID, values []schema.Datum) bool {
		count++
		return true
	}); err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	if count != 400 {
		t.Errorf("expected 400 rows via Iter, got %d", count)
	}
}

func TestRemoveTombstonesAndExcludesFromIter(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	r1, _ := tbl.Append([]schema.Datum{schema.NewInt(1), schema.NewVarchar("a")})
	r2, _ := tbl.Append([]schema.Datum{schema.NewInt(2), schema.NewVarchar("b")})

	if err := tbl.Remove(r1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := tbl.Get(r1); err == nil {
		t.Errorf("expected Get of removed row to fail")
	}
	got, err := tbl.Get(r2)
	if err != nil || got[0].Int != 2 {
		t.Errorf("sibling row disturbed by remove: %+v err=%v", got, err)
	}

	count := 0
	tbl.Iter(func(rid RID, values []schema.Datum) bool {
		count++
		return true
	})
	if count != 1 {
		t.Errorf("expected 1 live row after remove, got %d", count)
	}
}

func TestReferencedRowCannotBeRemoved(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rid, _ := tbl.Append([]schema.Datum{schema.NewInt(1), schema.NewVarchar("a")})

	if err := tbl.PinRef(rid); err != nil {
		t.Fatalf("PinRef failed: %v", err)
	}
	err = tbl.Remove(rid)
	if dberrors.KindOf(err) != dberrors.ReferencedRow {
		t.Fatalf("expected ReferencedRow, got %v", err)
	}

	if err := tbl.UnpinRef(rid); err != nil {
		t.Fatalf("UnpinRef failed: %v", err)
	}
	if err := tbl.Remove(rid); err != nil {
		t.Fatalf("Remove after unpin should succeed, got: %v", err)
	}
}

func TestUpdateSameLengthInPlace(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rid, _ := tbl.Append([]schema.Datum{schema.NewInt(1), schema.NewVarchar("ab")})

	newRid, err := tbl.Update(rid, []schema.Datum{schema.NewInt(1), schema.NewVarchar("cd")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if newRid != rid {
		t.Errorf("expected in-place update to keep the same RID, got %+v want %+v", newRid, rid)
	}
	got, err := tbl.Get(newRid)
	if err != nil || got[1].Str != "cd" {
		t.Errorf("update not applied: %+v err=%v", got, err)
	}
}

func TestUpdateDifferentLengthReappends(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tbl, err := Create(pool, testSchema())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rid, _ := tbl.Append([]schema.Datum{schema.NewInt(1), schema.NewVarchar("a")})

	newRid, err := tbl.Update(rid, []schema.Datum{schema.NewInt(1), schema.NewVarchar("a much longer name")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := tbl.Get(newRid)
	if err != nil || got[1].Str != "a much longer name" {
		t.Errorf("updated row not retrievable at new RID: %+v err=%v", got, err)
	}
	if _, err := tbl.Get(rid); err == nil {
		t.Errorf("expected old RID to be gone after grow-update")
	}
}
