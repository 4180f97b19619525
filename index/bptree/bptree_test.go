package bptree

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
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

func encodeKey(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

func decodeKey(b []byte) int32 { return int32(binary.BigEndian.Uint32(b)) }

func ridFor(v int32) RID { return RID{PageId: uint32(v), Slot: 0} }

func TestInsertFindRoundTrip(t *testing.T) {
	pool, cleanup := newTestPool(t, 32)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, v := range []int32{10, 5, 20, 1, 15} {
		if err := tree.Insert(encodeKey(v), ridFor(v)); err != nil {
			t.Fatalf("Insert(%d) failed: %v", v, err)
		}
	}

	for _, v := range []int32{10, 5, 20, 1, 15} {
		rids, err := tree.Find(encodeKey(v))
		if err != nil {
			t.Fatalf("Find(%d) failed: %v", v, err)
		}
		if len(rids) != 1 || rids[0] != ridFor(v) {
			t.Errorf("Find(%d) = %v, want [%v]", v, rids, ridFor(v))
		}
	}

	if rids, err := tree.Find(encodeKey(999)); err != nil || len(rids) != 0 {
		t.Errorf("Find of absent key = %v, %v; want empty, nil", rids, err)
	}
}

func TestInsertCausesSplitAndMultiLevelHeight(t *testing.T) {
	pool, cleanup := newTestPool(t, 64)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// a 16 KiB leaf holds 818 entries of a 4-byte key and 8-byte RID, so
	// 2000 keys force leaf splits and a new root.
	const n = 2000
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(encodeKey(i), ridFor(i)); err != nil {
			t.Fatalf("Insert(%d) failed: %v", i, err)
		}
	}
	if tree.Height() <= 1 {
		t.Errorf("expected tree to grow beyond a single root leaf, height = %d", tree.Height())
	}

	for i := int32(0); i < n; i++ {
		rids, err := tree.Find(encodeKey(i))
		if err != nil || len(rids) != 1 || rids[0] != ridFor(i) {
			t.Fatalf("Find(%d) = %v, %v; want [%v], nil", i, rids, err, ridFor(i))
		}
	}
}

func TestIterFromRangeScanOrdered(t *testing.T) {
	pool, cleanup := newTestPool(t, 64)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	shuffled := []int32{50, 10, 90, 30, 70, 20, 80, 40, 60, 0}
	for _, v := range shuffled {
		if err := tree.Insert(encodeKey(v), ridFor(v)); err != nil {
			t.Fatalf("Insert(%d) failed: %v", v, err)
		}
	}

	cur, err := tree.IterFrom(encodeKey(0))
	if err != nil {
		t.Fatalf("IterFrom failed: %v", err)
	}
	var seen []int32
	for {
		k, _, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		seen = append(seen, decodeKey(k))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("range scan not strictly increasing at %d: %v", i, seen)
		}
	}
	if len(seen) != len(shuffled) {
		t.Errorf("range scan yielded %d keys, want %d", len(seen), len(shuffled))
	}
}

func TestUniqueDuplicateRejected(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tree.Insert(encodeKey(7), ridFor(7)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err = tree.Insert(encodeKey(7), ridFor(99))
	if dberrors.KindOf(err) != dberrors.DuplicateKey {
		t.Fatalf("expected DuplicateKey, got %v", err)
	}
}

func TestNonUniqueAllowsDuplicateKeysFindReturnsAll(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tree, err := Create(pool, 4, false, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tree.Insert(encodeKey(7), RID{PageId: 1, Slot: 0}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tree.Insert(encodeKey(7), RID{PageId: 2, Slot: 0}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rids, err := tree.Find(encodeKey(7))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(rids) != 2 {
		t.Fatalf("expected 2 rids for duplicate key, got %v", rids)
	}
}

func TestRemoveThenFindNotFound(t *testing.T) {
	pool, cleanup := newTestPool(t, 16)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tree.Insert(encodeKey(1), ridFor(1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tree.Insert(encodeKey(2), ridFor(2)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := tree.Remove(encodeKey(1), ridFor(1)); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	rids, err := tree.Find(encodeKey(1))
	if err != nil || len(rids) != 0 {
		t.Errorf("Find of removed key = %v, %v; want empty, nil", rids, err)
	}
	rids, err = tree.Find(encodeKey(2))
	if err != nil || len(rids) != 1 {
		t.Errorf("sibling key disturbed by remove: %v, %v", rids, err)
	}

	err = tree.Remove(encodeKey(1), ridFor(1))
	if dberrors.KindOf(err) != dberrors.NotFound {
		t.Errorf("expected NotFound removing an already-absent key, got %v", err)
	}
}

func TestRemoveCausesMergeAndRootCollapse(t *testing.T) {
	pool, cleanup := newTestPool(t, 128)
	defer cleanup()

	tree, err := Create(pool, 4, true, bytes.Compare)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// enough keys to overflow a single 818-entry leaf (see above).
	const n = 2000
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(encodeKey(i), ridFor(i)); err != nil {
			t.Fatalf("Insert(%d) failed: %v", i, err)
		}
	}
	grownHeight := tree.Height()
	if grownHeight <= 1 {
		t.Fatalf("setup failed to grow tree beyond one level, height = %d", grownHeight)
	}

	for i := int32(1); i < n; i++ {
		if err := tree.Remove(encodeKey(i), ridFor(i)); err != nil {
			t.Fatalf("Remove(%d) failed: %v", i, err)
		}
	}

	rids, err := tree.Find(encodeKey(0))
	if err != nil || len(rids) != 1 || rids[0] != ridFor(0) {
		t.Fatalf("surviving key lost after mass removal: %v, %v", rids, err)
	}
	for i := int32(1); i < n; i++ {
		rids, err := tree.Find(encodeKey(i))
		if err != nil || len(rids) != 0 {
			t.Fatalf("removed key %d still present: %v, %v", i, rids, err)
		}
	}
	if tree.Height() >= grownHeight {
		t.Errorf("expected height to shrink after mass removal: was %d, now %d", grownHeight, tree.Height())
	}

	cur, err := tree.IterFrom(encodeKey(0))
	if err != nil {
		t.Fatalf("IterFrom failed: %v", err)
	}
	k, _, ok, err := cur.Next()
	if err != nil || !ok || decodeKey(k) != 0 {
		t.Fatalf("expected sole surviving key 0 from cursor, got key=%v ok=%v err=%v", k, ok, err)
	}
	_, _, ok, err = cur.Next()
	if err != nil || ok {
		t.Errorf("expected cursor exhausted after sole surviving key, ok=%v err=%v", ok, err)
	}
}
