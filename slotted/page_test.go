package slotted

import (
	"bytes"
	"testing"

	"naivedb/disk"
)

func newTestPage(t *testing.T, k, m int) *Page {
	t.Helper()
	data := make([]byte, disk.PageSize)
	p, err := New(data, k, m)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func key4(n uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
	return b
}

func cmp4(a, b []byte) int { return bytes.Compare(a, b) }

func TestInsertGetRoundTrip(t *testing.T) {
	p := newTestPage(t, 4, 0)
	i, err := p.Insert(key4(1), []byte("hello"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	k, v, err := p.Get(i)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(k, key4(1)) || string(v) != "hello" {
		t.Errorf("round trip mismatch: key=%v value=%q", k, v)
	}
}

func TestInsertSortedOrdersSlots(t *testing.T) {
	p := newTestPage(t, 4, 0)
	order := []uint32{5, 1, 3, 2, 4}
	for _, n := range order {
		if _, err := p.InsertSorted(key4(n), []byte{byte(n)}, cmp4); err != nil {
			t.Fatalf("InsertSorted(%d) failed: %v", n, err)
		}
	}
	for i := 0; i < p.RecordCount(); i++ {
		k, _, _ := p.Get(i)
		want := key4(uint32(i + 1))
		if !bytes.Equal(k, want) {
			t.Errorf("slot %d: got key %v, want %v", i, k, want)
		}
	}
}

func TestBinarySearchFindsAndLocatesInsertionPoint(t *testing.T) {
	p := newTestPage(t, 4, 0)
	for _, n := range []uint32{10, 20, 30, 40} {
		p.InsertSorted(key4(n), []byte{byte(n)}, cmp4)
	}
	if found, idx := p.BinarySearch(key4(30), cmp4); !found || idx != 2 {
		t.Errorf("expected found at idx 2, got found=%v idx=%d", found, idx)
	}
	if found, idx := p.BinarySearch(key4(25), cmp4); found || idx != 2 {
		t.Errorf("expected not found, insertion point 2, got found=%v idx=%d", found, idx)
	}
}

func TestRemoveCompactsHeapAndDirectory(t *testing.T) {
	p := newTestPage(t, 4, 0)
	var ids []int
	for _, n := range []uint32{1, 2, 3} {
		i, _ := p.Insert(key4(n), bytes.Repeat([]byte{byte(n)}, 100))
		ids = append(ids, i)
	}
	freeBefore := p.FreeSpace()

	if err := p.Remove(1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if p.RecordCount() != 2 {
		t.Fatalf("expected 2 slots after remove, got %d", p.RecordCount())
	}
	freeAfter := p.FreeSpace()
	// removing a 100-byte value plus its directory entry reclaims both.
	if freeAfter <= freeBefore {
		t.Errorf("expected free space to grow after remove: before=%d after=%d", freeBefore, freeAfter)
	}

	k, v, err := p.Get(0)
	if err != nil || !bytes.Equal(k, key4(1)) || v[0] != 1 {
		t.Errorf("slot 0 corrupted after remove: key=%v value=%v err=%v", k, v, err)
	}
	k, v, err = p.Get(1)
	if err != nil || !bytes.Equal(k, key4(3)) || v[0] != 3 {
		t.Errorf("slot 1 corrupted after remove: key=%v value=%v err=%v", k, v, err)
	}
}

func TestInsertAfterRemoveReclaimsSpace(t *testing.T) {
	p := newTestPage(t, 4, 0)
	big := bytes.Repeat([]byte{0xAB}, 8000)
	i1, err := p.Insert(key4(1), big)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := p.Remove(i1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := p.Insert(key4(2), big); err != nil {
		t.Fatalf("insert after remove should fit but got: %v", err)
	}
}

func TestInsertFailsWhenPageFull(t *testing.T) {
	p := newTestPage(t, 4, 0)
	big := bytes.Repeat([]byte{0x1}, disk.PageSize)
	if _, err := p.Insert(key4(1), big); err == nil {
		t.Errorf("expected PageFull error, got nil")
	}
}

func TestUserMetaRoundTrip(t *testing.T) {
	p := newTestPage(t, 4, 4)
	if err := p.SetUserMeta([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetUserMeta failed: %v", err)
	}
	if !bytes.Equal(p.UserMeta(), []byte{1, 2, 3, 4}) {
		t.Errorf("UserMeta mismatch: %v", p.UserMeta())
	}
}

func TestTombstonePreservesSlotIndices(t *testing.T) {
	p := newTestPage(t, 4, 0)
	var ids []int
	for _, n := range []uint32{1, 2, 3} {
		i, _ := p.Insert(key4(n), bytes.Repeat([]byte{byte(n)}, 50))
		ids = append(ids, i)
	}
	if err := p.Tombstone(ids[1]); err != nil {
		t.Fatalf("Tombstone failed: %v", err)
	}
	if p.RecordCount() != 3 {
		t.Errorf("expected record count unchanged at 3, got %d", p.RecordCount())
	}
	if _, _, err := p.Get(ids[1]); err == nil {
		t.Errorf("expected tombstoned slot to read as NotFound")
	}
	// sibling slots keep their original indices and values.
	_, v0, err := p.Get(ids[0])
	if err != nil || v0[0] != 1 {
		t.Errorf("slot 0 disturbed by tombstoning slot 1: v=%v err=%v", v0, err)
	}
	_, v2, err := p.Get(ids[2])
	if err != nil || v2[0] != 3 {
		t.Errorf("slot 2 disturbed by tombstoning slot 1: v=%v err=%v", v2, err)
	}

	var seen []byte
	p.Iter(func(i int, key, value []byte) bool {
		seen = append(seen, value[0])
		return true
	})
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Errorf("Iter should skip tombstoned slot: %v", seen)
	}
}

func TestIterYieldsAllLiveSlotsInOrder(t *testing.T) {
	p := newTestPage(t, 4, 0)
	for _, n := range []uint32{1, 2, 3} {
		p.Insert(key4(n), []byte{byte(n)})
	}
	var seen []uint32
	p.Iter(func(i int, key, value []byte) bool {
		seen = append(seen, uint32(value[0]))
		return true
	})
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("Iter order mismatch: %v", seen)
	}
}
