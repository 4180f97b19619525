package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAllocateExtendsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if m.NumPages() != 1 {
		t.Fatalf("fresh file should have 1 page (header), got %d", m.NumPages())
	}

	id, err := m.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first allocated page to be id 1, got %d", id)
	}
	if m.NumPages() != 2 {
		t.Errorf("expected 2 pages after allocate, got %d", m.NumPages())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m, err := OpenRandom()
	if err != nil {
		t.Fatalf("OpenRandom failed: %v", err)
	}
	defer func() {
		path := m.Path()
		m.Close()
		os.Remove(path)
	}()

	id, err := m.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	data := make([]byte, PageSize)
	copy(data, []byte("hello page"))

	if err := m.WritePage(id, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := m.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round-trip mismatch: got %v want %v", got[:16], data[:16])
	}
}

func TestAllocateReusesDeallocated(t *testing.T) {
	m, err := OpenRandom()
	if err != nil {
		t.Fatalf("OpenRandom failed: %v", err)
	}
	defer func() {
		path := m.Path()
		m.Close()
		os.Remove(path)
	}()

	a, _ := m.Allocate()
	b, _ := m.Allocate()

	if err := m.Deallocate(a); err != nil {
		t.Fatalf("Deallocate failed: %v", err)
	}

	before := m.NumPages()
	c, err := m.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if c != a {
		t.Errorf("expected reuse of deallocated page %d, got %d", a, c)
	}
	if m.NumPages() != before {
		t.Errorf("reuse should not extend the file: before=%d after=%d", before, m.NumPages())
	}
	_ = b
}

func TestDeallocatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, _ := m.Allocate()
	if err := m.Deallocate(id); err != nil {
		t.Fatalf("Deallocate failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m2.Close()

	reused, err := m2.Allocate()
	if err != nil {
		t.Fatalf("Allocate after reopen failed: %v", err)
	}
	if reused != id {
		t.Errorf("expected free list to survive reopen: want %d got %d", id, reused)
	}
}

func TestDeallocateHeaderPageRejected(t *testing.T) {
	m, err := OpenRandom()
	if err != nil {
		t.Fatalf("OpenRandom failed: %v", err)
	}
	defer func() {
		path := m.Path()
		m.Close()
		os.Remove(path)
	}()

	if err := m.Deallocate(HeaderPageId); err == nil {
		t.Errorf("expected error deallocating header page")
	}
}
