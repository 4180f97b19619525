package disk

import (
	"encoding/binary"

	"naivedb/dberrors"
)

// The header page (PageId 0) lays out the free list as:
//
//	offset 0:  count  int64  — number of live entries
//	offset 8:  entries[maxFreeListEntries] int64
//
// This is the capacity spec.md section 9's open question flags: once
// maxFreeListEntries distinct pages are deallocated without an
// intervening allocate, Deallocate fails rather than silently dropping an
// id (the teacher's original, documented-as-a-gap behavior).
const (
	freeListCountOffset   = 0
	freeListEntriesOffset = 8
	maxFreeListEntries    = (PageSize - freeListEntriesOffset) / 8
)

func (m *Manager) initFreshFile() error {
	header := make([]byte, PageSize)
	// count already zero.
	if err := m.WritePage(HeaderPageId, header); err != nil {
		return err
	}
	m.freeList = nil
	return nil
}

func (m *Manager) loadFreeList() error {
	header, err := m.ReadPage(HeaderPageId)
	if err != nil {
		return err
	}
	count := binary.LittleEndian.Uint64(header[freeListCountOffset:])
	if count > uint64(maxFreeListEntries) {
		return dberrors.Newf(dberrors.InvariantViolation, nil,
			"disk: corrupt free list header, count=%d exceeds capacity %d", count, maxFreeListEntries)
	}
	freeList := make([]PageId, 0, count)
	for i := uint64(0); i < count; i++ {
		off := freeListEntriesOffset + int(i)*8
		id := int64(binary.LittleEndian.Uint64(header[off:]))
		freeList = append(freeList, PageId(id))
	}
	m.freeList = freeList
	return nil
}

func (m *Manager) persistFreeList() error {
	header := make([]byte, PageSize)
	binary.LittleEndian.PutUint64(header[freeListCountOffset:], uint64(len(m.freeList)))
	for i, id := range m.freeList {
		off := freeListEntriesOffset + i*8
		binary.LittleEndian.PutUint64(header[off:], uint64(id))
	}
	return m.WritePage(HeaderPageId, header)
}
