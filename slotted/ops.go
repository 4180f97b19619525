package slotted

import "naivedb/dberrors"

// Insert appends (key, value) as the last slot, growing the value heap
// downward. Fails with PageFull if there isn't room for both the new
// directory entry and the value bytes.
func (p *Page) Insert(key, value []byte) (int, error) {
	if len(key) != p.K {
		return 0, dberrors.Newf(dberrors.InvariantViolation, nil, "slotted: key length %d != %d", len(key), p.K)
	}
	required := p.slotSize() + len(value)
	if p.FreeSpace() < required {
		return 0, dberrors.New(dberrors.PageFull, "slotted: insert does not fit", nil)
	}

	n := p.RecordCount()
	newTail := p.tail() - len(value)
	copy(p.data[newTail:newTail+len(value)], value)

	p.setKey(n, key)
	p.setValueOffset(n, newTail)
	p.setValueLength(n, len(value))
	p.setTail(newTail)
	p.setRecordCount(n + 1)
	return n, nil
}

// InsertSorted inserts (key, value) at the position cmp says keeps the
// directory ordered, shifting later slots' directory entries up by one.
// The caller must use the same cmp across the page's lifetime.
func (p *Page) InsertSorted(key, value []byte, cmp Comparator) (int, error) {
	if len(key) != p.K {
		return 0, dberrors.Newf(dberrors.InvariantViolation, nil, "slotted: key length %d != %d", len(key), p.K)
	}
	required := p.slotSize() + len(value)
	if p.FreeSpace() < required {
		return 0, dberrors.New(dberrors.PageFull, "slotted: insert does not fit", nil)
	}

	_, idx := p.BinarySearch(key, cmp)
	n := p.RecordCount()

	newTail := p.tail() - len(value)
	copy(p.data[newTail:newTail+len(value)], value)

	// shift directory entries [idx, n) right by one slot to open a gap.
	ss := p.slotSize()
	src := p.data[p.slotOffset(idx):p.slotOffset(n)]
	dst := p.data[p.slotOffset(idx+1) : p.slotOffset(n+1)]
	copy(dst, src)
	_ = ss

	p.setKey(idx, key)
	p.setValueOffset(idx, newTail)
	p.setValueLength(idx, len(value))
	p.setTail(newTail)
	p.setRecordCount(n + 1)
	return idx, nil
}

// SetKey overwrites slot i's key in place, leaving its value and
// directory position untouched. Used where the key is not an ordering
// key but auxiliary per-slot state (e.g. the table heap's foreign-key
// reference counter).
func (p *Page) SetKey(i int, key []byte) error {
	if i < 0 || i >= p.RecordCount() {
		return dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d out of range", i)
	}
	if len(key) != p.K {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "slotted: key length %d != %d", len(key), p.K)
	}
	p.setKey(i, key)
	return nil
}

// Get returns slot i's key and value. Fails with NotFound if the slot is
// out of range or tombstoned (see Tombstone).
func (p *Page) Get(i int) (key, value []byte, err error) {
	if i < 0 || i >= p.RecordCount() {
		return nil, nil, dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d out of range", i)
	}
	if p.valueLength(i) == 0 {
		return nil, nil, dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d is tombstoned", i)
	}
	off := p.valueOffset(i)
	length := p.valueLength(i)
	return p.key(i), p.data[off : off+length], nil
}

// SetValue overwrites slot i's value in place. The new value must be no
// longer than the current one. Shorter values are allowed; the heap bytes
// they no longer use stay allocated, since Remove and Tombstone reclaim
// only a slot's current value length.
func (p *Page) SetValue(i int, value []byte) error {
	if i < 0 || i >= p.RecordCount() {
		return dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d out of range", i)
	}
	if len(value) > p.valueLength(i) {
		return dberrors.New(dberrors.PageFull, "slotted: SetValue grows beyond the slot's reserved length", nil)
	}
	off := p.valueOffset(i)
	copy(p.data[off:off+len(value)], value)
	p.setValueLength(i, len(value))
	return nil
}

// Tombstone marks slot i dead (zero value length) and reclaims its heap
// bytes by compacting, but leaves the directory entry and every other
// slot's index untouched. Used where a slot's index is referenced
// externally (the table heap's RID) and must survive a sibling's removal;
// Get/Iter treat a tombstoned slot as absent. A slot assumed live is
// never actually zero-length in this codebase (every serialized value
// carries at least a null bitmap), so the sentinel is unambiguous.
func (p *Page) Tombstone(i int) error {
	n := p.RecordCount()
	if i < 0 || i >= n {
		return dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d out of range", i)
	}
	length := p.valueLength(i)
	if length == 0 {
		return nil
	}
	offset := p.valueOffset(i)
	tail := p.tail()

	copy(p.data[tail+length:offset+length], p.data[tail:offset])
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		if vo := p.valueOffset(j); vo < offset {
			p.setValueOffset(j, vo+length)
		}
	}
	p.setTail(tail + length)
	p.setValueOffset(i, 0)
	p.setValueLength(i, 0)
	return nil
}

// Remove deletes slot i, compacting the value heap to reclaim its bytes
// and shifting later directory entries down by one. Used by ordered
// structures (B+ tree, catalog) where no external reference survives by
// slot index. The table heap instead uses Tombstone to keep RIDs to
// sibling slots stable (spec.md section 4.3 permits either removal
// strategy).
func (p *Page) Remove(i int) error {
	n := p.RecordCount()
	if i < 0 || i >= n {
		return dberrors.Newf(dberrors.NotFound, nil, "slotted: slot %d out of range", i)
	}

	offset := p.valueOffset(i)
	length := p.valueLength(i)
	tail := p.tail()

	if length > 0 {
		// Shift the block of more-recently-inserted values (addresses
		// below offset, i.e. [tail, offset)) up by length to close the
		// gap left by the removed value.
		copy(p.data[tail+length:offset+length], p.data[tail:offset])
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if vo := p.valueOffset(j); vo < offset {
				p.setValueOffset(j, vo+length)
			}
		}
		p.setTail(tail + length)
	}

	// Remove the directory entry by shifting later entries down by one.
	if i < n-1 {
		src := p.data[p.slotOffset(i+1):p.slotOffset(n)]
		dst := p.data[p.slotOffset(i):p.slotOffset(n-1)]
		copy(dst, src)
	}
	p.setRecordCount(n - 1)
	return nil
}

// Iter calls yield for every live (non-tombstoned) slot in directory
// order, stopping early if yield returns false.
func (p *Page) Iter(yield func(i int, key, value []byte) bool) {
	for i := 0; i < p.RecordCount(); i++ {
		if p.valueLength(i) == 0 {
			continue
		}
		key, value, err := p.Get(i)
		if err != nil {
			return
		}
		if !yield(i, key, value) {
			return
		}
	}
}
