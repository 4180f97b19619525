package table

import (
	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/schema"
	"naivedb/slotted"
)

// Append validates values against the table's schema, then inserts the
// serialized tuple into the first slice with room, scanning the chain
// from the head; if none has space, a new slice is allocated and linked
// at the head. Grounded on the teacher's find-suitable-page-or-allocate
// loop (storage_engine/access/heapfile_manager/row_ops_internal.go).
func (t *Table) Append(values []schema.Datum) (RID, error) {
	data, err := t.Schema.Marshal(values)
	if err != nil {
		return RID{}, err
	}

	curr := disk.PageId(t.firstSlice)
	for curr != 0 {
		g, err := buffer.FetchGuarded(t.pool, curr)
		if err != nil {
			return RID{}, err
		}
		pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
		if err != nil {
			g.Release()
			return RID{}, err
		}
		slot, insErr := pg.Insert(encodeRef(0), data)
		next := disk.PageId(pg.NextPageId())
		if insErr == nil {
			g.MarkDirty()
			g.Release()
			return RID{PageId: curr, Slot: slot}, nil
		}
		g.Release()
		if dberrors.KindOf(insErr) != dberrors.PageFull {
			return RID{}, insErr
		}
		curr = next
	}

	g, err := buffer.AllocGuarded(t.pool)
	if err != nil {
		return RID{}, err
	}
	defer g.Release()

	pg, err := slotted.New(g.Page().Data, sliceKeySize, 0)
	if err != nil {
		return RID{}, err
	}
	pg.SetNextPageId(t.firstSlice)
	slot, err := pg.Insert(encodeRef(0), data)
	if err != nil {
		return RID{}, err
	}
	g.MarkDirty()

	newSliceId := g.Page().ID
	t.firstSlice = uint32(newSliceId)
	if err := t.persistRootMeta(); err != nil {
		return RID{}, err
	}

	return RID{PageId: newSliceId, Slot: slot}, nil
}

// Get reads and deserializes the tuple at rid.
func (t *Table) Get(rid RID) ([]schema.Datum, error) {
	g, err := buffer.FetchGuarded(t.pool, rid.PageId)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
	if err != nil {
		return nil, err
	}
	_, value, err := pg.Get(rid.Slot)
	if err != nil {
		return nil, err
	}
	return t.Schema.Unmarshal(value)
}

// Remove tombstones the tuple at rid, failing with ReferencedRow if the
// row's foreign-key reference counter is still positive. See
// slotted.Page.Tombstone for why removal must not disturb sibling slot
// indices.
func (t *Table) Remove(rid RID) error {
	g, err := buffer.FetchGuarded(t.pool, rid.PageId)
	if err != nil {
		return err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
	if err != nil {
		return err
	}
	key, _, err := pg.Get(rid.Slot)
	if err != nil {
		return err
	}
	if decodeRef(key) > 0 {
		return dberrors.New(dberrors.ReferencedRow, "table: row is referenced by a foreign key and cannot be removed", nil)
	}
	if err := pg.Tombstone(rid.Slot); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}

// Update overwrites the tuple at rid. If the new serialized length
// matches the old, the value is rewritten in place; otherwise the row is
// tombstoned and re-appended at a new RID, per spec.md section 4.4.
func (t *Table) Update(rid RID, values []schema.Datum) (RID, error) {
	data, err := t.Schema.Marshal(values)
	if err != nil {
		return RID{}, err
	}

	g, err := buffer.FetchGuarded(t.pool, rid.PageId)
	if err != nil {
		return RID{}, err
	}
	pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
	if err != nil {
		g.Release()
		return RID{}, err
	}
	_, oldValue, err := pg.Get(rid.Slot)
	if err != nil {
		g.Release()
		return RID{}, err
	}

	if len(data) == len(oldValue) {
		if err := pg.SetValue(rid.Slot, data); err != nil {
			g.Release()
			return RID{}, err
		}
		g.MarkDirty()
		g.Release()
		return rid, nil
	}
	g.Release()

	if err := t.Remove(rid); err != nil {
		return RID{}, err
	}
	return t.Append(values)
}

// Iter yields every live (rid, tuple) pair across the slice chain, head
// to tail.
func (t *Table) Iter(yield func(rid RID, values []schema.Datum) bool) error {
	curr := disk.PageId(t.firstSlice)
	for curr != 0 {
		g, err := buffer.FetchGuarded(t.pool, curr)
		if err != nil {
			return err
		}
		pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
		if err != nil {
			g.Release()
			return err
		}

		stop := false
		pg.Iter(func(i int, _, value []byte) bool {
			values, err := t.Schema.Unmarshal(value)
			if err != nil {
				stop = true
				return false
			}
			if !yield(RID{PageId: curr, Slot: i}, values) {
				stop = true
				return false
			}
			return true
		})
		next := disk.PageId(pg.NextPageId())
		g.Release()
		if stop {
			return nil
		}
		curr = next
	}
	return nil
}

// PinRef increments rid's foreign-key reference counter by one.
func (t *Table) PinRef(rid RID) error {
	return t.adjustRef(rid, 1)
}

// UnpinRef decrements rid's foreign-key reference counter by one. It is
// an invariant violation to unpin a row whose counter is already zero.
func (t *Table) UnpinRef(rid RID) error {
	return t.adjustRef(rid, -1)
}

func (t *Table) adjustRef(rid RID, delta int32) error {
	g, err := buffer.FetchGuarded(t.pool, rid.PageId)
	if err != nil {
		return err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, sliceKeySize, 0)
	if err != nil {
		return err
	}
	key, _, err := pg.Get(rid.Slot)
	if err != nil {
		return err
	}
	count := int32(decodeRef(key))
	count += delta
	if count < 0 {
		return dberrors.New(dberrors.InvariantViolation, "table: reference counter would go negative", nil)
	}
	if err := pg.SetKey(rid.Slot, encodeRef(uint32(count))); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}
