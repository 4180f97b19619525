package bptree

import (
	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/slotted"
)

// Insert adds (key, rid) to the tree. Grounded on the teacher's
// Insertion/SplitLeaf/splitInternal/insertIntoParent/createNewRoot chain:
// descend, insert at the leaf, and on overflow split and propagate the
// promoted separator key upward, allocating a new root if the root
// itself splits.
func (t *Tree) Insert(key []byte, rid RID) error {
	if len(key) != t.keySize {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "bptree: key length %d != %d", len(key), t.keySize)
	}

	path, leafId, err := t.descend(key)
	if err != nil {
		return err
	}

	split, sepKey, rightId, err := t.insertLeaf(leafId, key, rid)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	leftId := leafId
	for i := len(path) - 1; i >= 0; i-- {
		parent := path[i]
		var perr error
		split, sepKey, rightId, perr = t.insertInternal(parent, sepKey, uint32(rightId))
		if perr != nil {
			return perr
		}
		if !split {
			return nil
		}
		leftId = parent
	}

	return t.createNewRoot(leftId, sepKey, rightId)
}

// insertLeaf tries a direct sorted insert; on PageFull it splits the leaf
// in two and returns the promoted separator key and the new right
// sibling's page id.
func (t *Tree) insertLeaf(leafId disk.PageId, key []byte, rid RID) (split bool, sepKey []byte, rightId disk.PageId, err error) {
	g, err := buffer.FetchGuarded(t.pool, leafId)
	if err != nil {
		return false, nil, 0, err
	}
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		g.Release()
		return false, nil, 0, err
	}

	if t.unique {
		if found, _ := pg.BinarySearch(key, t.cmp); found {
			g.Release()
			return false, nil, 0, dberrors.New(dberrors.DuplicateKey, "bptree: key already present in UNIQUE index", nil)
		}
	}

	if _, ierr := pg.InsertSorted(key, encodeRID(rid), t.cmp); ierr == nil {
		g.MarkDirty()
		g.Release()
		return false, nil, 0, nil
	} else if dberrors.KindOf(ierr) != dberrors.PageFull {
		g.Release()
		return false, nil, 0, ierr
	}

	keys, values := collectLeafEntries(pg)
	oldNext := pg.NextPageId()
	keys, values = insertLeafEntry(keys, values, key, encodeRID(rid), t.cmp)
	g.Release()

	mid := len(keys) / 2
	leftKeys, leftValues := keys[:mid], values[:mid]
	rightKeys, rightValues := keys[mid:], values[mid:]

	g, err = buffer.FetchGuarded(t.pool, leafId)
	if err != nil {
		return false, nil, 0, err
	}
	defer g.Release()
	pg, err = slotted.New(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return false, nil, 0, err
	}
	if err := pg.SetUserMeta(buildMeta(true, 0)); err != nil {
		return false, nil, 0, err
	}
	for i := range leftKeys {
		if _, err := pg.Insert(leftKeys[i], leftValues[i]); err != nil {
			return false, nil, 0, err
		}
	}

	rg, err := buffer.AllocGuarded(t.pool)
	if err != nil {
		return false, nil, 0, err
	}
	defer rg.Release()
	rightPg, err := slotted.New(rg.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return false, nil, 0, err
	}
	if err := rightPg.SetUserMeta(buildMeta(true, 0)); err != nil {
		return false, nil, 0, err
	}
	for i := range rightKeys {
		if _, err := rightPg.Insert(rightKeys[i], rightValues[i]); err != nil {
			return false, nil, 0, err
		}
	}
	rightPg.SetNextPageId(oldNext)
	pg.SetNextPageId(uint32(rg.Page().ID))
	g.MarkDirty()
	rg.MarkDirty()

	return true, rightKeys[0], rg.Page().ID, nil
}

// insertInternal mirrors insertLeaf for an internal node: InsertSorted
// already places the promoted (sepKey, rightChildId) pair at the
// structurally correct position (spec.md section 4.5's ordering
// invariant guarantees sepKey's rank matches the split point), so no
// explicit "find the left child's slot" lookup is needed, unlike the
// teacher's insertIntoParent which locates leftId by scanning children.
func (t *Tree) insertInternal(nodeId disk.PageId, sepKey []byte, rightChildId uint32) (split bool, outSepKey []byte, outRightId disk.PageId, err error) {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return false, nil, 0, err
	}
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		g.Release()
		return false, nil, 0, err
	}

	if _, ierr := pg.InsertSorted(sepKey, encodeChild(rightChildId), t.cmp); ierr == nil {
		g.MarkDirty()
		g.Release()
		return false, nil, 0, nil
	} else if dberrors.KindOf(ierr) != dberrors.PageFull {
		g.Release()
		return false, nil, 0, ierr
	}

	meta := append([]byte(nil), pg.UserMeta()...)
	leftmost := leftmostChild(meta)
	keys, children := collectInternalEntries(pg)
	keys, children = insertKeyChild(keys, children, sepKey, rightChildId, t.cmp)
	g.Release()

	midKeyIdx := len(keys) / 2
	promoted := keys[midKeyIdx]

	leftKeys := keys[:midKeyIdx]
	leftChildren := children[:midKeyIdx+1]
	rightKeys := keys[midKeyIdx+1:]
	rightChildren := children[midKeyIdx+1:]

	g, err = buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return false, nil, 0, err
	}
	defer g.Release()
	pg, err = slotted.New(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return false, nil, 0, err
	}
	if err := pg.SetUserMeta(buildMeta(false, leftChildren[0])); err != nil {
		return false, nil, 0, err
	}
	for i, k := range leftKeys {
		if _, err := pg.Insert(k, encodeChild(leftChildren[i+1])); err != nil {
			return false, nil, 0, err
		}
	}

	rg, err := buffer.AllocGuarded(t.pool)
	if err != nil {
		return false, nil, 0, err
	}
	defer rg.Release()
	rightPg, err := slotted.New(rg.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return false, nil, 0, err
	}
	if err := rightPg.SetUserMeta(buildMeta(false, rightChildren[0])); err != nil {
		return false, nil, 0, err
	}
	for i, k := range rightKeys {
		if _, err := rightPg.Insert(k, encodeChild(rightChildren[i+1])); err != nil {
			return false, nil, 0, err
		}
	}
	g.MarkDirty()
	rg.MarkDirty()
	_ = leftmost

	return true, promoted, rg.Page().ID, nil
}

// createNewRoot allocates a fresh internal root over leftId/rightId
// separated by sepKey, and updates the tree descriptor.
func (t *Tree) createNewRoot(leftId disk.PageId, sepKey []byte, rightId disk.PageId) error {
	g, err := buffer.AllocGuarded(t.pool)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.New(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return err
	}
	if err := pg.SetUserMeta(buildMeta(false, uint32(leftId))); err != nil {
		return err
	}
	if _, err := pg.Insert(sepKey, encodeChild(uint32(rightId))); err != nil {
		return err
	}
	g.MarkDirty()

	t.rootId = uint32(g.Page().ID)
	t.height++
	return t.persistDescriptor()
}

func collectLeafEntries(pg *slotted.Page) (keys, values [][]byte) {
	pg.Iter(func(i int, key, value []byte) bool {
		keys = append(keys, append([]byte(nil), key...))
		values = append(values, append([]byte(nil), value...))
		return true
	})
	return keys, values
}

func insertLeafEntry(keys, values [][]byte, key, value []byte, cmp slotted.Comparator) ([][]byte, [][]byte) {
	pos := 0
	for pos < len(keys) && cmp(keys[pos], key) < 0 {
		pos++
	}
	keys = append(keys[:pos:pos], append([][]byte{key}, keys[pos:]...)...)
	values = append(values[:pos:pos], append([][]byte{value}, values[pos:]...)...)
	return keys, values
}

func collectInternalEntries(pg *slotted.Page) (keys [][]byte, children []uint32) {
	meta := pg.UserMeta()
	children = append(children, leftmostChild(meta))
	pg.Iter(func(i int, key, value []byte) bool {
		keys = append(keys, append([]byte(nil), key...))
		children = append(children, decodeChild(value))
		return true
	})
	return keys, children
}

func insertKeyChild(keys [][]byte, children []uint32, key []byte, childId uint32, cmp slotted.Comparator) ([][]byte, []uint32) {
	pos := 0
	for pos < len(keys) && cmp(keys[pos], key) < 0 {
		pos++
	}
	keys = append(keys[:pos:pos], append([][]byte{key}, keys[pos:]...)...)
	// the new child goes immediately after the child at position pos
	// (i.e. at children index pos+1).
	newChildren := make([]uint32, 0, len(children)+1)
	newChildren = append(newChildren, children[:pos+1]...)
	newChildren = append(newChildren, childId)
	newChildren = append(newChildren, children[pos+1:]...)
	return keys, newChildren
}
