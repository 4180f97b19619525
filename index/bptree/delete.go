package bptree

import (
	"bytes"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/slotted"
)

// Remove deletes the (key, rid) pair from the tree. Grounded on the
// teacher's deleteRecursive: remove from the leaf, then on underflow try
// borrowing from a sibling (rotating a separator key through the parent),
// else merge with a sibling and drop the separator, propagating upward
// and collapsing the root if it becomes an internal node with no keys
// (a single child).
func (t *Tree) Remove(key []byte, rid RID) error {
	path, leafId, err := t.descend(key)
	if err != nil {
		return err
	}
	if err := t.removeFromLeaf(leafId, key, rid); err != nil {
		return err
	}
	return t.rebalance(path, leafId)
}

func (t *Tree) removeFromLeaf(leafId disk.PageId, key []byte, rid RID) error {
	g, err := buffer.FetchGuarded(t.pool, leafId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return err
	}
	target := encodeRID(rid)
	for i := 0; i < pg.RecordCount(); i++ {
		k, v, gerr := pg.Get(i)
		if gerr != nil {
			continue
		}
		if t.cmp(k, key) == 0 && bytes.Equal(v, target) {
			if err := pg.Remove(i); err != nil {
				return err
			}
			g.MarkDirty()
			return nil
		}
	}
	return dberrors.New(dberrors.NotFound, "bptree: key/rid not found", nil)
}

func (t *Tree) rebalance(path []disk.PageId, nodeId disk.PageId) error {
	if len(path) == 0 {
		return t.maybeCollapseRoot(nodeId)
	}

	leaf, underflow, err := t.nodeState(nodeId)
	if err != nil {
		return err
	}
	if !underflow {
		return nil
	}

	parentId := path[len(path)-1]
	parentKeys, parentChildren, err := t.loadInternal(parentId)
	if err != nil {
		return err
	}
	idx := indexOfChild(parentChildren, uint32(nodeId))
	if idx < 0 {
		return dberrors.New(dberrors.InvariantViolation, "bptree: child missing from parent during rebalance", nil)
	}

	if idx > 0 {
		ok, err := t.tryBorrow(leaf, parentId, parentKeys, parentChildren, idx, idx-1, true)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if idx < len(parentChildren)-1 {
		ok, err := t.tryBorrow(leaf, parentId, parentKeys, parentChildren, idx, idx+1, false)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	if idx > 0 {
		if err := t.merge(leaf, parentId, parentKeys, parentChildren, idx-1, idx); err != nil {
			return err
		}
	} else {
		if err := t.merge(leaf, parentId, parentKeys, parentChildren, idx, idx+1); err != nil {
			return err
		}
	}

	return t.rebalance(path[:len(path)-1], parentId)
}

// nodeState reports whether nodeId is a leaf and whether it is below the
// half-full occupancy threshold spec.md section 4.5 names.
func (t *Tree) nodeState(nodeId disk.PageId) (leaf bool, underflow bool, err error) {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return false, false, err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return false, false, err
	}
	leaf = isLeafMeta(pg.UserMeta())
	underflow = pg.UsedSpace() < pg.UsableSpace()/2
	return leaf, underflow, nil
}

func (t *Tree) loadLeaf(nodeId disk.PageId) (keys, values [][]byte, next uint32, err error) {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return nil, nil, 0, err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return nil, nil, 0, err
	}
	keys, values = collectLeafEntries(pg)
	next = pg.NextPageId()
	return keys, values, next, nil
}

func (t *Tree) writeLeaf(nodeId disk.PageId, keys, values [][]byte, next uint32) error {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.New(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return err
	}
	if err := pg.SetUserMeta(buildMeta(true, 0)); err != nil {
		return err
	}
	for i := range keys {
		if _, err := pg.Insert(keys[i], values[i]); err != nil {
			return err
		}
	}
	pg.SetNextPageId(next)
	g.MarkDirty()
	return nil
}

func (t *Tree) loadInternal(nodeId disk.PageId) (keys [][]byte, children []uint32, err error) {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return nil, nil, err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return nil, nil, err
	}
	keys, children = collectInternalEntries(pg)
	return keys, children, nil
}

func (t *Tree) writeInternal(nodeId disk.PageId, keys [][]byte, children []uint32) error {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.New(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return err
	}
	if err := pg.SetUserMeta(buildMeta(false, children[0])); err != nil {
		return err
	}
	for i, k := range keys {
		if _, err := pg.Insert(k, encodeChild(children[i+1])); err != nil {
			return err
		}
	}
	g.MarkDirty()
	return nil
}

// tryBorrow attempts to rotate one entry from the sibling at
// parentChildren[sibIdx] into the underflowing node at
// parentChildren[nodeIdx], updating the separator key in the parent.
// Returns false without modifying anything if the sibling has nothing to
// spare.
func (t *Tree) tryBorrow(leaf bool, parentId disk.PageId, parentKeys [][]byte, parentChildren []uint32, nodeIdx, sibIdx int, siblingIsLeft bool) (bool, error) {
	nodeId := disk.PageId(parentChildren[nodeIdx])
	sibId := disk.PageId(parentChildren[sibIdx])

	if leaf {
		nKeys, nValues, nNext, err := t.loadLeaf(nodeId)
		if err != nil {
			return false, err
		}
		sKeys, sValues, sNext, err := t.loadLeaf(sibId)
		if err != nil {
			return false, err
		}
		if len(sKeys) <= 1 {
			return false, nil
		}

		if siblingIsLeft {
			last := len(sKeys) - 1
			bKey, bVal := sKeys[last], sValues[last]
			sKeys, sValues = sKeys[:last], sValues[:last]
			nKeys = append([][]byte{bKey}, nKeys...)
			nValues = append([][]byte{bVal}, nValues...)
			parentKeys[nodeIdx-1] = nKeys[0]
		} else {
			bKey, bVal := sKeys[0], sValues[0]
			sKeys, sValues = sKeys[1:], sValues[1:]
			nKeys = append(nKeys, bKey)
			nValues = append(nValues, bVal)
			parentKeys[nodeIdx] = sKeys[0]
		}

		if err := t.writeLeaf(nodeId, nKeys, nValues, nNext); err != nil {
			return false, err
		}
		if err := t.writeLeaf(sibId, sKeys, sValues, sNext); err != nil {
			return false, err
		}
		return true, t.writeInternal(parentId, parentKeys, parentChildren)
	}

	nKeys, nChildren, err := t.loadInternal(nodeId)
	if err != nil {
		return false, err
	}
	sKeys, sChildren, err := t.loadInternal(sibId)
	if err != nil {
		return false, err
	}
	if len(sKeys) == 0 {
		return false, nil
	}

	if siblingIsLeft {
		sepIdx := nodeIdx - 1
		movedDown := parentKeys[sepIdx]
		last := len(sKeys) - 1
		newSep := sKeys[last]
		movedChild := sChildren[len(sChildren)-1]
		sKeys = sKeys[:last]
		sChildren = sChildren[:len(sChildren)-1]
		nKeys = append([][]byte{movedDown}, nKeys...)
		nChildren = append([]uint32{movedChild}, nChildren...)
		parentKeys[sepIdx] = newSep
	} else {
		sepIdx := nodeIdx
		movedDown := parentKeys[sepIdx]
		newSep := sKeys[0]
		movedChild := sChildren[0]
		sKeys = sKeys[1:]
		sChildren = sChildren[1:]
		nKeys = append(nKeys, movedDown)
		nChildren = append(nChildren, movedChild)
		parentKeys[sepIdx] = newSep
	}

	if err := t.writeInternal(nodeId, nKeys, nChildren); err != nil {
		return false, err
	}
	if err := t.writeInternal(sibId, sKeys, sChildren); err != nil {
		return false, err
	}
	return true, t.writeInternal(parentId, parentKeys, parentChildren)
}

// merge absorbs the right child (parentChildren[rightIdx]) into the left
// child (parentChildren[leftIdx]), dropping the separator key between
// them from the parent.
func (t *Tree) merge(leaf bool, parentId disk.PageId, parentKeys [][]byte, parentChildren []uint32, leftIdx, rightIdx int) error {
	leftId := disk.PageId(parentChildren[leftIdx])
	rightId := disk.PageId(parentChildren[rightIdx])

	if leaf {
		lKeys, lValues, _, err := t.loadLeaf(leftId)
		if err != nil {
			return err
		}
		rKeys, rValues, rNext, err := t.loadLeaf(rightId)
		if err != nil {
			return err
		}
		lKeys = append(lKeys, rKeys...)
		lValues = append(lValues, rValues...)
		if err := t.writeLeaf(leftId, lKeys, lValues, rNext); err != nil {
			return err
		}
	} else {
		lKeys, lChildren, err := t.loadInternal(leftId)
		if err != nil {
			return err
		}
		rKeys, rChildren, err := t.loadInternal(rightId)
		if err != nil {
			return err
		}
		lKeys = append(lKeys, parentKeys[leftIdx])
		lKeys = append(lKeys, rKeys...)
		lChildren = append(lChildren, rChildren...)
		if err := t.writeInternal(leftId, lKeys, lChildren); err != nil {
			return err
		}
	}

	if err := t.pool.Dealloc(rightId); err != nil {
		return err
	}

	newKeys := append(append([][]byte{}, parentKeys[:leftIdx]...), parentKeys[leftIdx+1:]...)
	newChildren := append(append([]uint32{}, parentChildren[:rightIdx]...), parentChildren[rightIdx+1:]...)
	return t.writeInternal(parentId, newKeys, newChildren)
}

// maybeCollapseRoot replaces an internal root holding zero keys with its
// sole remaining child, shrinking the tree's height by one.
func (t *Tree) maybeCollapseRoot(nodeId disk.PageId) error {
	g, err := buffer.FetchGuarded(t.pool, nodeId)
	if err != nil {
		return err
	}
	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		g.Release()
		return err
	}
	leaf := isLeafMeta(pg.UserMeta())
	n := pg.RecordCount()
	if leaf || n > 0 {
		g.Release()
		return nil
	}
	newRoot := leftmostChild(pg.UserMeta())
	g.Release()

	if err := t.pool.Dealloc(nodeId); err != nil {
		return err
	}
	t.rootId = newRoot
	t.height--
	return t.persistDescriptor()
}

func indexOfChild(children []uint32, id uint32) int {
	for i, c := range children {
		if c == id {
			return i
		}
	}
	return -1
}
