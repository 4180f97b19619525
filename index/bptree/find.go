package bptree

import (
	"naivedb/buffer"
	"naivedb/disk"
	"naivedb/slotted"
)

// descend walks from the root to the leaf that would hold key, pinning
// and unpinning each internal node in turn (never holding more than one
// node pinned at a time, since this traversal only reads). It returns the
// chain of internal node ids visited (root first), for split propagation
// on insert, and the target leaf's id.
func (t *Tree) descend(key []byte) (path []disk.PageId, leafId disk.PageId, err error) {
	curr := disk.PageId(t.rootId)
	for {
		g, ferr := buffer.FetchGuarded(t.pool, curr)
		if ferr != nil {
			return nil, 0, ferr
		}
		pg, werr := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
		if werr != nil {
			g.Release()
			return nil, 0, werr
		}
		meta := pg.UserMeta()
		if isLeafMeta(meta) {
			g.Release()
			return path, curr, nil
		}
		child := t.findChild(pg, meta, key)
		g.Release()
		path = append(path, curr)
		curr = disk.PageId(child)
	}
}

// findChild returns the child page id that keys compared equal-or-after
// key descend into, per spec.md section 4.5's "slot i: keys ≥ key[i] go
// to child value[i]".
func (t *Tree) findChild(pg *slotted.Page, meta []byte, key []byte) uint32 {
	found, idx := pg.BinarySearch(key, t.cmp)
	childIdx := idx
	if !found {
		childIdx = idx - 1
	}
	if childIdx < 0 {
		return leftmostChild(meta)
	}
	_, value, _ := pg.Get(childIdx)
	return decodeChild(value)
}

// Find returns every RID stored under key (more than one only for a
// non-UNIQUE index holding duplicate keys within the same leaf).
func (t *Tree) Find(key []byte) ([]RID, error) {
	_, leafId, err := t.descend(key)
	if err != nil {
		return nil, err
	}
	g, err := buffer.FetchGuarded(t.pool, leafId)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return nil, err
	}
	found, idx := pg.BinarySearch(key, t.cmp)
	if !found {
		return nil, nil
	}

	lo := idx
	for lo > 0 {
		k, _, gerr := pg.Get(lo - 1)
		if gerr != nil || t.cmp(k, key) != 0 {
			break
		}
		lo--
	}
	var rids []RID
	n := pg.RecordCount()
	for hi := lo; hi < n; hi++ {
		k, v, gerr := pg.Get(hi)
		if gerr != nil || t.cmp(k, key) != 0 {
			break
		}
		rids = append(rids, decodeRID(v))
	}
	return rids, nil
}

// Cursor walks a leaf chain forward from a starting position. It is
// finite and not restartable, per spec.md section 4.5; callers re-seek
// via IterFrom to restart.
type Cursor struct {
	tree   *Tree
	pageId disk.PageId
	slot   int
	done   bool
}

// IterFrom positions a Cursor at the first key ≥ key in the tree.
func (t *Tree) IterFrom(key []byte) (*Cursor, error) {
	_, leafId, err := t.descend(key)
	if err != nil {
		return nil, err
	}
	g, err := buffer.FetchGuarded(t.pool, leafId)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, t.keySize, nodeMetaSize)
	if err != nil {
		return nil, err
	}
	_, idx := pg.BinarySearch(key, t.cmp)
	return &Cursor{tree: t, pageId: leafId, slot: idx}, nil
}

// Next advances the cursor, returning ok=false once the chain is
// exhausted.
func (c *Cursor) Next() (key []byte, rid RID, ok bool, err error) {
	if c.done {
		return nil, RID{}, false, nil
	}
	for {
		g, ferr := buffer.FetchGuarded(c.tree.pool, c.pageId)
		if ferr != nil {
			return nil, RID{}, false, ferr
		}
		pg, werr := slotted.Wrap(g.Page().Data, c.tree.keySize, nodeMetaSize)
		if werr != nil {
			g.Release()
			return nil, RID{}, false, werr
		}

		n := pg.RecordCount()
		if c.slot < n {
			k, v, gerr := pg.Get(c.slot)
			c.slot++
			if gerr != nil {
				g.Release()
				continue
			}
			keyCopy := append([]byte(nil), k...)
			rid := decodeRID(v)
			g.Release()
			return keyCopy, rid, true, nil
		}

		next := pg.NextPageId()
		g.Release()
		if next == 0 {
			c.done = true
			return nil, RID{}, false, nil
		}
		c.pageId = disk.PageId(next)
		c.slot = 0
	}
}
