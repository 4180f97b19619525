package bptree

import (
	"encoding/binary"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/slotted"
)

// The tree descriptor page holds tree-wide metadata directly at fixed
// offsets (bypassing the slotted-page abstraction, the way
// disk.Manager's own header page does): key size, root node page id,
// height, and the UNIQUE flag, per spec.md section 4.5's "root
// descriptor" page. Grounded on the teacher's OpenBPlusTree metadata-page
// reservation and WriteRootID/ReadRootID.
const (
	descKeySizeOffset = 0
	descRootIdOffset  = 4
	descHeightOffset  = 8
	descUniqueOffset  = 12
)

// Tree is a live handle on one B+ tree index.
type Tree struct {
	pool         *buffer.Pool
	descriptorId disk.PageId
	keySize      int
	unique       bool
	cmp          slotted.Comparator

	rootId uint32
	height uint32
}

// Create allocates a descriptor page and an empty root leaf, and returns
// a handle on the new tree. keySize is the fixed width of every index
// key; cmp orders two keySize-byte keys.
func Create(pool *buffer.Pool, keySize int, unique bool, cmp slotted.Comparator) (*Tree, error) {
	rootG, err := buffer.AllocGuarded(pool)
	if err != nil {
		return nil, err
	}
	defer rootG.Release()
	rootPg, err := slotted.New(rootG.Page().Data, keySize, nodeMetaSize)
	if err != nil {
		return nil, err
	}
	if err := rootPg.SetUserMeta(buildMeta(true, 0)); err != nil {
		return nil, err
	}
	rootG.MarkDirty()

	descG, err := buffer.AllocGuarded(pool)
	if err != nil {
		return nil, err
	}
	defer descG.Release()

	t := &Tree{
		pool:         pool,
		descriptorId: descG.Page().ID,
		keySize:      keySize,
		unique:       unique,
		cmp:          cmp,
		rootId:       uint32(rootG.Page().ID),
		height:       1,
	}
	writeDescriptor(descG.Page().Data, t)
	descG.MarkDirty()
	return t, nil
}

// Open loads an existing tree's descriptor page. keySize, unique, and cmp
// are supplied by the caller (the catalog, which knows the index's key
// schema) rather than persisted redundantly beyond keySize/unique, which
// Open cross-checks against the stored values.
func Open(pool *buffer.Pool, descriptorId disk.PageId, keySize int, unique bool, cmp slotted.Comparator) (*Tree, error) {
	g, err := buffer.FetchGuarded(pool, descriptorId)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	data := g.Page().Data
	storedKeySize := int(binary.LittleEndian.Uint32(data[descKeySizeOffset:]))
	if storedKeySize != keySize {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"bptree: descriptor %d key size %d != requested %d", descriptorId, storedKeySize, keySize)
	}
	if storedUnique := data[descUniqueOffset] == 1; storedUnique != unique {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"bptree: descriptor %d unique flag %v != requested %v", descriptorId, storedUnique, unique)
	}

	t := &Tree{
		pool:         pool,
		descriptorId: descriptorId,
		keySize:      keySize,
		unique:       unique,
		cmp:          cmp,
		rootId:       binary.LittleEndian.Uint32(data[descRootIdOffset:]),
		height:       binary.LittleEndian.Uint32(data[descHeightOffset:]),
	}
	return t, nil
}

func writeDescriptor(data []byte, t *Tree) {
	binary.LittleEndian.PutUint32(data[descKeySizeOffset:], uint32(t.keySize))
	binary.LittleEndian.PutUint32(data[descRootIdOffset:], t.rootId)
	binary.LittleEndian.PutUint32(data[descHeightOffset:], t.height)
	if t.unique {
		data[descUniqueOffset] = 1
	} else {
		data[descUniqueOffset] = 0
	}
}

func (t *Tree) persistDescriptor() error {
	g, err := buffer.FetchGuarded(t.pool, t.descriptorId)
	if err != nil {
		return err
	}
	defer g.Release()
	writeDescriptor(g.Page().Data, t)
	g.MarkDirty()
	return nil
}

// DescriptorId returns the tree's descriptor page id, the handle a
// catalog entry persists to reopen this index later.
func (t *Tree) DescriptorId() disk.PageId { return t.descriptorId }

// Height returns the tree's current height (1 for a tree with only a
// root leaf).
func (t *Tree) Height() int { return int(t.height) }
