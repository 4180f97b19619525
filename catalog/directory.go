package catalog

import (
	"bytes"
	"encoding/binary"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/slotted"
)

// A directory page is a slotted page keyed on fixed-width names, the
// shape spec.md section 4.6 uses at every level: the catalog root
// (database name → database page id), a database page (table name →
// table root page id), and a table's indexes page (index name → index
// metadata, see index.go). These helpers operate on any page of that
// shape by raw value bytes; dirLookup/dirInsert/dirRemove below are thin
// uint32-page-id wrappers for the page-id-valued directories.
const dirValueSize = 4

func newDirectory(pool *buffer.Pool) (disk.PageId, error) {
	g, err := buffer.AllocGuarded(pool)
	if err != nil {
		return 0, err
	}
	defer g.Release()
	if _, err := slotted.New(g.Page().Data, NameKeySize, 0); err != nil {
		return 0, err
	}
	g.MarkDirty()
	return g.Page().ID, nil
}

func rawLookup(pool *buffer.Pool, dirId disk.PageId, name string) ([]byte, bool, error) {
	key, err := encodeName(name)
	if err != nil {
		return nil, false, err
	}
	g, err := buffer.FetchGuarded(pool, dirId)
	if err != nil {
		return nil, false, err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, NameKeySize, 0)
	if err != nil {
		return nil, false, err
	}
	found, idx := pg.BinarySearch(key, bytes.Compare)
	if !found {
		return nil, false, nil
	}
	_, value, err := pg.Get(idx)
	if err != nil {
		return nil, false, err
	}
	return append([]byte(nil), value...), true, nil
}

func rawInsert(pool *buffer.Pool, dirId disk.PageId, name string, value []byte) error {
	key, err := encodeName(name)
	if err != nil {
		return err
	}
	g, err := buffer.FetchGuarded(pool, dirId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, NameKeySize, 0)
	if err != nil {
		return err
	}
	if found, _ := pg.BinarySearch(key, bytes.Compare); found {
		return dberrors.Newf(dberrors.DuplicateKey, nil, "catalog: %q already exists", name)
	}
	if _, err := pg.InsertSorted(key, value, bytes.Compare); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}

func rawRemove(pool *buffer.Pool, dirId disk.PageId, name string) error {
	key, err := encodeName(name)
	if err != nil {
		return err
	}
	g, err := buffer.FetchGuarded(pool, dirId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, NameKeySize, 0)
	if err != nil {
		return err
	}
	found, idx := pg.BinarySearch(key, bytes.Compare)
	if !found {
		return dberrors.Newf(dberrors.NotFound, nil, "catalog: %q not found", name)
	}
	if err := pg.Remove(idx); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}

func dirList(pool *buffer.Pool, dirId disk.PageId) ([]string, error) {
	g, err := buffer.FetchGuarded(pool, dirId)
	if err != nil {
		return nil, err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, NameKeySize, 0)
	if err != nil {
		return nil, err
	}
	var names []string
	pg.Iter(func(i int, key, value []byte) bool {
		names = append(names, decodeName(key))
		return true
	})
	return names, nil
}

// dirLookup/dirInsert/dirRemove specialize the raw helpers above to the
// uint32-page-id directories (catalog root, database table lists).
func dirLookup(pool *buffer.Pool, dirId disk.PageId, name string) (uint32, bool, error) {
	value, ok, err := rawLookup(pool, dirId, name)
	if err != nil || !ok {
		return 0, ok, err
	}
	return binary.LittleEndian.Uint32(value), true, nil
}

func dirInsert(pool *buffer.Pool, dirId disk.PageId, name string, value uint32) error {
	b := make([]byte, dirValueSize)
	binary.LittleEndian.PutUint32(b, value)
	return rawInsert(pool, dirId, name, b)
}

func dirRemove(pool *buffer.Pool, dirId disk.PageId, name string) error {
	return rawRemove(pool, dirId, name)
}
