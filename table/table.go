package table

import (
	"encoding/binary"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/schema"
	"naivedb/slotted"
)

// rootUserMetaSize is the root page's fixed user-meta region: a 4-byte
// first-slice page id and a 4-byte indexes-list page id, per spec.md
// section 4.4.
const rootUserMetaSize = 8

// sliceKeySize is the width of a slice slot's key: the foreign-key
// reference counter, per spec.md section 4.4.
const sliceKeySize = 4

// Table is a live handle on one table's root page and slice chain.
type Table struct {
	pool   *buffer.Pool
	rootId disk.PageId
	Schema schema.Schema

	firstSlice  uint32
	indexesPage uint32
}

// Create allocates a fresh root page for a new table with the given
// schema and returns a handle on it.
func Create(pool *buffer.Pool, s schema.Schema) (*Table, error) {
	g, err := buffer.AllocGuarded(pool)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	pg, err := slotted.New(g.Page().Data, 0, rootUserMetaSize)
	if err != nil {
		return nil, err
	}
	if _, err := pg.Insert(nil, schema.MarshalSchema(s)); err != nil {
		return nil, err
	}
	writeRootMeta(pg, 0, 0)
	g.MarkDirty()

	return &Table{pool: pool, rootId: g.Page().ID, Schema: s}, nil
}

// Open loads an existing table's root page by page id.
func Open(pool *buffer.Pool, rootId disk.PageId) (*Table, error) {
	g, err := buffer.FetchGuarded(pool, rootId)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	pg, err := slotted.Wrap(g.Page().Data, 0, rootUserMetaSize)
	if err != nil {
		return nil, err
	}
	_, schemaBytes, err := pg.Get(0)
	if err != nil {
		return nil, dberrors.Newf(dberrors.InvariantViolation, err, "table: root page %d missing schema slot", rootId)
	}
	s, err := schema.UnmarshalSchema(schemaBytes)
	if err != nil {
		return nil, err
	}
	first, indexes := readRootMeta(pg)

	return &Table{pool: pool, rootId: rootId, Schema: s, firstSlice: first, indexesPage: indexes}, nil
}

// RootId returns the table's root page id.
func (t *Table) RootId() disk.PageId { return t.rootId }

// IndexesPageId returns the page id listing this table's indexes (0 if
// none has been created yet).
func (t *Table) IndexesPageId() uint32 { return t.indexesPage }

// SetIndexesPageId records the table's index-list page id on the root
// page.
func (t *Table) SetIndexesPageId(id uint32) error {
	t.indexesPage = id
	return t.persistRootMeta()
}

func readRootMeta(pg *slotted.Page) (first, indexes uint32) {
	meta := pg.UserMeta()
	return binary.LittleEndian.Uint32(meta[0:]), binary.LittleEndian.Uint32(meta[4:])
}

func writeRootMeta(pg *slotted.Page, first, indexes uint32) {
	meta := make([]byte, rootUserMetaSize)
	binary.LittleEndian.PutUint32(meta[0:], first)
	binary.LittleEndian.PutUint32(meta[4:], indexes)
	pg.SetUserMeta(meta)
}

func (t *Table) persistRootMeta() error {
	g, err := buffer.FetchGuarded(t.pool, t.rootId)
	if err != nil {
		return err
	}
	defer g.Release()
	pg, err := slotted.Wrap(g.Page().Data, 0, rootUserMetaSize)
	if err != nil {
		return err
	}
	writeRootMeta(pg, t.firstSlice, t.indexesPage)
	g.MarkDirty()
	return nil
}
