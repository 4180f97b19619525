// Package catalog implements spec.md section 4.6's persistent directory of
// databases, tables, and indexes: nested slotted pages rooted at
// disk.PageId 1 (PageId 0 is the disk manager's free-list header, see
// SPEC_FULL.md section 4.6's resolution of the literal "root at PageId 0"
// wording in spec.md section 3's Catalog paragraph).
//
// Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/catalog/{main.go,structs.go} for
// the operation surface (RegisterNewTable/UnregisterTable/GetTableSchema/
// TableExists, current-database selection) and naming, rewritten from the
// teacher's JSON-sidecar-files-on-disk persistence to buffer-pool-managed
// slotted-page directories, per spec.md section 9's "Catalog as nested
// slotted pages" design note.
package catalog

import (
	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/slotted"
)

// RootPageId is the catalog's fixed home. A fresh database file's very
// first page allocation (performed by Open below) is guaranteed to land
// here, since disk.Manager numbers page 0 the reserved header and hands
// out 1 as the first free id.
const RootPageId disk.PageId = 1

// Catalog is the top-level handle: the databases directory.
type Catalog struct {
	pool   *buffer.Pool
	rootId disk.PageId
}

// Open attaches to the catalog directory on pool, initializing it if this
// is a fresh database file. Open must be called before any other page is
// allocated from a fresh pool, so that the bootstrap allocation lands on
// RootPageId.
func Open(pool *buffer.Pool) (*Catalog, error) {
	if g, err := buffer.FetchGuarded(pool, RootPageId); err == nil {
		g.Release()
		return &Catalog{pool: pool, rootId: RootPageId}, nil
	}

	g, err := buffer.AllocGuarded(pool)
	if err != nil {
		return nil, err
	}
	defer g.Release()
	if g.Page().ID != RootPageId {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"catalog: bootstrap expected page id %d, got %d (Open must run before any other allocation on a fresh file)",
			RootPageId, g.Page().ID)
	}
	if _, err := slotted.New(g.Page().Data, NameKeySize, 0); err != nil {
		return nil, err
	}
	g.MarkDirty()
	return &Catalog{pool: pool, rootId: RootPageId}, nil
}

// CreateDatabase registers a new, empty database.
func (c *Catalog) CreateDatabase(name string) error {
	dirId, err := newDirectory(c.pool)
	if err != nil {
		return err
	}
	if err := dirInsert(c.pool, c.rootId, name, uint32(dirId)); err != nil {
		return err
	}
	return nil
}

// DropDatabase removes a database and its directory entry. Per DESIGN.md,
// this is a shallow free: the database's own directory page is
// deallocated, but tables/indexes/data pages it still referenced are not
// walked and freed (a known limitation, documented alongside the free-list
// non-goal).
func (c *Catalog) DropDatabase(name string) error {
	dirId, ok, err := dirLookup(c.pool, c.rootId, name)
	if err != nil {
		return err
	}
	if !ok {
		return dberrors.Newf(dberrors.NotFound, nil, "catalog: database %q not found", name)
	}
	if err := dirRemove(c.pool, c.rootId, name); err != nil {
		return err
	}
	return c.pool.Dealloc(disk.PageId(dirId))
}

// ShowDatabases lists every registered database name.
func (c *Catalog) ShowDatabases() ([]string, error) {
	return dirList(c.pool, c.rootId)
}

// UseDatabase opens a handle on an existing database for table operations.
func (c *Catalog) UseDatabase(name string) (*Database, error) {
	dirId, ok, err := dirLookup(c.pool, c.rootId, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberrors.Newf(dberrors.NotFound, nil, "catalog: database %q not found", name)
	}
	return &Database{pool: c.pool, name: name, dirId: disk.PageId(dirId)}, nil
}
