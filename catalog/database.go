package catalog

import (
	"bytes"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/index/bptree"
	"naivedb/schema"
	"naivedb/table"
)

// Database is a handle on one database's table directory (table name →
// table root page id), opened via Catalog.UseDatabase.
type Database struct {
	pool  *buffer.Pool
	name  string
	dirId disk.PageId
}

// Name returns the database's name.
func (db *Database) Name() string { return db.name }

// CreateTable registers a new, empty table under s.
func (db *Database) CreateTable(name string, s schema.Schema) error {
	tbl, err := table.Create(db.pool, s)
	if err != nil {
		return err
	}
	if err := dirInsert(db.pool, db.dirId, name, uint32(tbl.RootId())); err != nil {
		return err
	}
	var pkCols []string
	for _, c := range s.Columns {
		if c.PrimaryKey {
			pkCols = append(pkCols, c.Name)
		} else if c.Unique {
			if _, err := createIndex(db.pool, tbl, name+"_"+c.Name+"_ukey", kindUnique, []string{c.Name}); err != nil {
				return err
			}
		}
	}
	if len(pkCols) > 0 {
		if _, err := createIndex(db.pool, tbl, name+"_pkey", kindPrimary, pkCols); err != nil {
			return err
		}
	}
	return nil
}

// DropTable removes a table and its directory entry. A shallow free, like
// DropDatabase: the table's root page is deallocated, but its slice chain
// and index trees are not walked and freed.
func (db *Database) DropTable(name string) error {
	rootId, ok, err := dirLookup(db.pool, db.dirId, name)
	if err != nil {
		return err
	}
	if !ok {
		return dberrors.Newf(dberrors.NotFound, nil, "catalog: table %q not found", name)
	}
	if err := dirRemove(db.pool, db.dirId, name); err != nil {
		return err
	}
	return db.pool.Dealloc(disk.PageId(rootId))
}

// ShowTables lists every registered table name.
func (db *Database) ShowTables() ([]string, error) {
	return dirList(db.pool, db.dirId)
}

// FindTable opens a handle on an existing table.
func (db *Database) FindTable(name string) (*table.Table, error) {
	rootId, ok, err := dirLookup(db.pool, db.dirId, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberrors.Newf(dberrors.NotFound, nil, "catalog: table %q not found", name)
	}
	return table.Open(db.pool, disk.PageId(rootId))
}

// Desc returns a table's schema.
func (db *Database) Desc(name string) (schema.Schema, error) {
	tbl, err := db.FindTable(name)
	if err != nil {
		return schema.Schema{}, err
	}
	return tbl.Schema, nil
}

// constraintTree opens the B+ tree backing a table's index entry.
func constraintTree(pool *buffer.Pool, entry indexEntry, tbl *table.Table) (*bptree.Tree, error) {
	width, err := schema.OrderedKeyWidth(schemaCols(tbl.Schema, entry.columns))
	if err != nil {
		return nil, err
	}
	unique := entry.kind == kindPrimary || entry.kind == kindUnique
	return bptree.Open(pool, disk.PageId(entry.descriptorId), width, unique, bytes.Compare)
}

// tableIndexEntries loads every primary/unique/secondary index entry
// registered for tbl (foreign-key entries are excluded: they carry no
// B+ tree to maintain here).
func tableIndexEntries(pool *buffer.Pool, tbl *table.Table) ([]indexEntry, error) {
	dirId, ok, err := indexEntryDir(tbl)
	if err != nil || !ok {
		return nil, err
	}
	names, err := dirList(pool, dirId)
	if err != nil {
		return nil, err
	}
	var entries []indexEntry
	for _, n := range names {
		raw, ok, err := rawLookup(pool, dirId, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entry, err := unmarshalIndexEntry(raw)
		if err != nil {
			return nil, err
		}
		if entry.kind == kindForeign {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func foreignKeyEntries(pool *buffer.Pool, tbl *table.Table) ([]indexEntry, error) {
	dirId, ok, err := indexEntryDir(tbl)
	if err != nil || !ok {
		return nil, err
	}
	names, err := dirList(pool, dirId)
	if err != nil {
		return nil, err
	}
	var entries []indexEntry
	for _, n := range names {
		raw, ok, err := rawLookup(pool, dirId, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entry, err := unmarshalIndexEntry(raw)
		if err != nil {
			return nil, err
		}
		if entry.kind == kindForeign {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Insert validates values, rejects duplicate primary/unique keys, pins
// every row a foreign key references, and finally appends the tuple and
// maintains its indexes. Grounded on spec.md section 5's "constraint
// checks happen at the catalog layer, beneath the (absent) executor".
func (db *Database) Insert(tableName string, values []schema.Datum) (table.RID, error) {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return table.RID{}, err
	}
	if err := tbl.Schema.Validate(values); err != nil {
		return table.RID{}, err
	}

	entries, err := tableIndexEntries(db.pool, tbl)
	if err != nil {
		return table.RID{}, err
	}
	for _, e := range entries {
		if e.kind != kindPrimary && e.kind != kindUnique {
			continue
		}
		tree, err := constraintTree(db.pool, e, tbl)
		if err != nil {
			return table.RID{}, err
		}
		key, err := rowKey(tbl.Schema, values, e.columns)
		if err != nil {
			return table.RID{}, err
		}
		if existing, err := tree.Find(key); err != nil {
			return table.RID{}, err
		} else if len(existing) > 0 {
			return table.RID{}, dberrors.New(dberrors.DuplicateKey, "catalog: duplicate key violates primary/unique constraint", nil)
		}
	}

	fks, err := foreignKeyEntries(db.pool, tbl)
	if err != nil {
		return table.RID{}, err
	}
	var pinnedParents []*table.Table
	var pinnedRids []table.RID
	for _, fk := range fks {
		parentDb, err := db.sameDatabase(fk.refTable)
		if err != nil {
			return table.RID{}, err
		}
		parentTbl, err := parentDb.FindTable(fk.refTable)
		if err != nil {
			return table.RID{}, err
		}
		parentEntries, err := tableIndexEntries(db.pool, parentTbl)
		if err != nil {
			return table.RID{}, err
		}
		parentEntry, ok := findEntryByColumns(parentEntries, fk.refColumns)
		if !ok {
			return table.RID{}, dberrors.Newf(dberrors.NotFound, nil, "catalog: referenced table %q has no matching index", fk.refTable)
		}
		tree, err := constraintTree(db.pool, parentEntry, parentTbl)
		if err != nil {
			return table.RID{}, err
		}
		key, err := rowKey(tbl.Schema, values, fk.columns)
		if err != nil {
			return table.RID{}, err
		}
		rids, err := tree.Find(key)
		if err != nil {
			return table.RID{}, err
		}
		if len(rids) == 0 {
			return table.RID{}, dberrors.New(dberrors.ReferencedRow, "catalog: foreign key references a row that does not exist", nil)
		}
		parentRid := ridFromBPTree(rids[0])
		if err := parentTbl.PinRef(parentRid); err != nil {
			return table.RID{}, err
		}
		pinnedParents = append(pinnedParents, parentTbl)
		pinnedRids = append(pinnedRids, parentRid)
	}

	rid, err := tbl.Append(values)
	if err != nil {
		for i := range pinnedParents {
			pinnedParents[i].UnpinRef(pinnedRids[i])
		}
		return table.RID{}, err
	}

	for _, e := range entries {
		tree, err := constraintTree(db.pool, e, tbl)
		if err != nil {
			return rid, err
		}
		key, err := rowKey(tbl.Schema, values, e.columns)
		if err != nil {
			return rid, err
		}
		if err := tree.Insert(key, ridToBPTree(rid)); err != nil {
			return rid, err
		}
	}
	return rid, nil
}

// Delete removes the tuple at rid, failing with ReferencedRow if other
// rows still reference it (table.Table.Remove enforces this), and
// unpins every parent row this tuple itself referenced, and removes rid
// from every index.
func (db *Database) Delete(tableName string, rid table.RID) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	values, err := tbl.Get(rid)
	if err != nil {
		return err
	}

	if err := tbl.Remove(rid); err != nil {
		return err
	}

	entries, err := tableIndexEntries(db.pool, tbl)
	if err != nil {
		return err
	}
	for _, e := range entries {
		tree, err := constraintTree(db.pool, e, tbl)
		if err != nil {
			return err
		}
		key, err := rowKey(tbl.Schema, values, e.columns)
		if err != nil {
			return err
		}
		if err := tree.Remove(key, ridToBPTree(rid)); err != nil {
			return err
		}
	}

	fks, err := foreignKeyEntries(db.pool, tbl)
	if err != nil {
		return err
	}
	for _, fk := range fks {
		parentDb, err := db.sameDatabase(fk.refTable)
		if err != nil {
			return err
		}
		parentTbl, err := parentDb.FindTable(fk.refTable)
		if err != nil {
			return err
		}
		parentEntries, err := tableIndexEntries(db.pool, parentTbl)
		if err != nil {
			return err
		}
		parentEntry, ok := findEntryByColumns(parentEntries, fk.refColumns)
		if !ok {
			continue
		}
		tree, err := constraintTree(db.pool, parentEntry, parentTbl)
		if err != nil {
			return err
		}
		key, err := rowKey(tbl.Schema, values, fk.columns)
		if err != nil {
			return err
		}
		rids, err := tree.Find(key)
		if err != nil || len(rids) == 0 {
			continue
		}
		if err := parentTbl.UnpinRef(ridFromBPTree(rids[0])); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces the tuple at rid with values: delete-then-insert at the
// catalog layer, so index maintenance and constraint checks run exactly
// as they would for a fresh insert.
func (db *Database) Update(tableName string, rid table.RID, values []schema.Datum) (table.RID, error) {
	if err := db.Delete(tableName, rid); err != nil {
		return table.RID{}, err
	}
	return db.Insert(tableName, values)
}

// sameDatabase resolves a foreign key's referenced table within the same
// database. Cross-database foreign keys are outside spec.md's scope.
func (db *Database) sameDatabase(tableName string) (*Database, error) {
	if _, ok, err := dirLookup(db.pool, db.dirId, tableName); err != nil {
		return nil, err
	} else if !ok {
		return nil, dberrors.Newf(dberrors.NotFound, nil, "catalog: referenced table %q not found in database %q", tableName, db.name)
	}
	return db, nil
}

func findEntryByColumns(entries []indexEntry, cols []int) (indexEntry, bool) {
	for _, e := range entries {
		if e.kind != kindPrimary && e.kind != kindUnique {
			continue
		}
		if sameColumns(e.columns, cols) {
			return e, true
		}
	}
	return indexEntry{}, false
}

func sameColumns(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
