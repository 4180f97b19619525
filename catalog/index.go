package catalog

import (
	"bytes"
	"encoding/binary"

	"naivedb/buffer"
	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/index/bptree"
	"naivedb/schema"
	"naivedb/table"
)

// indexKind distinguishes the four constraint/index flavors spec.md
// section 6 lists as alter-table variants, all stored in one per-table
// indexes directory (table.Table.IndexesPageId): a table's primary key, a
// UNIQUE constraint, a plain secondary index, and a FOREIGN KEY reference
// (which carries no B+ tree of its own — enforcement reads the
// referenced table's own primary/unique index, see Database.Insert and
// Database.Delete in database.go).
type indexKind byte

const (
	kindPrimary indexKind = iota + 1
	kindUnique
	kindSecondary
	kindForeign
)

// indexEntry is one row of a table's indexes directory.
type indexEntry struct {
	kind         indexKind
	descriptorId uint32 // bptree.Tree descriptor page; unused (0) for kindForeign
	columns      []int  // this table's column indexes the entry is keyed/constrained on
	refTable     string // kindForeign only: the referenced table's name
	refColumns   []int  // kindForeign only: the referenced table's column indexes
}

func (e indexEntry) marshal() []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(e.kind))
	b4 := make([]byte, 4)
	binary.LittleEndian.PutUint32(b4, e.descriptorId)
	buf = append(buf, b4...)
	buf = append(buf, byte(len(e.columns)))
	for _, c := range e.columns {
		buf = append(buf, byte(c))
	}
	if e.kind == kindForeign {
		nameKey, _ := encodeName(e.refTable)
		buf = append(buf, nameKey...)
		buf = append(buf, byte(len(e.refColumns)))
		for _, c := range e.refColumns {
			buf = append(buf, byte(c))
		}
	}
	return buf
}

func unmarshalIndexEntry(data []byte) (indexEntry, error) {
	if len(data) < 6 {
		return indexEntry{}, dberrors.New(dberrors.InvariantViolation, "catalog: truncated index entry", nil)
	}
	e := indexEntry{kind: indexKind(data[0]), descriptorId: binary.LittleEndian.Uint32(data[1:5])}
	n := int(data[5])
	pos := 6
	for i := 0; i < n; i++ {
		e.columns = append(e.columns, int(data[pos]))
		pos++
	}
	if e.kind == kindForeign {
		if len(data) < pos+NameKeySize+1 {
			return indexEntry{}, dberrors.New(dberrors.InvariantViolation, "catalog: truncated foreign-key entry", nil)
		}
		e.refTable = decodeName(data[pos : pos+NameKeySize])
		pos += NameKeySize
		rn := int(data[pos])
		pos++
		for i := 0; i < rn; i++ {
			e.refColumns = append(e.refColumns, int(data[pos]))
			pos++
		}
	}
	return e, nil
}

// ensureIndexesPage returns the table's indexes directory page, allocating
// it on first use.
func ensureIndexesPage(pool *buffer.Pool, tbl *table.Table) (disk.PageId, error) {
	if id := tbl.IndexesPageId(); id != 0 {
		return disk.PageId(id), nil
	}
	dirId, err := newDirectory(pool)
	if err != nil {
		return 0, err
	}
	if err := tbl.SetIndexesPageId(uint32(dirId)); err != nil {
		return 0, err
	}
	return dirId, nil
}

func columnsOf(s schema.Schema, names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, n := range names {
		idx := s.IndexOf(n)
		if idx < 0 {
			return nil, dberrors.Newf(dberrors.NotFound, nil, "catalog: column %q not found", n)
		}
		cols[i] = idx
	}
	return cols, nil
}

func schemaCols(s schema.Schema, cols []int) []schema.Column {
	out := make([]schema.Column, len(cols))
	for i, c := range cols {
		out[i] = s.Columns[c]
	}
	return out
}

func rowKey(s schema.Schema, values []schema.Datum, cols []int) ([]byte, error) {
	picked := make([]schema.Datum, len(cols))
	for i, c := range cols {
		picked[i] = values[c]
	}
	return schema.EncodeOrderedKey(picked)
}

// createIndex allocates a new B+ tree over the named columns and
// registers it in the table's indexes directory under indexName.
func createIndex(pool *buffer.Pool, tbl *table.Table, indexName string, kind indexKind, colNames []string) (indexEntry, error) {
	cols, err := columnsOf(tbl.Schema, colNames)
	if err != nil {
		return indexEntry{}, err
	}
	width, err := schema.OrderedKeyWidth(schemaCols(tbl.Schema, cols))
	if err != nil {
		return indexEntry{}, err
	}
	tree, err := bptree.Create(pool, width, kind == kindPrimary || kind == kindUnique, bytes.Compare)
	if err != nil {
		return indexEntry{}, err
	}

	dirId, err := ensureIndexesPage(pool, tbl)
	if err != nil {
		return indexEntry{}, err
	}
	entry := indexEntry{kind: kind, descriptorId: uint32(tree.DescriptorId()), columns: cols}
	if err := rawInsert(pool, dirId, indexName, entry.marshal()); err != nil {
		return indexEntry{}, err
	}

	if err := tbl.Iter(func(rid table.RID, values []schema.Datum) bool {
		key, kerr := rowKey(tbl.Schema, values, cols)
		if kerr != nil {
			err = kerr
			return false
		}
		if ierr := tree.Insert(key, ridToBPTree(rid)); ierr != nil {
			err = ierr
			return false
		}
		return true
	}); err != nil {
		return indexEntry{}, err
	}
	if err != nil {
		return indexEntry{}, err
	}

	return entry, nil
}

func dropIndex(pool *buffer.Pool, tbl *table.Table, indexName string) error {
	dirId, ok, err := indexEntryDir(tbl)
	if err != nil || !ok {
		if err == nil {
			err = dberrors.Newf(dberrors.NotFound, nil, "catalog: table has no indexes")
		}
		return err
	}
	raw, ok, err := rawLookup(pool, dirId, indexName)
	if err != nil {
		return err
	}
	if !ok {
		return dberrors.Newf(dberrors.NotFound, nil, "catalog: index %q not found", indexName)
	}
	entry, err := unmarshalIndexEntry(raw)
	if err != nil {
		return err
	}
	if err := rawRemove(pool, dirId, indexName); err != nil {
		return err
	}
	if entry.kind == kindForeign {
		return nil
	}
	return pool.Dealloc(disk.PageId(entry.descriptorId))
}

func indexEntryDir(tbl *table.Table) (disk.PageId, bool, error) {
	id := tbl.IndexesPageId()
	if id == 0 {
		return 0, false, nil
	}
	return disk.PageId(id), true, nil
}

// IndexInfo describes one registered index or constraint, for
// FindIndexesByTable.
type IndexInfo struct {
	Name    string
	Primary bool
	Unique  bool
	Foreign bool
	Columns []string
}

// FindIndexesByTable lists every index/constraint registered for name.
func (db *Database) FindIndexesByTable(name string) ([]IndexInfo, error) {
	tbl, err := db.FindTable(name)
	if err != nil {
		return nil, err
	}
	dirId, ok, err := indexEntryDir(tbl)
	if err != nil || !ok {
		return nil, err
	}
	names, err := dirList(db.pool, dirId)
	if err != nil {
		return nil, err
	}
	infos := make([]IndexInfo, 0, len(names))
	for _, n := range names {
		raw, ok, err := rawLookup(db.pool, dirId, n)
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
		colNames := make([]string, len(entry.columns))
		for i, c := range entry.columns {
			colNames[i] = tbl.Schema.Columns[c].Name
		}
		infos = append(infos, IndexInfo{
			Name:    n,
			Primary: entry.kind == kindPrimary,
			Unique:  entry.kind == kindUnique,
			Foreign: entry.kind == kindForeign,
			Columns: colNames,
		})
	}
	return infos, nil
}

func ridToBPTree(rid table.RID) bptree.RID {
	return bptree.RID{PageId: uint32(rid.PageId), Slot: int32(rid.Slot)}
}

func ridFromBPTree(r bptree.RID) table.RID {
	return table.RID{PageId: disk.PageId(r.PageId), Slot: int(r.Slot)}
}
