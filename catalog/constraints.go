package catalog

import "naivedb/dberrors"

// AddPrimary creates the table's primary-key index over cols, rejecting
// existing duplicate values found while backfilling.
func (db *Database) AddPrimary(tableName string, cols []string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	_, err = createIndex(db.pool, tbl, tableName+"_pkey", kindPrimary, cols)
	return err
}

// DropPrimary removes a table's primary-key index.
func (db *Database) DropPrimary(tableName string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	return dropIndex(db.pool, tbl, tableName+"_pkey")
}

// AddUnique creates a UNIQUE constraint (backed by a B+ tree rejecting
// duplicates) over cols, named indexName.
func (db *Database) AddUnique(tableName, indexName string, cols []string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	_, err = createIndex(db.pool, tbl, indexName, kindUnique, cols)
	return err
}

// AddIndex creates a plain (non-unique) secondary index over cols.
func (db *Database) AddIndex(tableName, indexName string, cols []string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	_, err = createIndex(db.pool, tbl, indexName, kindSecondary, cols)
	return err
}

// DropIndex removes an index or constraint entry by name. It does not
// check the entry's kind, so a foreign-key entry named here is removed
// the same way DropForeign removes it.
func (db *Database) DropIndex(tableName, indexName string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	return dropIndex(db.pool, tbl, indexName)
}

// AddForeign registers a foreign-key relationship from tableName.cols to
// refTable.refCols. The referenced table must already carry a
// primary/unique index over refCols (spec.md section 4.6's "a foreign key
// must reference a primary or unique key"). No B+ tree is allocated for
// the relationship itself; enforcement consults the referenced table's
// existing index at insert/delete time (see database.go's Insert/Delete).
func (db *Database) AddForeign(tableName, fkName string, cols []string, refTable string, refCols []string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	colIdx, err := columnsOf(tbl.Schema, cols)
	if err != nil {
		return err
	}

	parentTbl, err := db.FindTable(refTable)
	if err != nil {
		return err
	}
	refColIdx, err := columnsOf(parentTbl.Schema, refCols)
	if err != nil {
		return err
	}
	parentEntries, err := tableIndexEntries(db.pool, parentTbl)
	if err != nil {
		return err
	}
	if _, ok := findEntryByColumns(parentEntries, refColIdx); !ok {
		return dberrors.Newf(dberrors.SchemaViolation, nil,
			"catalog: foreign key must reference a primary or unique key on %q", refTable)
	}

	dirId, err := ensureIndexesPage(db.pool, tbl)
	if err != nil {
		return err
	}
	entry := indexEntry{kind: kindForeign, columns: colIdx, refTable: refTable, refColumns: refColIdx}
	return rawInsert(db.pool, dirId, fkName, entry.marshal())
}

// DropForeign removes a foreign-key relationship by name.
func (db *Database) DropForeign(tableName, fkName string) error {
	tbl, err := db.FindTable(tableName)
	if err != nil {
		return err
	}
	return dropIndex(db.pool, tbl, fkName)
}
