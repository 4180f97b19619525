// Package schema defines NaiveDB's column/table schema and the typed
// Datum values tuples are built from, plus schema-directed tuple
// serialization.
//
// Grounded on ShubhamNegi4-DaemonDB/types/table.go (ColumnDef, TableSchema)
// and storage_engine/serialization.go (ValueToBytes/BytesToValue), widened
// from the teacher's INT/VARCHAR pair to the full INT/FLOAT/VARCHAR/DATE/
// BOOL set spec.md section 3 names, each nullable via a leading null
// bitmap (spec.md section 6's tuple format) rather than the teacher's
// always-present map[string]interface{} row.
package schema

import "naivedb/dberrors"

// Type is a column's datum type.
type Type int

const (
	INT Type = iota
	FLOAT
	VARCHAR
	DATE
	BOOL
)

func (t Type) String() string {
	switch t {
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case VARCHAR:
		return "VARCHAR"
	case DATE:
		return "DATE"
	case BOOL:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// FixedWidth returns the on-disk width in bytes for fixed-width types, or
// -1 for VARCHAR (which is length-prefixed and variable).
func FixedWidth(t Type) int {
	switch t {
	case INT:
		return 4
	case FLOAT:
		return 8
	case DATE:
		return 4
	case BOOL:
		return 1
	case VARCHAR:
		return -1
	default:
		return -1
	}
}

// Column describes one column of a Schema.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
	// MaxLen bounds a VARCHAR column's byte length; ignored for other types.
	MaxLen int
	// PrimaryKey marks this column as (part of) the table's primary key.
	PrimaryKey bool
	// Unique marks this column as carrying a UNIQUE constraint.
	Unique bool
}

// Schema is an ordered list of columns, fixed at table creation.
type Schema struct {
	Columns []Column
}

// IndexOf returns the position of the named column, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks a tuple of Datums against the schema's arity,
// nullability, and VARCHAR length constraints.
func (s Schema) Validate(values []Datum) error {
	if len(values) != len(s.Columns) {
		return dberrors.Newf(dberrors.SchemaViolation, nil,
			"schema: expected %d values, got %d", len(s.Columns), len(values))
	}
	for i, c := range s.Columns {
		v := values[i]
		if v.Null {
			if !c.Nullable {
				return dberrors.Newf(dberrors.SchemaViolation, nil, "schema: column %q is NOT NULL", c.Name)
			}
			continue
		}
		if v.Type != c.Type {
			return dberrors.Newf(dberrors.SchemaViolation, nil,
				"schema: column %q expects %s, got %s", c.Name, c.Type, v.Type)
		}
		if c.Type == VARCHAR && c.MaxLen > 0 && len(v.Str) > c.MaxLen {
			return dberrors.Newf(dberrors.SchemaViolation, nil,
				"schema: column %q value length %d exceeds max %d", c.Name, len(v.Str), c.MaxLen)
		}
	}
	return nil
}
