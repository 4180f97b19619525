package schema

// Datum is a single typed value, or NULL. Exactly one of the payload
// fields is meaningful, selected by Type (ignored entirely when Null).
type Datum struct {
	Null bool
	Type Type

	Int   int32
	Float float64
	Str   string
	Date  int32 // days since the Unix epoch
	Bool  bool
}

// NewInt builds a non-null INT datum.
func NewInt(v int32) Datum { return Datum{Type: INT, Int: v} }

// NewFloat builds a non-null FLOAT datum.
func NewFloat(v float64) Datum { return Datum{Type: FLOAT, Float: v} }

// NewVarchar builds a non-null VARCHAR datum.
func NewVarchar(v string) Datum { return Datum{Type: VARCHAR, Str: v} }

// NewDate builds a non-null DATE datum from a day count since the epoch.
func NewDate(days int32) Datum { return Datum{Type: DATE, Date: days} }

// NewBool builds a non-null BOOL datum.
func NewBool(v bool) Datum { return Datum{Type: BOOL, Bool: v} }

// NewNull builds a NULL datum of the given type.
func NewNull(t Type) Datum { return Datum{Null: true, Type: t} }

// Compare orders two non-null datums of the same type. Callers handling
// NULLs must special-case them first: per spec.md section 4.5, NULL
// compares unequal to everything, including another NULL, for uniqueness
// purposes, and sorts before all non-null values for ordering purposes.
func Compare(a, b Datum) int {
	switch a.Type {
	case INT:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case FLOAT:
		switch {
		case a.Float < b.Float:
			return -1
		case a.Float > b.Float:
			return 1
		default:
			return 0
		}
	case VARCHAR:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	case DATE:
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		default:
			return 0
		}
	case BOOL:
		switch {
		case !a.Bool && b.Bool:
			return -1
		case a.Bool && !b.Bool:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// CompareRow compares two equal-length tuples column by column, per
// spec.md section 4.5's composite-key ordering. NULLs sort before
// non-null values of the same column.
func CompareRow(a, b []Datum) int {
	for i := range a {
		x, y := a[i], b[i]
		switch {
		case x.Null && y.Null:
			continue
		case x.Null:
			return -1
		case y.Null:
			return 1
		default:
			if c := Compare(x, y); c != 0 {
				return c
			}
		}
	}
	return 0
}
