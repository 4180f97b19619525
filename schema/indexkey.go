package schema

import (
	"encoding/binary"
	"math"

	"naivedb/dberrors"
)

// OrderedKeyWidth returns the fixed byte width of an index key built over
// cols by EncodeOrderedKey: a 1-byte null flag plus the column's fixed
// width, summed across columns. VARCHAR cannot back a B+ tree's
// fixed-width key in this implementation (see DESIGN.md), so indexing is
// limited to INT/FLOAT/DATE/BOOL columns; OrderedKeyWidth errors on any
// VARCHAR column.
func OrderedKeyWidth(cols []Column) (int, error) {
	width := 0
	for _, c := range cols {
		w := FixedWidth(c.Type)
		if w < 0 {
			return 0, dberrors.Newf(dberrors.SchemaViolation, nil, "schema: column %q (%s) cannot back an index key", c.Name, c.Type)
		}
		width += 1 + w
	}
	return width, nil
}

// EncodeOrderedKey packs values into a fixed-width, byte-comparable B+
// tree index key: per column, a 1-byte null flag (0 = null, 1 = present,
// so plain bytes.Compare sorts NULLs first, per spec.md section 4.5's
// tie-break rule) followed by the value's fixed-width bytes in a
// big-endian, sign-adjusted form whose unsigned byte ordering matches the
// value's natural ordering.
func EncodeOrderedKey(values []Datum) ([]byte, error) {
	var out []byte
	for _, v := range values {
		w := FixedWidth(v.Type)
		if w < 0 {
			return nil, dberrors.Newf(dberrors.SchemaViolation, nil, "schema: column type %s cannot back an index key", v.Type)
		}
		if v.Null {
			out = append(out, 0)
			out = append(out, make([]byte, w)...)
			continue
		}
		out = append(out, 1)
		switch v.Type {
		case INT:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v.Int)^0x80000000)
			out = append(out, b...)
		case FLOAT:
			bits := math.Float64bits(v.Float)
			if bits>>63 == 1 {
				bits = ^bits
			} else {
				bits |= 1 << 63
			}
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, bits)
			out = append(out, b...)
		case DATE:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v.Date)^0x80000000)
			out = append(out, b...)
		case BOOL:
			if v.Bool {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		default:
			return nil, dberrors.Newf(dberrors.SchemaViolation, nil, "schema: column type %s cannot back an index key", v.Type)
		}
	}
	return out, nil
}
