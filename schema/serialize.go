package schema

import (
	"encoding/binary"
	"math"

	"naivedb/dberrors"
)

// nullBitmapSize returns the number of bytes needed for n columns' null
// flags, one bit per column.
func nullBitmapSize(n int) int { return (n + 7) / 8 }

// Marshal serializes a tuple of Datums per the schema's column order: a
// leading null bitmap (spec.md section 6), followed by the schema-directed
// concatenation of non-null column values. Grounded on
// storage_engine/serialization.go's ValueToBytes (little-endian fixed
// widths, uint16-length-prefixed VARCHAR), widened to FLOAT as 8 bytes
// (spec.md requires IEEE-754 64-bit; the teacher uses 32-bit) and to
// DATE/BOOL.
func (s Schema) Marshal(values []Datum) ([]byte, error) {
	if err := s.Validate(values); err != nil {
		return nil, err
	}

	bitmap := make([]byte, nullBitmapSize(len(values)))
	var body []byte
	for i, v := range values {
		if v.Null {
			bitmap[i/8] |= 1 << uint(i%8)
			continue
		}
		body = append(body, encodeDatum(v)...)
	}
	return append(bitmap, body...), nil
}

func encodeDatum(v Datum) []byte {
	switch v.Type {
	case INT:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.Int))
		return b
	case FLOAT:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.Float))
		return b
	case VARCHAR:
		lb := make([]byte, 2)
		binary.LittleEndian.PutUint16(lb, uint16(len(v.Str)))
		return append(lb, []byte(v.Str)...)
	case DATE:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.Date))
		return b
	case BOOL:
		if v.Bool {
			return []byte{1}
		}
		return []byte{0}
	default:
		return nil
	}
}

// Unmarshal is the inverse of Marshal: it reads the null bitmap, then
// decodes each non-null column's value per the schema's type.
func (s Schema) Unmarshal(data []byte) ([]Datum, error) {
	n := len(s.Columns)
	bmSize := nullBitmapSize(n)
	if len(data) < bmSize {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: tuple shorter than null bitmap")
	}
	bitmap := data[:bmSize]
	pos := bmSize

	values := make([]Datum, n)
	for i, c := range s.Columns {
		if bitmap[i/8]&(1<<uint(i%8)) != 0 {
			values[i] = NewNull(c.Type)
			continue
		}
		v, consumed, err := decodeDatum(c, data[pos:])
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += consumed
	}
	return values, nil
}

func decodeDatum(c Column, data []byte) (Datum, int, error) {
	switch c.Type {
	case INT:
		if len(data) < 4 {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated INT for column %q", c.Name)
		}
		return NewInt(int32(binary.LittleEndian.Uint32(data))), 4, nil
	case FLOAT:
		if len(data) < 8 {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated FLOAT for column %q", c.Name)
		}
		return NewFloat(math.Float64frombits(binary.LittleEndian.Uint64(data))), 8, nil
	case VARCHAR:
		if len(data) < 2 {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated VARCHAR length for column %q", c.Name)
		}
		length := int(binary.LittleEndian.Uint16(data))
		if len(data) < 2+length {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated VARCHAR body for column %q", c.Name)
		}
		return NewVarchar(string(data[2 : 2+length])), 2 + length, nil
	case DATE:
		if len(data) < 4 {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated DATE for column %q", c.Name)
		}
		return NewDate(int32(binary.LittleEndian.Uint32(data))), 4, nil
	case BOOL:
		if len(data) < 1 {
			return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated BOOL for column %q", c.Name)
		}
		return NewBool(data[0] != 0), 1, nil
	default:
		return Datum{}, 0, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: unknown column type for %q", c.Name)
	}
}
