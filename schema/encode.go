package schema

import (
	"encoding/binary"

	"naivedb/dberrors"
)

// flag bits for a persisted column descriptor.
const (
	flagNullable = 1 << iota
	flagPrimaryKey
	flagUnique
)

// MarshalSchema serializes a Schema's column list for storage on a
// table's root page, grounded on ShubhamNegi4-DaemonDB/types/table.go's
// ColumnDef fields: name, type, and (here, widened from just IsPrimaryKey)
// nullable/unique flags.
func MarshalSchema(s Schema) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(len(s.Columns)))
	for _, c := range s.Columns {
		nameBytes := []byte(c.Name)
		nb := make([]byte, 2)
		binary.LittleEndian.PutUint16(nb, uint16(len(nameBytes)))
		buf = append(buf, nb...)
		buf = append(buf, nameBytes...)

		buf = append(buf, byte(c.Type))

		var flags byte
		if c.Nullable {
			flags |= flagNullable
		}
		if c.PrimaryKey {
			flags |= flagPrimaryKey
		}
		if c.Unique {
			flags |= flagUnique
		}
		buf = append(buf, flags)

		ml := make([]byte, 4)
		binary.LittleEndian.PutUint32(ml, uint32(c.MaxLen))
		buf = append(buf, ml...)
	}
	return buf
}

// UnmarshalSchema is the inverse of MarshalSchema.
func UnmarshalSchema(data []byte) (Schema, error) {
	if len(data) < 2 {
		return Schema{}, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated schema header")
	}
	n := int(binary.LittleEndian.Uint16(data))
	pos := 2

	cols := make([]Column, 0, n)
	for i := 0; i < n; i++ {
		if pos+2 > len(data) {
			return Schema{}, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated column %d name length", i)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if pos+nameLen+1+1+4 > len(data) {
			return Schema{}, dberrors.Newf(dberrors.InvariantViolation, nil, "schema: truncated column %d body", i)
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen

		typ := Type(data[pos])
		pos++

		flags := data[pos]
		pos++

		maxLen := int(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4

		cols = append(cols, Column{
			Name:       name,
			Type:       typ,
			Nullable:   flags&flagNullable != 0,
			PrimaryKey: flags&flagPrimaryKey != 0,
			Unique:     flags&flagUnique != 0,
			MaxLen:     maxLen,
		})
	}
	return Schema{Columns: cols}, nil
}
