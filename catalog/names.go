package catalog

import "naivedb/dberrors"

// NameKeySize bounds every catalog directory entry's name to a fixed
// width so database, table, and index directories can all share the
// slotted page's fixed-key-size requirement, per spec.md section 4.6's
// "slotted pages with name strings as keys".
const NameKeySize = 56

func encodeName(name string) ([]byte, error) {
	if len(name) == 0 || len(name) > NameKeySize {
		return nil, dberrors.Newf(dberrors.SchemaViolation, nil,
			"catalog: name %q must be 1..%d bytes", name, NameKeySize)
	}
	key := make([]byte, NameKeySize)
	copy(key, name)
	return key, nil
}

// decodeName trims the zero padding encodeName adds. Relies on identifiers
// never containing a NUL byte, which CreateDatabase/CreateTable/AddIndex
// do not otherwise enforce but is true of every name this package
// generates internally and every realistic SQL identifier.
func decodeName(key []byte) string {
	end := len(key)
	for end > 0 && key[end-1] == 0 {
		end--
	}
	return string(key[:end])
}
