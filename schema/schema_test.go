package schema

import (
	"bytes"
	"testing"
)

func testSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "id", Type: INT, Nullable: false, PrimaryKey: true},
		{Name: "name", Type: VARCHAR, Nullable: true, MaxLen: 32},
		{Name: "score", Type: FLOAT, Nullable: false},
		{Name: "joined", Type: DATE, Nullable: true},
		{Name: "active", Type: BOOL, Nullable: false},
	}}
}

func TestTupleMarshalUnmarshalRoundTrip(t *testing.T) {
	s := testSchema()
	values := []Datum{
		NewInt(7),
		NewVarchar("alice"),
		NewFloat(98.5),
		NewNull(DATE),
		NewBool(true),
	}
	data, err := s.Marshal(values)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got[0].Int != 7 || got[1].Str != "alice" || got[2].Float != 98.5 || !got[3].Null || got[4].Bool != true {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestValidateRejectsNullOnNotNullColumn(t *testing.T) {
	s := testSchema()
	values := []Datum{
		NewNull(INT),
		NewVarchar("x"),
		NewFloat(1),
		NewNull(DATE),
		NewBool(false),
	}
	if err := s.Validate(values); err == nil {
		t.Errorf("expected SchemaViolation for NULL in NOT NULL column")
	}
}

func TestValidateRejectsOverlongVarchar(t *testing.T) {
	s := testSchema()
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'x'
	}
	values := []Datum{
		NewInt(1),
		NewVarchar(string(long)),
		NewFloat(1),
		NewNull(DATE),
		NewBool(false),
	}
	if err := s.Validate(values); err == nil {
		t.Errorf("expected SchemaViolation for overlong VARCHAR")
	}
}

func TestSchemaMarshalUnmarshalRoundTrip(t *testing.T) {
	s := testSchema()
	data := MarshalSchema(s)
	got, err := UnmarshalSchema(data)
	if err != nil {
		t.Fatalf("UnmarshalSchema failed: %v", err)
	}
	if len(got.Columns) != len(s.Columns) {
		t.Fatalf("expected %d columns, got %d", len(s.Columns), len(got.Columns))
	}
	for i, c := range s.Columns {
		g := got.Columns[i]
		if g.Name != c.Name || g.Type != c.Type || g.Nullable != c.Nullable || g.PrimaryKey != c.PrimaryKey || g.MaxLen != c.MaxLen {
			t.Errorf("column %d mismatch: got %+v want %+v", i, g, c)
		}
	}
}

func TestCompareRowNullsSortFirst(t *testing.T) {
	a := []Datum{NewNull(INT)}
	b := []Datum{NewInt(1)}
	if CompareRow(a, b) >= 0 {
		t.Errorf("expected NULL to sort before non-null value")
	}
}

func TestEncodeOrderedKeyByteOrderMatchesIntOrder(t *testing.T) {
	vals := []int32{-100, -1, 0, 1, 100, 1 << 20}
	var keys [][]byte
	for _, v := range vals {
		k, err := EncodeOrderedKey([]Datum{NewInt(v)})
		if err != nil {
			t.Fatalf("EncodeOrderedKey(%d) failed: %v", v, err)
		}
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			t.Errorf("key order violated between %d and %d: %x vs %x", vals[i-1], vals[i], keys[i-1], keys[i])
		}
	}
}

func TestEncodeOrderedKeyNullSortsFirst(t *testing.T) {
	nullKey, err := EncodeOrderedKey([]Datum{NewNull(INT)})
	if err != nil {
		t.Fatalf("EncodeOrderedKey(null) failed: %v", err)
	}
	valKey, err := EncodeOrderedKey([]Datum{NewInt(-1000000)})
	if err != nil {
		t.Fatalf("EncodeOrderedKey(-1000000) failed: %v", err)
	}
	if bytes.Compare(nullKey, valKey) >= 0 {
		t.Errorf("expected NULL index key to sort before any non-null INT key")
	}
}

func TestOrderedKeyWidthRejectsVarchar(t *testing.T) {
	_, err := OrderedKeyWidth([]Column{{Name: "name", Type: VARCHAR}})
	if err == nil {
		t.Errorf("expected error indexing a VARCHAR column")
	}
}
