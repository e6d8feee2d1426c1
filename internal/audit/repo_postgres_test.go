package audit

import "testing"

func TestNullableID(t *testing.T) {
	if v := nullableID(""); v.Valid {
		t.Fatalf("empty id must bind as NULL, got %+v", v)
	}
	if v := nullableID("3f1c9b2a-0000-0000-0000-000000000000"); !v.Valid || v.String == "" {
		t.Fatalf("present id must bind as-is, got %+v", v)
	}
}
