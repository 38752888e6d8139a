package sql

import "testing"

func TestParseTableReference_PlainQualifiedName(t *testing.T) {
	schema, table, asOf, err := ParseTableReference("sales.orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema != "sales" || table != "orders" || asOf != nil {
		t.Fatalf("got (%q, %q, %+v), want (sales, orders, nil)", schema, table, asOf)
	}
}

func TestParseTableReference_SystemTime(t *testing.T) {
	schema, table, asOf, err := ParseTableReference("sales.orders FOR SYSTEM_TIME AS OF '2024-01-01T00:00:00Z'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema != "sales" || table != "orders" {
		t.Fatalf("got (%q, %q), want (sales, orders)", schema, table)
	}
	if asOf == nil || asOf.ClauseType != "SYSTEM_TIME" || asOf.Timestamp != "2024-01-01T00:00:00Z" {
		t.Fatalf("got %+v, want a SYSTEM_TIME clause at 2024-01-01T00:00:00Z", asOf)
	}
}

func TestParseTableReference_Version(t *testing.T) {
	schema, table, asOf, err := ParseTableReference("sales.orders FOR VERSION AS OF 42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema != "sales" || table != "orders" {
		t.Fatalf("got (%q, %q), want (sales, orders)", schema, table)
	}
	if asOf == nil || asOf.ClauseType != "VERSION" || asOf.Version != "42" {
		t.Fatalf("got %+v, want a VERSION clause at 42", asOf)
	}
}

func TestParseTableReference_RejectsUnqualifiedName(t *testing.T) {
	if _, _, _, err := ParseTableReference("orders"); err == nil {
		t.Fatal("expected an error for an unqualified table name")
	}
}

func TestParseTableReference_RejectsUnqualifiedNameWithAsOf(t *testing.T) {
	if _, _, _, err := ParseTableReference("orders FOR VERSION AS OF 1"); err == nil {
		t.Fatal("expected an error for an unqualified table name even with a time-travel clause")
	}
}
