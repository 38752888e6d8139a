package catalog

import "testing"

func TestTableMetadata_ColumnNames(t *testing.T) {
	meta := TableMetadata{
		Database: "s",
		Name:     "t",
		Columns: []ColumnMetadata{
			{Name: "id"},
			{Name: "amount"},
			{Name: "region"},
		},
	}

	got := meta.ColumnNames()
	want := []string{"id", "amount", "region"}
	if len(got) != len(want) {
		t.Fatalf("got %d column names, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("got column %d = %q, want %q", i, got[i], name)
		}
	}
}

func TestTableMetadata_ColumnNames_Empty(t *testing.T) {
	meta := TableMetadata{Database: "s", Name: "t"}
	if got := meta.ColumnNames(); len(got) != 0 {
		t.Fatalf("got %v, want empty slice for a table with no columns", got)
	}
}
