package planir

import "testing"

func TestBitmaskSuperset(t *testing.T) {
	small := NewBitmask(4)
	small[1] = false
	small[3] = false // keeps 0, 2

	large := NewBitmask(4) // keeps everything
	if !large.Superset(small) {
		t.Fatal("all-true bitmask must be a superset of any bitmask")
	}
	if small.Superset(large) {
		t.Fatal("partial bitmask must not be a superset of all-true bitmask")
	}
}

func TestBitmaskColumns(t *testing.T) {
	b := Bitmask{true, false, true, false, true}
	got := b.Columns()
	want := []ColumnID{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Columns() = %v, want %v", got, want)
		}
	}
}

func TestBitmaskCloneIndependence(t *testing.T) {
	orig := NewBitmask(3)
	clone := orig.Clone()
	clone[0] = false
	if !orig[0] {
		t.Fatal("mutating a clone must not affect the original")
	}
}
