package sql

import (
	"testing"

	"github.com/canonica-labs/dagplan/internal/planir"
)

func TestParseScanFilter_SimpleComparison(t *testing.T) {
	cols := map[string]planir.ColumnID{"amount": 1}
	p, err := ParseScanFilter("amount > 100", cols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Op != planir.PredicateCompare || p.ColumnID != 1 || p.CompareOp != ">" || p.Literal != "100" {
		t.Fatalf("got %+v, want compare amount > 100", p)
	}
}

func TestParseScanFilter_AndOr(t *testing.T) {
	cols := map[string]planir.ColumnID{"amount": 1, "region": 2}
	p, err := ParseScanFilter("amount > 100 and region = 'us'", cols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Op != planir.PredicateAnd || len(p.Children) != 2 {
		t.Fatalf("got %+v, want a 2-child AND", p)
	}
	right := p.Children[1]
	if right.ColumnID != 2 || right.Literal != "us" {
		t.Fatalf("got %+v, want region = us", right)
	}
}

func TestParseScanFilter_In(t *testing.T) {
	cols := map[string]planir.ColumnID{"region": 2}
	p, err := ParseScanFilter("region in ('us', 'eu')", cols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Op != planir.PredicateCompare || p.CompareOp != "IN" || len(p.LiteralSet) != 2 {
		t.Fatalf("got %+v, want a 2-member IN set", p)
	}
}

func TestParseScanFilter_UnknownColumn(t *testing.T) {
	if _, err := ParseScanFilter("missing = 1", map[string]planir.ColumnID{}); err == nil {
		t.Fatal("expected an error for an unresolvable column")
	}
}

func TestParseScanFilter_Empty(t *testing.T) {
	p, err := ParseScanFilter("  ", nil)
	if err != nil || p != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) for an empty filter", p, err)
	}
}
