package joinadvisor

import "testing"

func TestParseJoinHints_SingleBroadcast(t *testing.T) {
	hints, err := ParseJoinHints("select /*+ BROADCAST(orders) */ * from orders join customers on orders.cid = customers.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hints) != 1 || hints[0].Strategy != "BROADCAST" || len(hints[0].Tables) != 1 || hints[0].Tables[0] != "orders" {
		t.Fatalf("got %+v, want a single BROADCAST(orders) hint", hints)
	}
}

func TestParseJoinHints_MultipleTablesAndHints(t *testing.T) {
	sql := "select /*+ PARTITIONED(a, b) */ /*+ BROADCAST(c) */ * from a join b join c"
	hints, err := ParseJoinHints(sql)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("got %d hints, want 2: %+v", len(hints), hints)
	}
	if hints[0].Strategy != "PARTITIONED" || len(hints[0].Tables) != 2 {
		t.Fatalf("got %+v, want PARTITIONED(a, b)", hints[0])
	}
}

func TestParseJoinHints_NoHints(t *testing.T) {
	hints, err := ParseJoinHints("select * from orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hints) != 0 {
		t.Fatalf("got %+v, want no hints", hints)
	}
}

func TestParseJoinHints_Empty(t *testing.T) {
	hints, err := ParseJoinHints("   ")
	if err != nil || hints != nil {
		t.Fatalf("got (%+v, %v), want (nil, nil) for empty SQL", hints, err)
	}
}

func TestParseJoinHints_RejectsMalformedSQL(t *testing.T) {
	if _, err := ParseJoinHints("select /*+ BROADCAST(orders) */ from where"); err == nil {
		t.Fatal("expected an error for malformed SQL even if it carries a hint comment")
	}
}

func TestForTable(t *testing.T) {
	hints := []JoinHint{
		{Strategy: "BROADCAST", Tables: []string{"orders"}},
		{Strategy: "PARTITIONED", Tables: []string{"customers", "orders"}},
	}
	got := ForTable(hints, "orders")
	if len(got) != 2 {
		t.Fatalf("got %+v, want both hints naming orders", got)
	}
}
