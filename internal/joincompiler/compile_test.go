package joincompiler

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

func simpleJoin(left, right *planir.Table, algo planir.JoinAlgo) *planir.Join {
	return &planir.Join{
		Left:              left,
		Right:             right,
		LeftKeyColumnIDs:  []planir.ColumnID{0},
		RightKeyColumnIDs: []planir.ColumnID{0},
		LeftProjection:    planir.NewBitmask(2),
		RightProjection:   planir.NewBitmask(2),
		JoinType:          planir.JoinInner,
		JoinAlgo:          algo,
		JoinEndian:        planir.SmallLeft,
	}
}

func TestCompileJoin_PlainBroadcast(t *testing.T) {
	left := testTable("s", "left", 2)
	right := testTable("s", "right", 2)
	joined, err := planir.NewJoinedTable("s", "lr", nil, simpleJoin(left, right, planir.JoinBroadcast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layouts := map[string]metadata.Layout{
		"left":  layoutFor("left/", 100, 1),
		"right": layoutFor("right/", 100, 1),
	}
	files := map[string][]string{
		"left/":  {"left/a.parquet"},
		"right/": {"right/a.parquet", "right/b.parquet", "right/c.parquet", "right/d.parquet"},
	}
	env := newTestEnv(layouts, files, nil, 2)

	op, err := CompileJoin(context.Background(), env, joined, nil)
	if err != nil {
		t.Fatalf("CompileJoin error: %v", err)
	}

	if op.Kind != planir.OperatorSingleStageJoin || op.Algorithm != planir.JoinBroadcast {
		t.Fatalf("got kind=%v algo=%v, want SingleStageJoin/Broadcast", op.Kind, op.Algorithm)
	}
	if len(op.BroadcastInputs) != 1 {
		t.Fatalf("got %d broadcast inputs, want 1 (right's 2 splits batch into one worker at parallelism 2)", len(op.BroadcastInputs))
	}
	bi := op.BroadcastInputs[0]
	if len(bi.LargeTable.Splits) != 2 {
		t.Fatalf("got %d large splits, want 2 (4 files / fixed split size 2)", len(bi.LargeTable.Splits))
	}
	if len(bi.SmallTable.Splits) != 1 {
		t.Fatalf("got %d small splits, want 1 (1 file)", len(bi.SmallTable.Splits))
	}
	if len(bi.Output.Paths) != 1 {
		t.Fatal("expected exactly one output path per broadcast worker-input")
	}
}

func TestCompileJoin_PlainBroadcast_OuterRejected(t *testing.T) {
	left := testTable("s", "left", 2)
	right := testTable("s", "right", 2)
	j := simpleJoin(left, right, planir.JoinBroadcast)
	j.JoinType = planir.JoinEquiLeft
	if _, err := planir.NewJoinedTable("s", "lr", nil, j); err == nil {
		t.Fatal("expected invariant-4 rejection: EQUI_LEFT forbids BROADCAST at construction time")
	}
}

func TestCompileJoin_Partitioned(t *testing.T) {
	left := testTable("s", "left", 2)
	right := testTable("s", "right", 2)
	joined, err := planir.NewJoinedTable("s", "lr", nil, simpleJoin(left, right, planir.JoinPartitioned))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layouts := map[string]metadata.Layout{
		"left":  layoutFor("left/", 100, 1),
		"right": layoutFor("right/", 100, 1),
	}
	files := map[string][]string{
		"left/":  {"left/a.parquet", "left/b.parquet"},
		"right/": {"right/a.parquet", "right/b.parquet", "right/c.parquet", "right/d.parquet"},
	}
	advisor := &fakeAdvisor{numPartitions: 3}
	env := newTestEnv(layouts, files, advisor, 2)

	op, err := CompileJoin(context.Background(), env, joined, nil)
	if err != nil {
		t.Fatalf("CompileJoin error: %v", err)
	}
	if op.Kind != planir.OperatorPartitionedJoin || op.Algorithm != planir.JoinPartitioned {
		t.Fatalf("got kind=%v algo=%v, want PartitionedJoin/Partitioned", op.Kind, op.Algorithm)
	}
	if len(op.PartitionedInputs) != 3 {
		t.Fatalf("got %d partitioned inputs, want 3 (numPartitions)", len(op.PartitionedInputs))
	}
	if err := planir.ValidatePartitionBuckets("s", "lr", op.PartitionedInputs, 3); err != nil {
		t.Fatalf("partition bucket coverage invalid: %v", err)
	}
}

// TestCompileJoin_BroadcastChainLifecycle exercises initiation, extension,
// and completion across a three-way left-deep SMALL_LEFT broadcast chain:
// ((a JOIN b) JOIN c) JOIN d, where a/b/c are chained in memory and d is
// streamed through as the large side.
func TestCompileJoin_BroadcastChainLifecycle(t *testing.T) {
	a := testTable("s", "a", 2)
	b := testTable("s", "b", 2)
	c := testTable("s", "c", 2)
	d := testTable("s", "d", 2)

	ab, err := planir.NewJoinedTable("s", "ab", nil, simpleJoin(a, b, planir.JoinBroadcast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	abc, err := planir.NewJoinedTable("s", "abc", nil, simpleJoin(ab, c, planir.JoinBroadcast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	abcd, err := planir.NewJoinedTable("s", "abcd", nil, simpleJoin(abc, d, planir.JoinBroadcast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layouts := map[string]metadata.Layout{
		"a": layoutFor("a/", 100, 1),
		"b": layoutFor("b/", 100, 1),
		"c": layoutFor("c/", 100, 1),
		"d": layoutFor("d/", 100, 1),
	}
	files := map[string][]string{
		"a/": {"a/1.parquet"},
		"b/": {"b/1.parquet"},
		"c/": {"c/1.parquet"},
		"d/": {"d/1.parquet", "d/2.parquet"},
	}
	env := newTestEnv(layouts, files, nil, 4)

	op, err := CompileJoin(context.Background(), env, abcd, nil)
	if err != nil {
		t.Fatalf("CompileJoin error: %v", err)
	}
	if op.Algorithm != planir.JoinBroadcastChain {
		t.Fatalf("got algorithm %v, want BROADCAST_CHAIN", op.Algorithm)
	}
	if !op.IsBroadcastChainComplete() {
		t.Fatal("root chain-join must be complete")
	}
	if len(op.ChainInputs) == 0 {
		t.Fatal("expected at least one completed chain-join input")
	}
	for _, ci := range op.ChainInputs {
		if len(ci.ChainTables) != 3 {
			t.Fatalf("got %d chain tables, want 3 (a, b, c)", len(ci.ChainTables))
		}
		if len(ci.ChainJoinInfos) != 2 {
			t.Fatalf("got %d chain join infos, want 2 (b-link, c-link)", len(ci.ChainJoinInfos))
		}
		if ci.LargeTable == nil {
			t.Fatal("completed chain-join must carry a LargeTable")
		}
	}
}
