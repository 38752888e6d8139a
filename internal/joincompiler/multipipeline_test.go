package joincompiler

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// TestCompileMultiPipeline_PromoteToPartitionedChain exercises §4.4's
// BROADCAST-over-PARTITIONED case: (a JOIN_BROADCAST b) JOIN_BROADCAST
// (c JOIN_PARTITIONED d), where the left pipeline yields an incomplete
// chain and the right pipeline is PARTITIONED, so every right bucket is
// promoted into a PartitionedChainJoinInput carrying the left chain.
func TestCompileMultiPipeline_PromoteToPartitionedChain(t *testing.T) {
	a := testTable("s", "a", 2)
	b := testTable("s", "b", 2)
	c := testTable("s", "c", 2)
	d := testTable("s", "d", 2)

	ab, err := planir.NewJoinedTable("s", "ab", nil, simpleJoin(a, b, planir.JoinBroadcast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd, err := planir.NewJoinedTable("s", "cd", nil, simpleJoin(c, d, planir.JoinPartitioned))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	multiJoin := &planir.Join{
		Left:              ab,
		Right:             cd,
		LeftKeyColumnIDs:  []planir.ColumnID{0},
		RightKeyColumnIDs: []planir.ColumnID{0},
		LeftProjection:    planir.NewBitmask(2),
		RightProjection:   planir.NewBitmask(2),
		JoinType:          planir.JoinInner,
		JoinAlgo:          planir.JoinBroadcast,
		JoinEndian:        planir.SmallLeft,
	}
	multiJoined, err := planir.NewJoinedTable("s", "abcd", nil, multiJoin)
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
		"d/": {"d/1.parquet"},
	}
	advisor := &fakeAdvisor{numPartitions: 2}
	env := newTestEnv(layouts, files, advisor, 4)

	op, err := CompileJoin(context.Background(), env, multiJoined, nil)
	if err != nil {
		t.Fatalf("CompileJoin error: %v", err)
	}

	if op.Kind != planir.OperatorPartitionedJoin || op.Algorithm != planir.JoinPartitionedChain {
		t.Fatalf("got kind=%v algo=%v, want PartitionedJoin/PartitionedChain", op.Kind, op.Algorithm)
	}
	if len(op.PartitionedChainInputs) != 2 {
		t.Fatalf("got %d partitioned-chain inputs, want 2 (cd's numPartitions)", len(op.PartitionedChainInputs))
	}
	for _, in := range op.PartitionedChainInputs {
		if len(in.ChainTables) != 2 {
			t.Fatalf("got %d chain tables, want 2 (a, b)", len(in.ChainTables))
		}
		if len(in.ChainJoinInfos) != 2 {
			t.Fatalf("got %d chain join infos, want 2 (b-link, final abcd-link)", len(in.ChainJoinInfos))
		}
	}
}
