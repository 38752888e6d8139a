package aggcompiler

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

func aggregatedTable(origin *planir.Table, endpoint planir.StorageInfo, outputPath string) *planir.Table {
	agg := &planir.Aggregation{
		Origin:             origin,
		GroupKeyColumnIDs:  []planir.ColumnID{0},
		AggregateColumnIDs: []planir.ColumnID{1},
		ResultColumnTypes:  []string{"int64"},
		FunctionTypes:      []planir.FunctionType{planir.AggSum},
		OutputEndPoint:     endpoint,
		OutputPath:         outputPath,
	}
	table, err := planir.NewAggregatedTable("s", "agg_t", nil, agg)
	if err != nil {
		panic(err)
	}
	return table
}

func TestCompileAggregation_BaseOrigin_NoPreAggregate(t *testing.T) {
	base := testBaseTable("s", "t", 2)
	table := aggregatedTable(base, planir.StorageInfo{Scheme: planir.SchemeS3, Endpoint: "out"}, "result")

	layouts := map[string]metadata.Layout{"t": layoutFor("t/", 100, 1)}
	files := map[string][]string{"t/": {"t/a.parquet", "t/b.parquet", "t/c.parquet", "t/d.parquet"}}
	env := newTestEnv(layouts, files, 1, 0, false)

	op, err := CompileAggregation(context.Background(), env, table)
	if err != nil {
		t.Fatalf("CompileAggregation error: %v", err)
	}
	if op.Kind != planir.OperatorAggregation {
		t.Fatalf("got kind %v, want Aggregation", op.Kind)
	}
	// 4 files / fixed split size 2 -> 2 splits; parallelism 1 -> 2 producers.
	if len(op.ScanInputs) != 2 {
		t.Fatalf("got %d scan inputs, want 2", len(op.ScanInputs))
	}
	for _, si := range op.ScanInputs {
		if si.PartialAggregation == nil {
			t.Fatal("expected PartialAggregation to be attached to every producer")
		}
		if si.Output.Storage.Scheme != planir.SchemeLocal {
			t.Fatalf("got producer storage %v, want intermediate (LOCAL)", si.Output.Storage.Scheme)
		}
	}
	if len(op.PreAggrInputs) != 0 {
		t.Fatalf("got %d pre-aggr inputs, want 0 (threshold disabled)", len(op.PreAggrInputs))
	}
	if op.FinalInput == nil {
		t.Fatal("expected a final aggregation input")
	}
	if len(op.FinalInput.InputFiles) != 2 {
		t.Fatalf("got %d final input files, want 2 (one per producer)", len(op.FinalInput.InputFiles))
	}
	if op.FinalInput.Output.Path != "result/final_aggr" {
		t.Fatalf("got final output path %q, want result/final_aggr", op.FinalInput.Output.Path)
	}
}

func TestCompileAggregation_BaseOrigin_PreAggregate(t *testing.T) {
	base := testBaseTable("s", "t", 2)
	table := aggregatedTable(base, planir.StorageInfo{Scheme: planir.SchemeS3}, "")

	layouts := map[string]metadata.Layout{"t": layoutFor("t/", 100, 1)}
	files := map[string][]string{"t/": {"t/a.parquet", "t/b.parquet", "t/c.parquet", "t/d.parquet"}}
	env := newTestEnv(layouts, files, 1, 1, false)

	op, err := CompileAggregation(context.Background(), env, table)
	if err != nil {
		t.Fatalf("CompileAggregation error: %v", err)
	}
	// 2 producers, threshold 1 -> preAggregate true, chunked 1-per-stage -> 2 pre-aggr inputs.
	if len(op.PreAggrInputs) != 2 {
		t.Fatalf("got %d pre-aggr inputs, want 2", len(op.PreAggrInputs))
	}
	if len(op.FinalInput.InputFiles) != 2 {
		t.Fatalf("got %d final input files, want 2 (one per pre-aggr stage)", len(op.FinalInput.InputFiles))
	}
	for i, want := range op.PreAggrInputs {
		if op.FinalInput.InputFiles[i] != want.Output.Path {
			t.Fatalf("final input %d = %q, want pre-aggr output %q", i, op.FinalInput.InputFiles[i], want.Output.Path)
		}
	}
	if op.FinalInput.Output.Path != "final_aggr" {
		t.Fatalf("got final output path %q, want bare final_aggr", op.FinalInput.Output.Path)
	}
}

func TestCompileAggregation_OutputStorageRule_RoutesToFinalEndpoint(t *testing.T) {
	base := testBaseTable("s", "t", 2)
	endpoint := planir.StorageInfo{Scheme: planir.SchemeS3, Endpoint: "final"}
	table := aggregatedTable(base, endpoint, "")

	layouts := map[string]metadata.Layout{"t": layoutFor("t/", 100, 1)}
	files := map[string][]string{"t/": {"t/a.parquet", "t/b.parquet"}}
	// 2 files / fixed split size 2 -> 1 split; parallelism 4 -> single producer batch; no pre-aggregation threshold set.
	env := newTestEnv(layouts, files, 4, 0, true)

	op, err := CompileAggregation(context.Background(), env, table)
	if err != nil {
		t.Fatalf("CompileAggregation error: %v", err)
	}
	if len(op.ScanInputs) != 1 {
		t.Fatalf("got %d scan inputs, want 1", len(op.ScanInputs))
	}
	if op.ScanInputs[0].Output.Storage.Endpoint != endpoint.Endpoint {
		t.Fatalf("got producer storage %+v, want routed straight to final endpoint %+v", op.ScanInputs[0].Output.Storage, endpoint)
	}
}

func TestCompileAggregation_JoinedOrigin(t *testing.T) {
	left := testBaseTable("s", "left", 2)
	right := testBaseTable("s", "right", 2)
	join := &planir.Join{
		Left:              left,
		Right:             right,
		LeftKeyColumnIDs:  []planir.ColumnID{0},
		RightKeyColumnIDs: []planir.ColumnID{0},
		LeftProjection:    planir.NewBitmask(2),
		RightProjection:   planir.NewBitmask(2),
		JoinType:          planir.JoinInner,
		JoinAlgo:          planir.JoinBroadcast,
		JoinEndian:        planir.SmallLeft,
	}
	joined, err := planir.NewJoinedTable("s", "lr", nil, join)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := aggregatedTable(joined, planir.StorageInfo{Scheme: planir.SchemeS3}, "out")

	layouts := map[string]metadata.Layout{
		"left":  layoutFor("left/", 100, 1),
		"right": layoutFor("right/", 100, 1),
	}
	files := map[string][]string{
		"left/":  {"left/a.parquet"},
		"right/": {"right/a.parquet"},
	}
	env := newTestEnv(layouts, files, 4, 0, false)

	op, err := CompileAggregation(context.Background(), env, table)
	if err != nil {
		t.Fatalf("CompileAggregation error: %v", err)
	}
	if op.SmallChild == nil {
		t.Fatal("expected the compiled join to be attached as SmallChild")
	}
	if len(op.SmallChild.BroadcastInputs) != 1 {
		t.Fatalf("got %d broadcast inputs, want 1", len(op.SmallChild.BroadcastInputs))
	}
	bi := op.SmallChild.BroadcastInputs[0]
	if bi.JoinInfo.PartialAggregation == nil {
		t.Fatal("expected the join worker-input to carry the partial-aggregation spec")
	}
	if len(bi.Output.Paths) != 1 {
		t.Fatalf("got %d output paths, want 1 (redirected to partial_aggr_0)", len(bi.Output.Paths))
	}
	if len(op.FinalInput.InputFiles) != 1 {
		t.Fatalf("got %d final input files, want 1 (one join producer)", len(op.FinalInput.InputFiles))
	}
	if op.FinalInput.InputFiles[0] != bi.Output.Paths[0] {
		t.Fatalf("final input %q does not match join producer output %q", op.FinalInput.InputFiles[0], bi.Output.Paths[0])
	}
}
