package compiler

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/config"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

func TestCompile_RejectsNilRoot(t *testing.T) {
	if _, err := Compile(context.Background(), newTestEnv(nil, nil), nil); err == nil {
		t.Fatal("expected an error for a nil root")
	}
}

func TestCompile_RejectsBaseRoot(t *testing.T) {
	base := testBaseTable("s", "t", 2)
	if _, err := Compile(context.Background(), newTestEnv(nil, nil), base); err == nil {
		t.Fatal("expected an error compiling a Base root directly")
	}
}

func TestCompile_DispatchesJoined(t *testing.T) {
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

	layouts := map[string]metadata.Layout{
		"left":  layoutFor("left/", 100, 1),
		"right": layoutFor("right/", 100, 1),
	}
	files := map[string][]string{
		"left/":  {"left/a.parquet"},
		"right/": {"right/a.parquet"},
	}
	env := newTestEnv(layouts, files)

	op, err := Compile(context.Background(), env, joined)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if op.Kind != planir.OperatorSingleStageJoin {
		t.Fatalf("got kind %v, want SingleStageJoin", op.Kind)
	}
}

func TestCompile_DispatchesAggregated(t *testing.T) {
	base := testBaseTable("s", "t", 2)
	agg := &planir.Aggregation{
		Origin:             base,
		GroupKeyColumnIDs:  []planir.ColumnID{0},
		AggregateColumnIDs: []planir.ColumnID{1},
		ResultColumnTypes:  []string{"int64"},
		FunctionTypes:      []planir.FunctionType{planir.AggSum},
		OutputEndPoint:     planir.StorageInfo{Scheme: planir.SchemeS3},
	}
	table, err := planir.NewAggregatedTable("s", "agg_t", nil, agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layouts := map[string]metadata.Layout{"t": layoutFor("t/", 100, 1)}
	files := map[string][]string{"t/": {"t/a.parquet"}}
	env := newTestEnv(layouts, files)

	op, err := Compile(context.Background(), env, table)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if op.Kind != planir.OperatorAggregation {
		t.Fatalf("got kind %v, want Aggregation", op.Kind)
	}
}

func TestNewEnv_AssemblesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Compiler
	env := NewEnv(cfg, metadata.NewService(), nil, nil, nil, nil,
		planir.StorageInfo{Scheme: planir.SchemeS3}, planir.StorageInfo{Scheme: planir.SchemeLocal}, "q1")

	if env.IntraWorkerParallelism != cfg.Executor.IntraWorkerParallelism {
		t.Fatalf("got parallelism %d, want %d", env.IntraWorkerParallelism, cfg.Executor.IntraWorkerParallelism)
	}
	if env.PreAggrThreshold != cfg.Aggregation.PreAggregateThreshold {
		t.Fatalf("got preAggrThreshold %d, want %d", env.PreAggrThreshold, cfg.Aggregation.PreAggregateThreshold)
	}
	if env.QueryID != "q1" {
		t.Fatalf("got queryID %q, want q1", env.QueryID)
	}
}
