package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonica-labs/dagplan/internal/compiler"
	"github.com/canonica-labs/dagplan/internal/config"
	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// e2eConfig returns a compiler configuration wired for the on-disk
// fixtures under testdata/e2e: local storage, a fixed split size small
// enough to exercise batching across the fixture's file counts.
func e2eConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Compiler.Executor.InputStorage = "LOCAL"
	cfg.Compiler.Executor.IntermediateStorage = "LOCAL"
	cfg.Compiler.Executor.IntraWorkerParallelism = 2
	cfg.Compiler.FixedSplitSize = 2
	return cfg
}

func writeLayoutFixture(t *testing.T, layouts map[string][]metadata.Layout) string {
	t.Helper()
	data, err := json.Marshal(layouts)
	if err != nil {
		t.Fatalf("marshal layout fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "layouts.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write layout fixture: %v", err)
	}
	return path
}

func writePlanFixture(t *testing.T, table *planir.Table) string {
	t.Helper()
	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("marshal plan fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write plan fixture: %v", err)
	}
	return path
}

// broadcastJoinFixture builds the two-table SMALL_LEFT broadcast join
// used by the golden CLI test below: "shop.customers" (1 file) broadcast
// onto "shop.orders" (4 files), the same shape as
// internal/joincompiler.TestCompileJoin_PlainBroadcast, here driven
// through the CLI's JSON-file-and-flags surface instead of the compiler's
// internal API.
func broadcastJoinFixture(t *testing.T) (planPath, layoutPath string) {
	t.Helper()
	customers, err := planir.NewBaseTable("shop", "customers", []string{"id", "name"}, nil)
	if err != nil {
		t.Fatalf("NewBaseTable customers: %v", err)
	}
	orders, err := planir.NewBaseTable("shop", "orders", []string{"id", "customer_id"}, nil)
	if err != nil {
		t.Fatalf("NewBaseTable orders: %v", err)
	}
	join := &planir.Join{
		Left:              customers,
		Right:             orders,
		LeftKeyColumnIDs:  []planir.ColumnID{0},
		RightKeyColumnIDs: []planir.ColumnID{1},
		LeftProjection:    planir.NewBitmask(2),
		RightProjection:   planir.NewBitmask(2),
		JoinType:          planir.JoinInner,
		JoinAlgo:          planir.JoinBroadcast,
		JoinEndian:        planir.SmallLeft,
	}
	joined, err := planir.NewJoinedTable("shop", "orders_with_customers", nil, join)
	if err != nil {
		t.Fatalf("NewJoinedTable: %v", err)
	}

	layouts := map[string][]metadata.Layout{
		"shop.customers": {{Version: 1, OrderedPath: "testdata/e2e/customers/"}},
		"shop.orders":    {{Version: 1, OrderedPath: "testdata/e2e/orders/"}},
	}
	return writePlanFixture(t, joined), writeLayoutFixture(t, layouts)
}

// compileFixture drives the same sequence runPlanCompile does, without
// going through cobra or capturing stdout: load the plan, validate it,
// load the layout fixture, assemble the compiler Env from configuration,
// and compile.
func compileFixture(t *testing.T, cfg *config.Config, planPath, layoutPath string) *planir.Operator {
	t.Helper()
	c := &CLI{cfg: cfg}

	table, err := loadPlanTable(planPath)
	if err != nil {
		t.Fatalf("loadPlanTable: %v", err)
	}
	if err := validatePlanTable(table); err != nil {
		t.Fatalf("validatePlanTable: %v", err)
	}

	var layouts map[string][]metadata.Layout
	if layoutPath != "" {
		layouts, err = loadStaticLayouts(layoutPath)
		if err != nil {
			t.Fatalf("loadStaticLayouts: %v", err)
		}
	}

	advisor := joinadvisor.NewCostAdvisor(nil, 16, 1_000_000)
	env := c.newCompilerEnv("e2e", advisor, layouts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	op, err := compiler.Compile(ctx, env, table)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	return op
}

// TestPlanCompileE2E_BroadcastJoin loads a plan IR fixture and a static
// layout fixture through the CLI's --layout machinery, compiles it, and
// checks the compiled operator's shape against what
// internal/joincompiler's equivalent unit test expects for the same
// fixture. It also compiles the identical inputs twice and diffs the
// JSON-serialized operator trees against each other, guarding determinism
// at the CLI boundary rather than just the compiler's internal API.
func TestPlanCompileE2E_BroadcastJoin(t *testing.T) {
	cfg := e2eConfig()
	planPath, layoutPath := broadcastJoinFixture(t)

	op := compileFixture(t, cfg, planPath, layoutPath)

	if op.Kind != planir.OperatorSingleStageJoin || op.Algorithm != planir.JoinBroadcast {
		t.Fatalf("got kind=%v algorithm=%v, want SingleStageJoin/Broadcast", op.Kind, op.Algorithm)
	}
	if len(op.BroadcastInputs) != 1 {
		t.Fatalf("got %d broadcast inputs, want 1 (4 order files / fixed split size 2 batch into one worker at parallelism 2)", len(op.BroadcastInputs))
	}
	bi := op.BroadcastInputs[0]
	if len(bi.LargeTable.Splits) != 2 {
		t.Fatalf("got %d large splits, want 2 (4 files / fixed split size 2)", len(bi.LargeTable.Splits))
	}
	if len(bi.SmallTable.Splits) != 1 {
		t.Fatalf("got %d small splits, want 1 (1 file)", len(bi.SmallTable.Splits))
	}

	golden, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal operator: %v", err)
	}

	rerun := compileFixture(t, cfg, planPath, layoutPath)
	again, err := json.Marshal(rerun)
	if err != nil {
		t.Fatalf("marshal rerun operator: %v", err)
	}
	if !bytes.Equal(golden, again) {
		t.Fatalf("compiling the same plan twice produced different operator JSON:\nfirst:  %s\nsecond: %s", golden, again)
	}
}

// TestPlanCompileE2E_Aggregation exercises the aggregation-compiler path
// through the same CLI-level entry point, over a single Base origin
// table with a real on-disk file for its scan.
func TestPlanCompileE2E_Aggregation(t *testing.T) {
	origin, err := planir.NewBaseTable("shop", "events", []string{"event_type", "amount"}, nil)
	if err != nil {
		t.Fatalf("NewBaseTable events: %v", err)
	}
	agg := &planir.Aggregation{
		Origin:             origin,
		GroupKeyColumnIDs:  []planir.ColumnID{0},
		AggregateColumnIDs: []planir.ColumnID{1},
		ResultColumnTypes:  []string{"float64"},
		FunctionTypes:      []planir.FunctionType{planir.AggSum},
		OutputEndPoint:     planir.StorageInfo{Scheme: planir.SchemeLocal},
	}
	table, err := planir.NewAggregatedTable("shop", "event_totals", nil, agg)
	if err != nil {
		t.Fatalf("NewAggregatedTable: %v", err)
	}

	layouts := map[string][]metadata.Layout{
		"shop.events": {{Version: 1, OrderedPath: "testdata/e2e/events/"}},
	}
	planPath := writePlanFixture(t, table)
	layoutPath := writeLayoutFixture(t, layouts)

	op := compileFixture(t, e2eConfig(), planPath, layoutPath)
	if op.Kind != planir.OperatorAggregation {
		t.Fatalf("got kind %v, want Aggregation", op.Kind)
	}
}
