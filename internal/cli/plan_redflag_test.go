package cli

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonica-labs/dagplan/internal/compiler"
	dagerrors "github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// TestLoadStaticLayouts_MalformedJSON covers the first of the four
// documented plan-compile failure modes: a --layout file that isn't
// valid JSON must fail cleanly rather than panicking or silently
// producing an empty layout table.
func TestLoadStaticLayouts_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := loadStaticLayouts(path); err == nil {
		t.Fatal("expected an error for malformed layout JSON")
	}
}

// TestPlanCompile_UnreachableMetadataBackend covers the second failure
// mode: a plan referencing a table with no registered layout provider (no
// --layout given) must surface a MetadataUnavailable error rather than
// compiling against an empty/default layout.
func TestPlanCompile_UnreachableMetadataBackend(t *testing.T) {
	planPath, _ := broadcastJoinFixture(t)

	c := &CLI{cfg: e2eConfig()}
	table, err := loadPlanTable(planPath)
	if err != nil {
		t.Fatalf("loadPlanTable: %v", err)
	}
	if err := validatePlanTable(table); err != nil {
		t.Fatalf("validatePlanTable: %v", err)
	}

	advisor := joinadvisor.NewCostAdvisor(nil, 16, 1_000_000)
	env := c.newCompilerEnv("e2e", advisor, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = compiler.Compile(ctx, env, table)
	if err == nil {
		t.Fatal("expected an error compiling against an unregistered metadata catalog")
	}
	var metaErr *dagerrors.ErrMetadataUnavailable
	if !stderrors.As(err, &metaErr) {
		t.Fatalf("got error %v (%T), want *errors.ErrMetadataUnavailable", err, err)
	}
}

// TestPlanCompile_UnreachableStorageBackend covers the third failure
// mode: the metadata catalog resolves a layout fine, but the layout's
// storage scheme has no backend registered (the CLI always registers a
// LOCAL backend; configuring the compiler for S3 input storage leaves
// every LOCAL-scheme layout unservable).
func TestPlanCompile_UnreachableStorageBackend(t *testing.T) {
	planPath, layoutPath := broadcastJoinFixture(t)

	cfg := e2eConfig()
	cfg.Compiler.Executor.InputStorage = "S3"

	c := &CLI{cfg: cfg}
	table, err := loadPlanTable(planPath)
	if err != nil {
		t.Fatalf("loadPlanTable: %v", err)
	}
	layouts, err := loadStaticLayouts(layoutPath)
	if err != nil {
		t.Fatalf("loadStaticLayouts: %v", err)
	}

	advisor := joinadvisor.NewCostAdvisor(nil, 16, 1_000_000)
	env := c.newCompilerEnv("e2e", advisor, layouts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = compiler.Compile(ctx, env, table)
	if err == nil {
		t.Fatal("expected an error compiling against an unregistered storage scheme")
	}
	var storageErr *dagerrors.ErrStorageUnavailable
	if !stderrors.As(err, &storageErr) {
		t.Fatalf("got error %v (%T), want *errors.ErrStorageUnavailable", err, err)
	}
}

// TestValidatePlanTable_InvalidPlanConditions covers the fourth failure
// mode: plan files that encode a join/aggregation shape the logical-plan
// constructors would have rejected. Since loadPlanTable unmarshals
// directly into planir.Table rather than going through
// NewJoinedTable/NewAggregatedTable, validatePlanTable is the only thing
// standing between a malformed JSON file and the compiler.
func TestValidatePlanTable_InvalidPlanConditions(t *testing.T) {
	base := func(name string) *planir.Table {
		tbl, err := planir.NewBaseTable("s", name, []string{"a", "b"}, nil)
		if err != nil {
			t.Fatalf("NewBaseTable: %v", err)
		}
		return tbl
	}

	cases := []struct {
		name  string
		table *planir.Table
	}{
		{
			name: "outer join forbids broadcast",
			table: &planir.Table{
				Kind:   planir.TableJoined,
				Schema: "s",
				Name:   "j",
				Join: &planir.Join{
					Left:              base("left"),
					Right:             base("right"),
					LeftKeyColumnIDs:  []planir.ColumnID{0},
					RightKeyColumnIDs: []planir.ColumnID{0},
					LeftProjection:    planir.NewBitmask(2),
					RightProjection:   planir.NewBitmask(2),
					JoinType:          planir.JoinEquiLeft,
					JoinAlgo:          planir.JoinBroadcast,
					JoinEndian:        planir.SmallLeft,
				},
			},
		},
		{
			name: "single-pipeline join requires base right child",
			table: &planir.Table{
				Kind:   planir.TableJoined,
				Schema: "s",
				Name:   "j",
				Join: &planir.Join{
					Left:              base("left"),
					Right:             base("right"), // will be overwritten below
					LeftKeyColumnIDs:  []planir.ColumnID{0},
					RightKeyColumnIDs: []planir.ColumnID{0},
					LeftProjection:    planir.NewBitmask(2),
					RightProjection:   planir.NewBitmask(2),
					JoinType:          planir.JoinInner,
					JoinAlgo:          planir.JoinPartitioned,
					JoinEndian:        planir.SmallLeft,
				},
			},
		},
		{
			name: "aggregation missing origin",
			table: &planir.Table{
				Kind:        planir.TableAggregated,
				Schema:      "s",
				Name:        "agg",
				Aggregation: &planir.Aggregation{},
			},
		},
	}

	// Make the second case's right child a Joined table, which
	// NewJoinedTable's own constructor would reject outright.
	joinedRight, err := planir.NewJoinedTable("s", "right_joined", nil, &planir.Join{
		Left:              base("x"),
		Right:             base("y"),
		LeftKeyColumnIDs:  []planir.ColumnID{0},
		RightKeyColumnIDs: []planir.ColumnID{0},
		LeftProjection:    planir.NewBitmask(2),
		RightProjection:   planir.NewBitmask(2),
		JoinType:          planir.JoinInner,
		JoinAlgo:          planir.JoinBroadcast,
		JoinEndian:        planir.SmallLeft,
	})
	if err != nil {
		t.Fatalf("NewJoinedTable for right_joined fixture: %v", err)
	}
	cases[1].table.Join.Right = joinedRight

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePlanTable(tc.table)
			if err == nil {
				t.Fatal("expected validatePlanTable to reject this plan")
			}
			var planErr *dagerrors.ErrInvalidPlan
			if !stderrors.As(err, &planErr) {
				t.Fatalf("got error %v (%T), want *errors.ErrInvalidPlan", err, err)
			}
		})
	}
}
