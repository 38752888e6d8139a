package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/dagplan/internal/compiler"
	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/joincompiler"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/observability"
	"github.com/canonica-labs/dagplan/internal/planir"
	dagsql "github.com/canonica-labs/dagplan/internal/sql"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

// newPlanCmd groups the plan compiler's local, catalog-free commands: they
// operate entirely on a plan IR file on disk and never touch the gateway,
// unlike every other command group in this CLI.
func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan compiler commands",
		Long: `Compile a logical join/aggregation plan into the DAG of worker
invocations the execution layer submits.

These commands read a plan IR table (Base/Joined/Aggregated) from a JSON
file and run it through the plan compiler directly; they do not go
through the gateway.`,
	}
	cmd.AddCommand(c.newPlanCompileCmd())
	cmd.AddCommand(c.newPlanExplainCmd())
	cmd.AddCommand(c.newPlanBaseCmd())
	return cmd
}

func (c *CLI) newPlanCompileCmd() *cobra.Command {
	var hintsSQL, layoutPath string
	cmd := &cobra.Command{
		Use:   "compile <plan.json>",
		Short: "Compile a plan IR table into an operator DAG",
		Long: `Compile a Joined or Aggregated plan IR table, read from a JSON file, into
the Operator tree the execution layer submits. The result is printed as
JSON.

--hints-sql optionally attaches the original SQL request's text so any
/*+ BROADCAST(t) */-style advisory hint comments it carries get recorded
for observability; the compiler itself never reorders joins on account of
a hint.

--layout points at a JSON file mapping "schema.table" to a []Layout, used
in place of a real catalog; without it, any table the plan references
surfaces a clean MetadataUnavailable error rather than a silent default.

Example:
  canonic plan compile ./orders_join.json --layout ./layouts.json --hints-sql "select /*+ BROADCAST(customers) */ * from orders join customers on ..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlanCompile(args[0], false, hintsSQL, layoutPath)
		},
	}
	cmd.Flags().StringVar(&hintsSQL, "hints-sql", "", "original query text carrying advisory join hint comments")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "JSON file mapping schema.table to a []Layout, in place of a real catalog")
	return cmd
}

func (c *CLI) newPlanExplainCmd() *cobra.Command {
	var hintsSQL, layoutPath string
	cmd := &cobra.Command{
		Use:   "explain <plan.json>",
		Short: "Compile a plan IR table and print a human-readable summary",
		Long: `Like "plan compile", but prints a readable summary of the compiled
operator tree (kind, algorithm, worker-input counts, child pipelines)
instead of the raw JSON.

Example:
  canonic plan explain ./orders_join.json --layout ./layouts.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlanCompile(args[0], true, hintsSQL, layoutPath)
		},
	}
	cmd.Flags().StringVar(&hintsSQL, "hints-sql", "", "original query text carrying advisory join hint comments")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "JSON file mapping schema.table to a []Layout, in place of a real catalog")
	return cmd
}

func (c *CLI) newPlanBaseCmd() *cobra.Command {
	var columns []string
	var filter string

	cmd := &cobra.Command{
		Use:   "base <schema.table[ FOR SYSTEM_TIME AS OF '...' | FOR VERSION AS OF ...]>",
		Short: "Build a Base plan IR table from a table reference and a scan filter",
		Long: `Parse a schema-qualified table reference, with an optional FOR SYSTEM_TIME
AS OF / FOR VERSION AS OF clause, and an optional --filter SQL expression,
into a Base plan IR table. The result is printed as JSON and can be embedded
as the leaf of a Joined or Aggregated plan IR file fed to "plan compile".

Example:
  canonic plan base sales.orders --columns id,amount,region --filter "amount > 100"
  canonic plan base "sales.orders FOR SYSTEM_TIME AS OF '2026-01-01T00:00:00Z'" --columns id,amount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlanBase(args[0], columns, filter)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "comma-separated column names, in the order the table exposes them")
	cmd.Flags().StringVar(&filter, "filter", "", "SQL scan filter, e.g. \"amount > 100 and region = 'us'\"")
	return cmd
}

func (c *CLI) runPlanBase(ref string, columns []string, filter string) error {
	schema, table, asOf, err := dagsql.ParseTableReference(ref)
	if err != nil {
		c.errorf("invalid table reference: %v\n", err)
		return err
	}

	columnIndex := make(map[string]planir.ColumnID, len(columns))
	for i, name := range columns {
		columnIndex[strings.TrimSpace(name)] = planir.ColumnID(i)
	}

	predicate, err := dagsql.ParseScanFilter(filter, columnIndex)
	if err != nil {
		c.errorf("invalid scan filter: %v\n", err)
		return err
	}

	base, err := planir.NewBaseTable(schema, table, columns, predicate)
	if err != nil {
		c.errorf("failed to build base table: %v\n", err)
		return err
	}

	if asOf != nil {
		value := asOf.Timestamp
		if asOf.ClauseType == "VERSION" {
			value = asOf.Version
		}
		c.debugf("table reference %s carries a time-travel hint: %s as of %s\n",
			base.FullName(), asOf.ClauseType, value)
	}

	return c.outputJSON(base)
}

func (c *CLI) runPlanCompile(path string, explain bool, hintsSQL, layoutPath string) error {
	table, err := loadPlanTable(path)
	if err != nil {
		c.errorf("failed to read plan file: %v\n", err)
		return err
	}
	if err := validatePlanTable(table); err != nil {
		c.errorf("invalid plan: %v\n", err)
		return err
	}

	advisor := joinadvisor.NewCostAdvisor(nil, 16, 1_000_000)
	if hints, err := joinadvisor.ParseJoinHints(hintsSQL); err != nil {
		c.debugf("ignoring unparseable --hints-sql: %v\n", err)
	} else if len(hints) > 0 {
		advisor.RecordHints(hints)
	}

	var layouts map[string][]metadata.Layout
	if layoutPath != "" {
		layouts, err = loadStaticLayouts(layoutPath)
		if err != nil {
			c.errorf("failed to read layout file: %v\n", err)
			return err
		}
	}

	env := c.newCompilerEnv(filepath.Base(path), advisor, layouts)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	queryID := filepath.Base(path)
	var compileLog observability.CompileLogger = observability.NewNoopCompileLogger()
	if c.debug {
		compileLog = observability.NewJSONCompileLogger(os.Stderr)
	}

	start := time.Now()
	op, err := compiler.Compile(ctx, env, table)
	elapsed := time.Since(start)

	if err != nil {
		_ = compileLog.LogCompile(ctx, observability.CompileLogEntry{
			QueryID:     queryID,
			TableKind:   table.Kind.String(),
			CompileTime: elapsed,
			Outcome:     "error",
			Error:       err.Error(),
		})
		if c.jsonOutput {
			return c.outputJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		}
		c.errorf("compile failed: %v\n", err)
		return err
	}

	_ = compileLog.LogCompile(ctx, observability.CompileLogEntry{
		QueryID:     queryID,
		TableKind:   table.Kind.String(),
		Algorithm:   op.Algorithm.String(),
		CompileTime: elapsed,
		Outcome:     "success",
	})

	if c.jsonOutput || !explain {
		return c.outputJSON(op)
	}

	out := explainOperator(op, 0)
	if table.IsJoined() {
		out += explainHints(advisor, table)
	}
	c.println(out)
	return nil
}

// explainHints reports any recorded advisory join hints naming a table
// that actually appears in the compiled join, purely for observability:
// the compiler never consults them.
func explainHints(advisor *joinadvisor.CostAdvisor, table *planir.Table) string {
	var out strings.Builder
	for _, name := range []string{table.Join.Left.Name, table.Join.Right.Name} {
		for _, h := range advisor.HintsFor(name) {
			fmt.Fprintf(&out, "hint: %s suggests %s for %v\n", name, h.Strategy, h.Tables)
		}
	}
	return out.String()
}

func loadPlanTable(path string) (*planir.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table planir.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid plan IR JSON: %w", err)
	}
	return &table, nil
}

// validatePlanTable re-applies the join/aggregation invariants that
// planir's NewJoinedTable/NewAggregatedTable enforce at construction time.
// A plan loaded straight from JSON never goes through those constructors,
// so without this walk a hand-edited or generated plan file carrying an
// invalid join (e.g. EQUI_LEFT paired with BROADCAST) would reach the
// compiler unchecked.
func validatePlanTable(t *planir.Table) error {
	if t == nil {
		return errors.NewInvalidPlan("", "", "plan table is nil")
	}
	switch {
	case t.IsJoined():
		if err := planir.ValidateJoin(t.Join); err != nil {
			return err
		}
		if err := validatePlanTable(t.Join.Left); err != nil {
			return err
		}
		return validatePlanTable(t.Join.Right)
	case t.IsAggregated():
		if t.Aggregation == nil || t.Aggregation.Origin == nil {
			return errors.NewInvalidPlan(t.Schema, t.Name, "aggregation origin table is required")
		}
		return validatePlanTable(t.Aggregation.Origin)
	default:
		return nil
	}
}

// loadStaticLayouts reads a JSON file mapping "schema.table" to the
// []metadata.Layout the plan compiler would otherwise discover from a
// real catalog.
func loadStaticLayouts(path string) (map[string][]metadata.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var layouts map[string][]metadata.Layout
	if err := json.Unmarshal(data, &layouts); err != nil {
		return nil, fmt.Errorf("invalid layout JSON: %w", err)
	}
	return layouts, nil
}

// newCompilerEnv wires a joincompiler.Env from the loaded configuration's
// Compiler section and local-only collaborators: a filesystem storage
// backend rooted at the working directory, a stats-estimate-free split
// index factory, and a CostAdvisor with no row-count estimator, falling
// back to its configured default partition count.
//
// When layouts is non-empty it is registered as a metadata.StaticProvider
// in place of a real catalog; otherwise the metadata service stays empty,
// so any table requiring catalog metadata surfaces a clean
// MetadataUnavailable error rather than a silent default.
func (c *CLI) newCompilerEnv(queryID string, advisor joinadvisor.Advisor, layouts map[string][]metadata.Layout) *joincompiler.Env {
	cfg := c.cfg.Compiler

	storage := objstorage.NewRegistry()
	storage.Register(objstorage.NewLocalBackend("."))

	meta := metadata.NewService()
	if len(layouts) > 0 {
		meta.Register(metadata.NewStaticProvider("static", layouts))
	}
	index := splitindex.NewFactory(splitindex.NewStatsBuilder())

	inputStorage := compilerStorageInfo(cfg.Executor.InputStorage)
	intermediateStorage := compilerStorageInfo(cfg.Executor.IntermediateStorage)

	var statsLookup joincompiler.StatsLookup
	return compiler.NewEnv(cfg, meta, storage, index, statsLookup, advisor, inputStorage, intermediateStorage, queryID)
}

func compilerStorageInfo(scheme string) planir.StorageInfo {
	s := planir.Scheme(scheme)
	if s == "" {
		s = planir.SchemeLocal
	}
	return planir.StorageInfo{Scheme: s}
}

func explainOperator(op *planir.Operator, depth int) string {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	out := fmt.Sprintf("%s%s (%s/%s)\n", indent, op.Name, op.Kind, op.Algorithm)
	out += fmt.Sprintf("%s  broadcastInputs=%d chainInputs=%d partitionedInputs=%d partitionedChainInputs=%d scanInputs=%d preAggrInputs=%d final=%v\n",
		indent, len(op.BroadcastInputs), len(op.ChainInputs), len(op.PartitionedInputs), len(op.PartitionedChainInputs),
		len(op.ScanInputs), len(op.PreAggrInputs), op.FinalInput != nil)
	if op.SmallChild != nil {
		out += indent + "  small child:\n" + explainOperator(op.SmallChild, depth+2)
	}
	if op.LargeChild != nil {
		out += indent + "  large child:\n" + explainOperator(op.LargeChild, depth+2)
	}
	return out
}
