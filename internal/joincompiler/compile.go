package joincompiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// CompileJoin is the join compiler's entry point (§4.3, §4.4). parent is
// the Joined table that will consume this join's output, or nil at the
// root.
func CompileJoin(ctx context.Context, env *Env, joined, parent *planir.Table) (*planir.Operator, error) {
	if joined == nil || !joined.IsJoined() {
		return nil, errors.NewInvalidPlan("", "", "compileJoin requires a joined table")
	}
	j := joined.Join
	if j.IsMultiPipeline() {
		if j.JoinEndian != planir.SmallLeft {
			return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "multi-pipeline join requires joinEndian = SMALL_LEFT")
		}
		return compileMultiPipeline(ctx, env, joined, parent)
	}
	if !j.Right.IsBase() {
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "single-pipeline join requires a base right child")
	}
	return compileSinglePipeline(ctx, env, joined, parent)
}

// compileSinglePipeline implements §4.3: left is Base or Joined, right is
// always Base.
func compileSinglePipeline(ctx context.Context, env *Env, joined, parent *planir.Table) (*planir.Operator, error) {
	j := joined.Join

	var childOp *planir.Operator
	if j.Left.IsJoined() {
		var err error
		childOp, err = CompileJoin(ctx, env, j.Left, joined)
		if err != nil {
			return nil, err
		}
	}

	switch j.JoinAlgo {
	case planir.JoinBroadcast:
		return compileBroadcast(ctx, env, joined, parent, childOp)
	case planir.JoinPartitioned:
		return compilePartitioned(ctx, env, joined, parent, childOp)
	default:
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "join algorithm must be BROADCAST or PARTITIONED at a single-pipeline entry")
	}
}

// isSmallLeftBroadcast reports whether t is a Joined table whose join is a
// SMALL_LEFT BROADCAST, the condition §4.3/§4.4 repeatedly test for chain
// initiation, extension, and completion decisions.
func isSmallLeftBroadcast(t *planir.Table) bool {
	return t != nil && t.IsJoined() && t.Join.JoinAlgo == planir.JoinBroadcast && t.Join.JoinEndian == planir.SmallLeft
}

// attachChild attaches childOp to op as smallChild or largeChild
// depending on which side of j is small, per §4.3 step 6.
func attachChild(op *planir.Operator, j *planir.Join, childOp *planir.Operator) {
	if childOp == nil {
		return
	}
	if j.JoinEndian == planir.SmallLeft {
		op.SmallChild = childOp
	} else {
		op.LargeChild = childOp
	}
}

// numPartitionsFor asks the join advisor for the partition fan-out of a
// partitioned join, returning a single partition when no advisor is
// configured.
func numPartitionsFor(ctx context.Context, env *Env, left, right *planir.Table, endian planir.JoinEndian) (int, error) {
	if env.Advisor == nil {
		return 1, nil
	}
	n, err := env.Advisor.NumPartitions(ctx, left, right, endian)
	if err != nil {
		return 0, errors.NewInvalidPlan(left.Schema, left.Name, "join advisor: "+err.Error())
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}
