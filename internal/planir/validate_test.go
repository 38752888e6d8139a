package planir

import "testing"

func baseTable(schema, name string) *Table {
	t, _ := NewBaseTable(schema, name, []string{"id", "val"}, nil)
	return t
}

func TestValidateJoin_MultiPipelineRequiresSmallLeft(t *testing.T) {
	left := &Join{Left: baseTable("s", "a"), Right: baseTable("s", "b")}
	leftJoined, err := NewJoinedTable("s", "ab", nil, left)
	if err != nil {
		t.Fatalf("unexpected error building left joined table: %v", err)
	}
	right := &Join{Left: baseTable("s", "c"), Right: baseTable("s", "d")}
	rightJoined, err := NewJoinedTable("s", "cd", nil, right)
	if err != nil {
		t.Fatalf("unexpected error building right joined table: %v", err)
	}

	j := &Join{Left: leftJoined, Right: rightJoined, JoinEndian: LargeLeft}
	if err := ValidateJoin(j); err == nil {
		t.Fatal("expected error for multi-pipeline join with joinEndian != SmallLeft")
	}

	j.JoinEndian = SmallLeft
	if err := ValidateJoin(j); err != nil {
		t.Fatalf("unexpected error for valid multi-pipeline join: %v", err)
	}
}

func TestValidateJoin_SinglePipelineRequiresBaseRight(t *testing.T) {
	leftJoin := &Join{Left: baseTable("s", "a"), Right: baseTable("s", "b")}
	leftJoined, err := NewJoinedTable("s", "ab", nil, leftJoin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j := &Join{Left: baseTable("s", "c"), Right: leftJoined}
	if err := ValidateJoin(j); err == nil {
		t.Fatal("expected error for single-pipeline join with non-base right child")
	}
}

func TestValidateJoin_OuterForbidsBroadcast(t *testing.T) {
	j := &Join{
		Left:     baseTable("s", "a"),
		Right:    baseTable("s", "b"),
		JoinType: JoinEquiLeft,
		JoinAlgo: JoinBroadcast,
	}
	if err := ValidateJoin(j); err == nil {
		t.Fatal("expected error for EQUI_LEFT + BROADCAST")
	}
	j.JoinAlgo = JoinPartitioned
	if err := ValidateJoin(j); err != nil {
		t.Fatalf("unexpected error for EQUI_LEFT + PARTITIONED: %v", err)
	}
}

func TestValidatePartitionBuckets(t *testing.T) {
	mk := func(id, n int) PartitionedJoinInput {
		return PartitionedJoinInput{
			SmallTable: PartitionedTableInfo{NumPartitions: n},
			LargeTable: PartitionedTableInfo{NumPartitions: n},
			JoinInfo:   PartitionedJoinInfo{NumPartitions: n, PartitionID: id},
		}
	}

	ok := []PartitionedJoinInput{mk(0, 2), mk(1, 2)}
	if err := ValidatePartitionBuckets("s", "t", ok, 2); err != nil {
		t.Fatalf("unexpected error for exact coverage: %v", err)
	}

	gap := []PartitionedJoinInput{mk(0, 2)}
	if err := ValidatePartitionBuckets("s", "t", gap, 2); err == nil {
		t.Fatal("expected error for missing bucket coverage")
	}

	dup := []PartitionedJoinInput{mk(0, 2), mk(0, 2)}
	if err := ValidatePartitionBuckets("s", "t", dup, 2); err == nil {
		t.Fatal("expected error for duplicate bucket coverage")
	}

	mismatch := []PartitionedJoinInput{{
		SmallTable: PartitionedTableInfo{NumPartitions: 2},
		LargeTable: PartitionedTableInfo{NumPartitions: 3},
		JoinInfo:   PartitionedJoinInfo{NumPartitions: 2, PartitionID: 0},
	}}
	if err := ValidatePartitionBuckets("s", "t", mismatch, 2); err == nil {
		t.Fatal("expected error for small/large NumPartitions mismatch")
	}
}
