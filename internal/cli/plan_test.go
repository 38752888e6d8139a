package cli

import "testing"

func TestRunPlanBase_PlainReference(t *testing.T) {
	c := &CLI{quiet: true}
	if err := c.runPlanBase("sales.orders", []string{"id", "amount", "region"}, "amount > 100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunPlanBase_SystemTimeReference(t *testing.T) {
	c := &CLI{quiet: true, debug: true}
	ref := "sales.orders FOR SYSTEM_TIME AS OF '2026-01-01T00:00:00Z'"
	if err := c.runPlanBase(ref, []string{"id", "amount"}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunPlanBase_RejectsUnqualifiedName(t *testing.T) {
	c := &CLI{quiet: true}
	if err := c.runPlanBase("orders", []string{"id"}, ""); err == nil {
		t.Fatal("expected an error for an unqualified table reference")
	}
}

func TestRunPlanBase_RejectsBadFilter(t *testing.T) {
	c := &CLI{quiet: true}
	if err := c.runPlanBase("sales.orders", []string{"id"}, "missing_column = 1"); err == nil {
		t.Fatal("expected an error for a filter referencing an unknown column")
	}
}
