package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestJSONCompileLogger_LogCompile(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONCompileLogger(&buf)

	err := logger.LogCompile(context.Background(), CompileLogEntry{
		QueryID:     "orders_join.json",
		TableKind:   "JOINED",
		Algorithm:   "BROADCAST",
		CompileTime: 5 * time.Millisecond,
		Outcome:     "success",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out compileLogOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if out.QueryID != "orders_join.json" || out.TableKind != "JOINED" || out.Algorithm != "BROADCAST" || out.Outcome != "success" {
		t.Fatalf("got %+v, want the logged fields round-tripped", out)
	}
	if out.Level != "info" {
		t.Fatalf("got level %q, want info for a successful compile", out.Level)
	}
}

func TestJSONCompileLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONCompileLogger(&buf)

	if err := logger.LogCompile(context.Background(), CompileLogEntry{
		QueryID: "bad.json",
		Outcome: "error",
		Error:   "invalid plan",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out compileLogOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if out.Level != "error" || out.Error != "invalid plan" {
		t.Fatalf("got %+v, want error level with the error message", out)
	}
}

func TestCompileLogEntry_ValidateRequiresQueryID(t *testing.T) {
	e := CompileLogEntry{}
	if err := e.Validate(); err == nil {
		t.Fatal("expected an error for a missing query ID")
	}
}

func TestNoopCompileLogger_NeverErrors(t *testing.T) {
	logger := NewNoopCompileLogger()
	if err := logger.LogCompile(context.Background(), CompileLogEntry{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
