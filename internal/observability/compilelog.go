// Package observability provides structured logging for the plan compiler.
// Every compile must emit: query ID, table kind, algorithm, compile time,
// and outcome (success/error).
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// CompileLogEntry holds the fields every plan compilation must report,
// independent of whether the query that produced the plan IR ever
// executes.
type CompileLogEntry struct {
	// QueryID identifies the compile request (the CLI uses the plan file
	// name when no richer query ID is available).
	QueryID string

	// TableKind is the root table's Kind.String() ("JOINED" or
	// "AGGREGATED" — Base roots are rejected before this ever logs).
	TableKind string

	// Algorithm is the compiled root operator's Algorithm, when available.
	Algorithm string

	// CompileTime is how long Compile took.
	CompileTime time.Duration

	// Outcome is "success" or "error".
	Outcome string

	// Error is the compile failure message, empty on success.
	Error string
}

// Validate checks that all required fields are present.
func (e *CompileLogEntry) Validate() error {
	if e.QueryID == "" {
		return fmt.Errorf("observability: query_id is required")
	}
	if e.CompileTime < 0 {
		return fmt.Errorf("observability: compile_time cannot be negative")
	}
	return nil
}

// CompileLogger is the interface for plan-compile logging.
type CompileLogger interface {
	LogCompile(ctx context.Context, entry CompileLogEntry) error
}

type compileLogOutput struct {
	Timestamp     string `json:"timestamp"`
	Level         string `json:"level"`
	QueryID       string `json:"query_id"`
	TableKind     string `json:"table_kind"`
	Algorithm     string `json:"algorithm,omitempty"`
	CompileTimeMs int64  `json:"compile_time_ms"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
}

// JSONCompileLogger implements CompileLogger by writing each compile event
// to an io.Writer as one JSON object per line.
type JSONCompileLogger struct {
	writer io.Writer
}

// NewJSONCompileLogger creates a compile logger writing JSON to w.
func NewJSONCompileLogger(w io.Writer) *JSONCompileLogger {
	return &JSONCompileLogger{writer: w}
}

// LogCompile logs a compile event as JSON.
func (l *JSONCompileLogger) LogCompile(ctx context.Context, entry CompileLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}

	output := compileLogOutput{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Level:         level,
		QueryID:       entry.QueryID,
		TableKind:     entry.TableKind,
		Algorithm:     entry.Algorithm,
		CompileTimeMs: entry.CompileTime.Milliseconds(),
		Outcome:       entry.Outcome,
		Error:         entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal compile log: %w", err)
	}
	data = append(data, '\n')
	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("observability: failed to write compile log: %w", err)
	}
	return nil
}

// NoopCompileLogger discards every compile event.
type NoopCompileLogger struct{}

// NewNoopCompileLogger creates a no-op compile logger.
func NewNoopCompileLogger() *NoopCompileLogger { return &NoopCompileLogger{} }

// LogCompile does nothing and always succeeds.
func (l *NoopCompileLogger) LogCompile(ctx context.Context, entry CompileLogEntry) error {
	return nil
}
