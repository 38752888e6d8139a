package sql

import (
	"fmt"
	"strings"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/dolthub/vitess/go/vt/sqlparser"
)

// ParseScanFilter parses a Base table's SQL filter expression (the text
// that would appear after WHERE) into the plan IR's column-id-referencing
// predicate tree, resolving column names through columnIndex. This is the
// one place SQL text crosses into the IR; once lowered, the predicate
// tree is plain structured data (§9's boundary-concern note).
func ParseScanFilter(filter string, columnIndex map[string]planir.ColumnID) (*planir.Predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	// sqlparser only exposes an expression parser through a full statement;
	// wrap the filter text in a throwaway SELECT to reuse the same parser
	// every query path already goes through.
	stmt, err := sqlparser.Parse("select 1 where " + filter)
	if err != nil {
		return nil, errors.NewQueryRejected(filter, "invalid scan filter syntax", err.Error())
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return nil, errors.NewQueryRejected(filter, "scan filter did not parse to a single expression", "")
	}
	return lowerExpr(sel.Where.Expr, columnIndex)
}

func lowerExpr(expr sqlparser.Expr, columnIndex map[string]planir.ColumnID) (*planir.Predicate, error) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		left, err := lowerExpr(e.Left, columnIndex)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(e.Right, columnIndex)
		if err != nil {
			return nil, err
		}
		return &planir.Predicate{Op: planir.PredicateAnd, Children: []*planir.Predicate{left, right}}, nil

	case *sqlparser.OrExpr:
		left, err := lowerExpr(e.Left, columnIndex)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(e.Right, columnIndex)
		if err != nil {
			return nil, err
		}
		return &planir.Predicate{Op: planir.PredicateOr, Children: []*planir.Predicate{left, right}}, nil

	case *sqlparser.NotExpr:
		inner, err := lowerExpr(e.Expr, columnIndex)
		if err != nil {
			return nil, err
		}
		return &planir.Predicate{Op: planir.PredicateNot, Children: []*planir.Predicate{inner}}, nil

	case *sqlparser.ParenExpr:
		return lowerExpr(e.Expr, columnIndex)

	case *sqlparser.ComparisonExpr:
		return lowerComparison(e, columnIndex)

	default:
		return nil, errors.NewUnsupportedSyntax(fmt.Sprintf("%T", expr), "AND/OR/NOT of simple comparisons")
	}
}

func lowerComparison(e *sqlparser.ComparisonExpr, columnIndex map[string]planir.ColumnID) (*planir.Predicate, error) {
	colText := sqlparser.String(e.Left)
	col, ok := resolveColumn(colText, columnIndex)
	if !ok {
		return nil, errors.NewUnsupportedSyntax("comparison left-hand side "+colText, "a known column name")
	}

	op := normalizeOp(fmt.Sprintf("%v", e.Operator))

	if op == "IN" || op == "NOT IN" {
		set := parseLiteralSet(sqlparser.String(e.Right))
		p := &planir.Predicate{Op: planir.PredicateCompare, ColumnID: col, CompareOp: "IN", LiteralSet: set}
		if op == "NOT IN" {
			return &planir.Predicate{Op: planir.PredicateNot, Children: []*planir.Predicate{p}}, nil
		}
		return p, nil
	}

	return &planir.Predicate{
		Op:        planir.PredicateCompare,
		ColumnID:  col,
		CompareOp: op,
		Literal:   unquote(sqlparser.String(e.Right)),
	}, nil
}

// resolveColumn strips an optional "table." qualifier and any backtick/
// quote characters sqlparser.String renders identifiers with, then looks
// the bare name up in columnIndex.
func resolveColumn(text string, columnIndex map[string]planir.ColumnID) (planir.ColumnID, bool) {
	text = strings.Trim(text, "`\"")
	if i := strings.LastIndex(text, "."); i >= 0 {
		text = strings.Trim(text[i+1:], "`\"")
	}
	col, ok := columnIndex[text]
	return col, ok
}

func normalizeOp(op string) string {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "=":
		return "="
	case "<":
		return "<"
	case "<=":
		return "<="
	case ">":
		return ">"
	case ">=":
		return ">="
	case "<>", "!=":
		return "<>"
	case "like":
		return "LIKE"
	case "in":
		return "IN"
	case "not in":
		return "NOT IN"
	default:
		return strings.ToUpper(op)
	}
}

// parseLiteralSet turns a rendered IN-list ("(1, 2, 3)") into its member
// literals.
func parseLiteralSet(rendered string) []string {
	rendered = strings.TrimSpace(rendered)
	rendered = strings.TrimPrefix(rendered, "(")
	rendered = strings.TrimSuffix(rendered, ")")
	parts := strings.Split(rendered, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, unquote(strings.TrimSpace(p)))
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
