package joinadvisor

import (
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// JoinHint is a non-binding suggestion parsed from a /*+ BROADCAST(t) */
// style comment attached to a plan request's SQL text. The compiler never
// reorders or re-strategizes a join on account of a hint (that would
// require a cost-based rewrite pass this package deliberately doesn't do);
// CostAdvisor only records hints so they can be surfaced for observability.
type JoinHint struct {
	Strategy string // e.g. "BROADCAST", "PARTITIONED"
	Tables   []string
}

var hintPattern = regexp.MustCompile(`(?i)/\*\+\s*(BROADCAST|PARTITIONED)\s*\(([^)]*)\)\s*\*/`)

// ParseJoinHints validates that sqlText parses as a statement, then
// extracts every advisory hint comment from its text. Malformed SQL never
// carries a meaningful hint, so a parse failure is returned as an error
// rather than silently skipped.
func ParseJoinHints(sqlText string) ([]JoinHint, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, nil
	}
	if _, err := sqlparser.Parse(sqlText); err != nil {
		return nil, err
	}

	var hints []JoinHint
	for _, m := range hintPattern.FindAllStringSubmatch(sqlText, -1) {
		tables := strings.Split(m[2], ",")
		for i := range tables {
			tables[i] = strings.TrimSpace(tables[i])
		}
		hints = append(hints, JoinHint{Strategy: strings.ToUpper(m[1]), Tables: tables})
	}
	return hints, nil
}

// ForTable returns the hints in hints that name table, preserving order.
func ForTable(hints []JoinHint, table string) []JoinHint {
	var out []JoinHint
	for _, h := range hints {
		for _, t := range h.Tables {
			if t == table {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
