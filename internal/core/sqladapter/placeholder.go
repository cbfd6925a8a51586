// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqladapter

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches a $n placeholder. Because the digit group is
// greedy, a single regexp pass naturally reads "$10" as index 10 rather
// than "$1" followed by a literal "0" — the textual-replacement bug §9
// warns about (naive ascending string.Replace clobbers $1 inside $10) never
// has a chance to occur here.
var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// RewriteForSQLite translates Postgres-style "$1…$n" placeholders into
// SQLite's positional "?" placeholders, and reorders params to match the
// order the placeholders actually appear in the SQL text (which need not be
// ascending — an UPDATE…SET built with an offset starting index may
// reference $3 before $1).
func RewriteForSQLite(sql string, params []any) (string, []any, error) {
	var order []int
	rewritten := placeholderPattern.ReplaceAllStringFunc(sql, func(match string) string {
		n, err := strconv.Atoi(match[1:])
		if err != nil {
			return match
		}
		order = append(order, n)
		return "?"
	})

	reordered := make([]any, 0, len(order))
	for _, n := range order {
		idx := n - 1
		if idx < 0 || idx >= len(params) {
			return "", nil, &placeholderRangeError{index: n, paramCount: len(params)}
		}
		reordered = append(reordered, params[idx])
	}

	return rewritten, reordered, nil
}

type placeholderRangeError struct {
	index      int
	paramCount int
}

func (e *placeholderRangeError) Error() string {
	return "sqladapter: placeholder $" + strconv.Itoa(e.index) + " out of range for " +
		strconv.Itoa(e.paramCount) + " supplied params"
}

// HighestPlaceholderIndex returns the greatest $n index referenced in sql,
// or 0 if none is present. Callers compose successive SQL fragments (e.g.
// filter.Compile chained after an UPDATE … SET clause) and use this to
// choose the next startingParamIndex.
func HighestPlaceholderIndex(sql string) int {
	highest := 0
	for _, match := range placeholderPattern.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(match[1])
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// quoteIdentifier double-quotes a SQL identifier, doubling any embedded
// quote character. Callers are expected to have already validated the
// identifier against validate.IdentifierRegex — this only protects against
// the quoting syntax itself.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteIdentifier is the exported form of quoteIdentifier, used by the
// filter compiler and Metabase's DDL generator.
func QuoteIdentifier(name string) string {
	return quoteIdentifier(name)
}
