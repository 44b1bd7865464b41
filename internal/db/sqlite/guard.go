package sqlite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/medagent/internal/domain"
)

var (
	// fenceRegex matches a markdown code fence around the whole text (```sql ... ```).
	fenceRegex = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\\n?(.*?)\\s*```$")
	// readPrefix accepts plain reads and CTE reads.
	readPrefix = regexp.MustCompile(`(?i)^(select|with)\b`)
)

// Normalize strips a surrounding code fence, SQL comments and trailing semicolons
// from generated SQL.
func Normalize(query string) string {
	q := strings.TrimSpace(query)
	if m := fenceRegex.FindStringSubmatch(q); m != nil {
		q = strings.TrimSpace(m[1])
	}
	q = stripComments(q)
	return strings.TrimSpace(strings.TrimRight(q, "; \t\n"))
}

// CheckReadOnly rejects anything but a single SELECT/WITH statement.
// The connection is additionally opened with query_only, so the engine refuses writes
// that slip through (e.g. a CTE wrapping a DML statement).
func CheckReadOnly(query string) error {
	if query == "" {
		return fmt.Errorf("empty query: %w", domain.ErrUnsafeQuery)
	}
	if strings.Contains(stripStringLiterals(query), ";") {
		return fmt.Errorf("multiple statements: %w", domain.ErrUnsafeQuery)
	}
	if !readPrefix.MatchString(query) {
		return fmt.Errorf("only SELECT queries are allowed: %w", domain.ErrUnsafeQuery)
	}
	return nil
}

// stripStringLiterals blanks single-quoted literals so separators inside them are ignored.
func stripStringLiterals(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	inLiteral := false
	for _, r := range q {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
			b.WriteRune(r)
		case inLiteral:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripComments removes -- line comments and /* */ block comments outside quoted text.
func stripComments(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	var quote byte
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case quote != 0:
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			for i < len(q) && q[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			end := strings.Index(q[i+2:], "*/")
			if end < 0 {
				i = len(q)
			} else {
				i += end + 3
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
