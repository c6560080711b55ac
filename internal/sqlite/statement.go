package sqlite

import (
	"regexp"
	"strings"
)

// schemaChangePattern matches statements that may add, drop, or alter
// tables. The match is advisory: it only tells the presentation layer to
// refresh its table list.
var schemaChangePattern = regexp.MustCompile(`(?i)\b(CREATE|DROP|ALTER)\b`)

// triggerPattern matches the start of a CREATE TRIGGER statement, whose body
// contains semicolons that do not end the statement.
var triggerPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+(TEMP\s+|TEMPORARY\s+)?TRIGGER\b`)

// endPattern matches an END keyword closing a trigger body.
var endPattern = regexp.MustCompile(`(?i)\bEND\s*$`)

// IsSchemaChange reports whether input looks like it changes the schema.
func IsSchemaChange(input string) bool {
	return schemaChangePattern.MatchString(input)
}

// Split breaks input into individual statements at top-level semicolons.
// Semicolons inside string literals, quoted identifiers, comments, and
// trigger bodies do not split. Statements are trimmed and returned without
// their terminating semicolon; segments holding only whitespace or comments
// are dropped.
func Split(input string) []string {
	var (
		stmts   []string
		cur     strings.Builder
		hasCode bool
	)

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if hasCode && s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
		hasCode = false
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closingQuote(input, i, c)
			cur.WriteString(input[i:end])
			hasCode = true
			i = end - 1
		case c == '[':
			end := strings.IndexByte(input[i:], ']')
			if end < 0 {
				end = len(input) - i - 1
			}
			cur.WriteString(input[i : i+end+1])
			hasCode = true
			i += end
		case c == '-' && i+1 < len(input) && input[i+1] == '-':
			end := strings.IndexByte(input[i:], '\n')
			if end < 0 {
				end = len(input) - i
			}
			cur.WriteString(input[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(input) && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			stop := len(input)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			cur.WriteString(input[i:stop])
			i = stop - 1
		case c == ';':
			if inTriggerBody(cur.String()) {
				cur.WriteByte(c)
				continue
			}
			flush()
		default:
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				hasCode = true
			}
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts
}

// closingQuote returns the index just past the quote that closes the quoted
// run starting at start. A doubled quote character is an escaped quote. An
// unterminated run extends to the end of input and the engine reports it.
func closingQuote(input string, start int, q byte) int {
	for j := start + 1; j < len(input); j++ {
		if input[j] != q {
			continue
		}
		if j+1 < len(input) && input[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(input)
}

func inTriggerBody(stmt string) bool {
	if !triggerPattern.MatchString(stmt) {
		return false
	}
	return !endPattern.MatchString(strings.TrimSpace(stmt))
}
