package terminal

import "strings"

// snippets are the SQL words and symbols learners reach for most.
var snippets = []string{
	"SELECT", "*", "FROM", "WHERE", ";",
	"INSERT INTO", "VALUES", "UPDATE", "SET",
	"DELETE", "CREATE TABLE", "DROP TABLE",
	"INTEGER", "TEXT", "PRIMARY KEY",
	"ORDER BY", "GROUP BY", "JOIN", "ON",
	"=", "(", ")", "'", ",",
}

// metaCommands are completed at the start of a line.
var metaCommands = []string{
	".check", ".hint", ".missions", ".goto", ".tables", ".save", ".load",
	".demo", ".history", ".snippets", ".help", ".exit", "clear", "exit",
}

// completer offers snippet words for the word under the cursor. It
// implements readline.AutoCompleter.
type completer struct {
	words []string
}

func newCompleter() *completer {
	var words []string
	for _, s := range snippets {
		if isWord(s) {
			words = append(words, s)
		}
	}
	return &completer{words: words}
}

// Do returns the suffixes that complete the word ending at pos, and the
// length of that word.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && line[start-1] != ' ' && line[start-1] != '(' && line[start-1] != ',' {
		start--
	}
	prefix := string(line[start:pos])

	candidates := c.words
	if strings.TrimSpace(string(line[:start])) == "" {
		candidates = append(append([]string{}, metaCommands...), c.words...)
	}
	if prefix == "" {
		return nil, 0
	}

	var out [][]rune
	upper := strings.ToUpper(prefix)
	for _, w := range candidates {
		switch {
		case strings.HasPrefix(w, prefix):
			out = append(out, []rune(w[len(prefix):]))
		case strings.HasPrefix(w, upper):
			out = append(out, []rune(strings.ToLower(w[len(upper):])))
		}
	}
	return out, len([]rune(prefix))
}

func isWord(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
