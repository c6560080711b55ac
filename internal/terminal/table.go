package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// writeTable draws set as a boxed grid followed by a row count. Columns are
// sized in terminal cells, so wide characters line up.
func writeTable(w io.Writer, set types.ResultSet) {
	cells := make([][]string, len(set.Rows))
	widths := make([]int, len(set.Columns))
	for i, c := range set.Columns {
		widths[i] = cellWidth(c)
	}
	for r, row := range set.Rows {
		cells[r] = make([]string, len(set.Columns))
		for i := range set.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			cells[r][i] = cellText(v)
			if n := cellWidth(cells[r][i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	rule := tableRule(widths)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, tableRow(set.Columns, widths))
	fmt.Fprintln(w, rule)
	for _, row := range cells {
		fmt.Fprintln(w, tableRow(row, widths))
	}
	if len(cells) > 0 {
		fmt.Fprintln(w, rule)
	}

	switch len(cells) {
	case 1:
		fmt.Fprintln(w, "(1 row)")
	default:
		fmt.Fprintf(w, "(%d rows)\n", len(cells))
	}
}

func tableRule(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, n := range widths {
		b.WriteString(strings.Repeat("-", n+2))
		b.WriteByte('+')
	}
	return b.String()
}

func tableRow(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, c := range cells {
		b.WriteByte(' ')
		b.WriteString(c)
		b.WriteString(strings.Repeat(" ", widths[i]-cellWidth(c)))
		b.WriteString(" |")
	}
	return b.String()
}

// cellText formats one engine value for display.
func cellText(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		s = v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []byte:
		return fmt.Sprintf("<blob %d bytes>", len(v))
	default:
		s = fmt.Sprint(v)
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}

// cellWidth returns the number of terminal cells s occupies: two for wide
// and fullwidth characters, none for combining marks, one otherwise.
func cellWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case isWide(r):
			n += 2
		default:
			n++
		}
	}
	return n
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
