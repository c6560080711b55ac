package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// panelWidth is the column at which mission text wraps.
const panelWidth = 80

// panel renders mission text written in markdown. With the plain theme the
// markdown is printed as is.
type panel struct {
	renderer *glamour.TermRenderer
}

func newPanel(theme string) (*panel, error) {
	if theme == types.ThemePlain {
		return &panel{}, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(panelWidth)}
	if theme == "" || theme == types.ThemeAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(theme))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &panel{renderer: r}, nil
}

func (p *panel) render(md string) string {
	if p.renderer == nil {
		return md
	}
	out, err := p.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// missionMarkdown describes mission m out of total.
func missionMarkdown(m types.Mission, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Mission %d of %d: %s\n\n", m.Number(), total, m.Title)
	b.WriteString(strings.TrimSpace(m.Description))
	b.WriteString("\n\nType `.check` when you think you are done, or `.hint` if you are stuck.\n")
	return b.String()
}

// masterMarkdown is shown once every mission is passed.
func masterMarkdown(total int) string {
	return fmt.Sprintf("## MASTER\n\nCongratulations! You have passed all %d missions.\n", total)
}

// missionList marks each mission as passed, open, or locked. The mission in
// focus is flagged.
func missionList(missions []types.Mission, index, focus int) string {
	var b strings.Builder
	for i, m := range missions {
		mark := "[ ]"
		switch {
		case i < index:
			mark = "[x]"
		case i == index:
			mark = "[>]"
		}
		line := fmt.Sprintf("%s %d. %s", mark, m.Number(), m.Title)
		if i > index {
			line += " (locked)"
		}
		if i == focus && focus < len(missions) {
			line += "  <-"
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
