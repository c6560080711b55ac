package terminal

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mesh-intelligence/sqlmaster/internal/mission"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

var _ types.Listener = (*Renderer)(nil)

// Renderer prints session events to the terminal.
type Renderer struct {
	out    io.Writer
	reg    *mission.Registry
	panel  *panel
	colors palette
	delay  time.Duration
	sleep  func(time.Duration)
}

// RendererOptions configures NewRenderer.
type RendererOptions struct {
	// Theme selects the mission panel style; see types.Theme*.
	Theme string
	// Color enables ANSI colors in status lines.
	Color bool
	// Delay is how long a passed mission stays on screen before the next
	// one is shown.
	Delay time.Duration
}

// NewRenderer returns a renderer writing to out.
func NewRenderer(out io.Writer, reg *mission.Registry, opts RendererOptions) (*Renderer, error) {
	p, err := newPanel(opts.Theme)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		out:    out,
		reg:    reg,
		panel:  p,
		colors: palette(opts.Color),
		delay:  opts.Delay,
		sleep:  time.Sleep,
	}, nil
}

func (r *Renderer) OnCheckRequested() {}

func (r *Renderer) OnMissionPassed(m types.Mission) {
	r.line(colorBold, fmt.Sprintf("★ MISSION %d PASSED! ★", m.Number()))
}

func (r *Renderer) OnMissionAdvanced(newIndex int) {
	if r.delay > 0 {
		r.sleep(r.delay)
	}
	r.ShowMission(newIndex)
	if newIndex < r.reg.Len() {
		r.line(colorYellow, ">>> Next mission loaded.")
	}
}

func (r *Renderer) OnValidationFailed(hint string) {
	r.line(colorRed, "HINT: "+hint)
}

func (r *Renderer) OnLoadCompleted(index int, restored bool) {
	if !restored {
		r.line(colorGray, "No saved progress in this file; keeping your current mission.")
		return
	}
	if index >= r.reg.Len() {
		r.line(colorGray, "Progress restored: every mission is complete.")
		return
	}
	r.line(colorGray, fmt.Sprintf("Progress restored: mission %d of %d.", index+1, r.reg.Len()))
}

func (r *Renderer) OnTablesChanged(tables []string) {
	if len(tables) == 0 {
		r.line(colorGray, "tables: (empty database)")
		return
	}
	r.line(colorGray, "tables: "+strings.Join(tables, ", "))
}

// ShowMission prints the panel for mission index, or the MASTER banner when
// index is past the last mission.
func (r *Renderer) ShowMission(index int) {
	m, ok := r.reg.At(index)
	if !ok {
		fmt.Fprint(r.out, r.panel.render(masterMarkdown(r.reg.Len())))
		return
	}
	fmt.Fprint(r.out, r.panel.render(missionMarkdown(m, r.reg.Len())))
}

// ShowResult prints the outcome of a statement and a status line.
func (r *Renderer) ShowResult(res types.ExecutionResult) {
	if res.Failed() {
		r.line(colorRed, "✖ Error: "+res.Message())
		r.line(colorGray, "SQL error")
		return
	}
	if len(res.Sets) == 0 {
		r.line(colorGreen, "✔ Statement executed.")
	}
	for _, set := range res.Sets {
		writeTable(r.out, set)
	}
	r.line(colorGray, fmt.Sprintf("executed in %.2fms", float64(res.Elapsed.Microseconds())/1000))
}

func (r *Renderer) line(color, s string) {
	fmt.Fprintln(r.out, r.colors.paint(color, s))
}
