package mission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// State is a learner's position: saved progress plus the mission currently
// shown. Focus may point back at an already passed mission for review; it
// never points past Progress.MissionIndex.
type State struct {
	Progress types.Progress
	Focus    int
}

// Machine applies the progression rules of a registry. It holds no learner
// state; every operation takes a State and returns the next one.
type Machine struct {
	reg    *Registry
	logger *slog.Logger
}

// NewMachine returns a machine for reg. A nil logger means slog.Default().
func NewMachine(reg *Registry, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{reg: reg, logger: logger}
}

// Registry returns the registry the machine follows.
func (m *Machine) Registry() *Registry {
	return m.reg
}

// NewState returns the state for progress p: the mission index is clamped
// to the registry length (anything beyond it means complete) and focus is on
// the current mission.
func (m *Machine) NewState(p types.Progress) State {
	p = p.Clamp(m.reg.Len())
	return State{Progress: p, Focus: p.MissionIndex}
}

// IsComplete reports whether every mission has been passed.
func (m *Machine) IsComplete(st State) bool {
	return st.Progress.IsComplete(m.reg.Len())
}

// Current returns the mission in focus. ok is false when the focus is past
// the last mission.
func (m *Machine) Current(st State) (types.Mission, bool) {
	return m.reg.At(m.focus(st))
}

// Check validates the mission in focus against the learner's last result
// and the live dataset q.
//
// On a pass the focus moves to the next mission; when the focused mission
// was the current one, the mission index advances too. On a failure the
// state is returned unchanged with the mission's hint. Once every mission is
// complete no check runs and the outcome is OutcomeComplete. Check never
// panics: a check that fails to run, or panics while running, counts as a
// failure.
func (m *Machine) Check(ctx context.Context, st State, last types.ExecutionResult, q types.Executor) (State, types.Outcome) {
	if m.IsComplete(st) {
		return st, types.Outcome{Status: types.OutcomeComplete, MissionID: m.reg.Len()}
	}

	focus := m.focus(st)
	mission, _ := m.reg.At(focus)

	passed, reason := m.evaluate(ctx, mission, last, q)
	if !passed {
		m.logger.Debug("mission check failed", "mission", mission.ID, "reason", reason)
		return st, types.Outcome{
			Status:    types.OutcomeFailed,
			MissionID: mission.ID,
			Hint:      mission.Hint,
			Reason:    reason,
		}
	}

	next := State{Progress: st.Progress, Focus: focus + 1}
	if focus == st.Progress.MissionIndex {
		next.Progress = st.Progress.Advance()
	}
	m.logger.Info("mission passed", "mission", mission.ID, "level", next.Progress.MissionIndex)
	return next, types.Outcome{Status: types.OutcomePassed, MissionID: mission.ID}
}

// JumpTo moves the focus to mission index. Only the current mission and
// missions already passed can be opened. The mission index never changes.
func (m *Machine) JumpTo(st State, index int) (State, error) {
	if index < 0 || index >= m.reg.Len() {
		return st, fmt.Errorf("%w: %d", types.ErrMissionOutOfRange, index)
	}
	if index > st.Progress.MissionIndex {
		return st, fmt.Errorf("%w: %d", types.ErrMissionLocked, index)
	}
	return State{Progress: st.Progress, Focus: index}, nil
}

// focus returns st.Focus limited to the range a learner may have open.
func (m *Machine) focus(st State) int {
	f := st.Focus
	if f > st.Progress.MissionIndex {
		f = st.Progress.MissionIndex
	}
	if f < 0 {
		f = 0
	}
	return f
}

// evaluate runs the mission check, turning errors and panics into a failed
// verdict with a reason for the logs.
func (m *Machine) evaluate(ctx context.Context, mission types.Mission, last types.ExecutionResult, q types.Executor) (passed bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("mission check panicked", "mission", mission.ID, "panic", r)
			passed, reason = false, fmt.Sprintf("check panicked: %v", r)
		}
	}()

	ok, err := Evaluate(ctx, mission.Check, last, q)
	if err != nil {
		return false, err.Error()
	}
	if !ok {
		return false, "goal not met"
	}
	return true, ""
}
