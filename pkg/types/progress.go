package types

import "strings"

// HistoryLimit is the number of most recent commands persisted with a
// dataset. History kept in memory is not bounded.
const HistoryLimit = 50

// Progress is the learner's position in the curriculum. MissionIndex is the
// index of the first mission not yet passed; a value at or beyond the
// registry length means every mission is complete.
//
// Progress is a value. Its methods return updated copies and leave the
// receiver untouched.
type Progress struct {
	MissionIndex int      `json:"level"`
	History      []string `json:"history"`
}

// NewProgress returns progress at the given index with a copy of history.
func NewProgress(index int, history []string) Progress {
	return Progress{MissionIndex: index, History: history}.clone()
}

// Record returns a copy of p with cmd appended to the history. Surrounding
// whitespace is trimmed; empty commands and immediate repeats are dropped.
func (p Progress) Record(cmd string) Progress {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return p.clone()
	}
	if n := len(p.History); n > 0 && p.History[n-1] == cmd {
		return p.clone()
	}
	out := p.clone()
	out.History = append(out.History, cmd)
	return out
}

// RecentHistory returns a copy of the last n history entries.
func (p Progress) RecentHistory(n int) []string {
	if n <= 0 {
		return []string{}
	}
	start := len(p.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(p.History)-start)
	copy(out, p.History[start:])
	return out
}

// Advance returns a copy of p with the mission index moved one step forward.
func (p Progress) Advance() Progress {
	out := p.clone()
	out.MissionIndex++
	return out
}

// Clamp returns a copy of p whose mission index is at most total.
func (p Progress) Clamp(total int) Progress {
	out := p.clone()
	if out.MissionIndex > total {
		out.MissionIndex = total
	}
	if out.MissionIndex < 0 {
		out.MissionIndex = 0
	}
	return out
}

// IsComplete reports whether every one of total missions has been passed.
func (p Progress) IsComplete(total int) bool {
	return p.MissionIndex >= total
}

// clone copies p. An empty history is always represented as nil so that
// copies compare equal regardless of how they were built.
func (p Progress) clone() Progress {
	var h []string
	if len(p.History) > 0 {
		h = make([]string, len(p.History))
		copy(h, p.History)
	}
	return Progress{MissionIndex: p.MissionIndex, History: h}
}
