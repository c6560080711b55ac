package types

// Listener receives session events. The presentation layer implements it to
// render state; it never changes session state from inside a callback.
type Listener interface {
	// OnCheckRequested is called when the learner asks for a check.
	OnCheckRequested()

	// OnMissionPassed is called with the mission whose goal was met.
	OnMissionPassed(m Mission)

	// OnMissionAdvanced is called after a pass with the mission index the
	// learner now works on. An index equal to the registry length means the
	// curriculum is complete.
	OnMissionAdvanced(newIndex int)

	// OnValidationFailed is called with the hint of the mission that failed.
	OnValidationFailed(hint string)

	// OnLoadCompleted is called after a dataset file was loaded. restored
	// reports whether saved progress was found; index is the mission index
	// in effect after the load.
	OnLoadCompleted(index int, restored bool)

	// OnTablesChanged is called with the learner's tables after a statement
	// that may have changed the schema, or after a load.
	OnTablesChanged(tables []string)
}

// NopListener ignores every event. Embed it to implement only some events.
type NopListener struct{}

var _ Listener = NopListener{}

func (NopListener) OnCheckRequested() {}
func (NopListener) OnMissionPassed(Mission) {}
func (NopListener) OnMissionAdvanced(int) {}
func (NopListener) OnValidationFailed(string) {}
func (NopListener) OnLoadCompleted(int, bool) {}
func (NopListener) OnTablesChanged([]string) {}
