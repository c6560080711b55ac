package types

// OutcomeStatus is the verdict of a mission check.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomePassed   OutcomeStatus = "passed"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeComplete OutcomeStatus = "complete"
)

// Outcome is what a mission check reports back to the caller.
type Outcome struct {
	Status    OutcomeStatus `json:"status"`
	MissionID int           `json:"mission_id"`
	// Hint is set when the check failed.
	Hint string `json:"hint,omitempty"`
	// Reason explains a failure for the logs; it is not shown to the learner.
	Reason string `json:"reason,omitempty"`
}

// Passed reports whether the mission goal was met.
func (o Outcome) Passed() bool {
	return o.Status == OutcomePassed
}
