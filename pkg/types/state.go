package types

import "errors"

// Navigation errors.
var (
	ErrMissionLocked     = errors.New("mission is locked")
	ErrMissionOutOfRange = errors.New("mission index out of range")
)

// Saved progress errors.
var (
	ErrStateNotFound = errors.New("no saved progress in dataset")
	ErrStateCorrupt  = errors.New("saved progress is corrupt")
)

// Reserved names used to store progress inside a dataset.
const (
	StateTable      = "__app_state__"
	StateKeyLevel   = "level"
	StateKeyHistory = "history"

	// ReservedPrefix marks tables that belong to the application rather
	// than the learner.
	ReservedPrefix = "__app_"
)
