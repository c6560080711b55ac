// Package types defines the entities, interfaces, and standard errors shared
// by the sqlmaster packages: missions and their checks, learner progress,
// execution results, check outcomes, and the listener the presentation layer
// implements.
package types
