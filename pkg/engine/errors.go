// Package engine walks automation node graphs and dispatches their
// actions against conversations.
package engine

import "errors"

var (
	// ErrCyclicGraph is returned when a walk revisits a node already on
	// the current path.
	ErrCyclicGraph = errors.New("automation graph contains a cycle")

	// ErrStepBudgetExceeded is returned when a walk runs past the
	// per-execution step limit.
	ErrStepBudgetExceeded = errors.New("automation execution exceeded step budget")
)
