// Package types holds the error kinds and context keys shared by every
// graphconf package.
//
// # Errors
//
// Validation errors (ErrInvalidPattern, ErrMissingArgument, ErrInvalidArgument,
// ErrMalformedGraphInput, ErrProbabilityOutOfRange, ErrEpsilonDeltaOutOfRange)
// are returned before any computation begins. Evaluation errors
// (ErrFormulaTooLarge, ErrNumerical, ErrTrialBudget) fail a single refinement
// round and are reported in-stream. All errors are wrapped with %w, so callers
// should match them with errors.Is:
//
//	if errors.Is(err, types.ErrMissingArgument) {
//	    // ask the user for a start node
//	}
package types
