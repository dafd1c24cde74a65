package types

import "errors"

// Validation errors. These are raised before any computation starts and are
// always fatal to a submission.
var (
	// ErrInvalidPattern indicates an unknown pattern id
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrMissingArgument indicates a required role binding (such as a start node) was not supplied
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument indicates a pattern argument that could not be parsed or is out of range
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedGraphInput indicates an unparsable edge-list row
	ErrMalformedGraphInput = errors.New("malformed graph input")

	// ErrProbabilityOutOfRange indicates an edge probability outside [0,1]
	ErrProbabilityOutOfRange = errors.New("probability out of range")

	// ErrEpsilonDeltaOutOfRange indicates epsilon or delta outside (0,1)
	ErrEpsilonDeltaOutOfRange = errors.New("epsilon/delta out of range")

	// ErrEmptyGraph indicates that no graph has been loaded into the engine
	ErrEmptyGraph = errors.New("no graph loaded")
)

// Evaluation errors. These surface inside a refinement round and fail only that round.
var (
	// ErrFormulaTooLarge indicates a formula with too many distinct variables for exact evaluation
	ErrFormulaTooLarge = errors.New("formula too large for exact evaluation")

	// ErrNumerical indicates a numerically degenerate sampling distribution
	ErrNumerical = errors.New("numerical error in sampling")

	// ErrTrialBudget indicates that sampling exceeded the configured trial budget
	ErrTrialBudget = errors.New("trial budget exceeded")
)

// ErrGraphBusy is returned when a graph replacement is rejected because queries are in flight.
var ErrGraphBusy = errors.New("graph is in use by running queries")

// IsValidationError reports whether err is one of the fail-fast validation kinds.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidPattern,
		ErrMissingArgument,
		ErrInvalidArgument,
		ErrMalformedGraphInput,
		ErrProbabilityOutOfRange,
		ErrEpsilonDeltaOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
