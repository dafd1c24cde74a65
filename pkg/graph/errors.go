package graph

import (
	"fmt"
)

// InputError reports a rejected row of graph input.
type InputError struct {
	// Line is the 1-based row number, 0 when the input has no rows (builder calls)
	Line int
	Err  error
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}
