package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError wraps a panic value as an error
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func newPanicError(r interface{}) *PanicError {
	stack := string(debug.Stack())
	slog.Error("Recovered from panic", "panic", r, "stack", stack)
	return &PanicError{Value: r, StackTrace: stack}
}

// RecoverAsError recovers from a panic and stores it in *errPtr.
// Call it with defer at the top of a function with a named error result:
//
//	func round() (err error) {
//	    defer RecoverAsError(&err)
//	    ...
//	}
func RecoverAsError(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = newPanicError(r)
	}
}

// RecoverWithCallback recovers from a panic and calls the callback with the error.
func RecoverWithCallback(callback func(error)) {
	if r := recover(); r != nil {
		err := newPanicError(r)
		if callback != nil {
			callback(err)
		}
	}
}

// SafeGoWithResult runs fn in a goroutine with panic recovery.
// The returned channel receives fn's error (or the recovered panic) and is
// closed when fn returns.
func SafeGoWithResult(fn func() error) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer RecoverWithCallback(func(err error) {
			errCh <- err
		})
		if err := fn(); err != nil {
			errCh <- err
		}
	}()
	return errCh
}
