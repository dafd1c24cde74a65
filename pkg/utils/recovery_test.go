package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// estimate mimics an evaluation round with a named error result
func estimate(values []float64, i int) (sum float64, err error) {
	defer RecoverAsError(&err)
	for _, v := range values[:i] {
		sum += v
	}
	return sum, nil
}

func TestRecoverAsError(t *testing.T) {
	t.Run("no panic keeps the result", func(t *testing.T) {
		sum, err := estimate([]float64{0.25, 0.5}, 2)
		require.NoError(t, err)
		assert.Equal(t, 0.75, sum)
	})

	t.Run("runtime panic becomes PanicError", func(t *testing.T) {
		_, err := estimate([]float64{0.25}, 3)
		require.Error(t, err)

		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Error(), "out of range")
		assert.Contains(t, pe.StackTrace, "estimate")
	})

	t.Run("error value is kept as the panic value", func(t *testing.T) {
		cause := errors.New("sampler exhausted")
		fn := func() (err error) {
			defer RecoverAsError(&err)
			panic(cause)
		}
		var pe *PanicError
		require.ErrorAs(t, fn(), &pe)
		assert.Equal(t, cause, pe.Value)
		assert.Equal(t, "panic: sampler exhausted", pe.Error())
	})
}

func TestRecoverWithCallback(t *testing.T) {
	t.Run("callback receives the panic", func(t *testing.T) {
		var got error
		func() {
			defer RecoverWithCallback(func(err error) { got = err })
			panic("worker 3")
		}()
		var pe *PanicError
		require.ErrorAs(t, got, &pe)
		assert.Equal(t, "worker 3", pe.Value)
	})

	t.Run("nil callback still recovers", func(t *testing.T) {
		assert.NotPanics(t, func() {
			defer RecoverWithCallback(nil)
			panic("ignored")
		})
	})

	t.Run("callback not called without panic", func(t *testing.T) {
		called := false
		func() {
			defer RecoverWithCallback(func(error) { called = true })
		}()
		assert.False(t, called)
	})
}

// drain reads every value from ch, failing after a timeout
func drain(t *testing.T, ch <-chan error) []error {
	t.Helper()
	var out []error
	timeout := time.After(2 * time.Second)
	for {
		select {
		case err, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, err)
		case <-timeout:
			t.Fatal("channel not closed")
			return nil
		}
	}
}

func TestSafeGoWithResult(t *testing.T) {
	t.Run("clean shutdown closes without a value", func(t *testing.T) {
		assert.Empty(t, drain(t, SafeGoWithResult(func() error { return nil })))
	})

	t.Run("error is delivered before close", func(t *testing.T) {
		listen := errors.New("listen tcp :8080: address already in use")
		errs := drain(t, SafeGoWithResult(func() error { return listen }))
		require.Len(t, errs, 1)
		assert.Equal(t, listen, errs[0])
	})

	t.Run("panic is delivered before close", func(t *testing.T) {
		errs := drain(t, SafeGoWithResult(func() error { panic("handler") }))
		require.Len(t, errs, 1)
		var pe *PanicError
		assert.ErrorAs(t, errs[0], &pe)
	})

	t.Run("caller can select on the result with a shutdown signal", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		ch := SafeGoWithResult(func() error {
			<-stopped
			return nil
		})

		cancel()
		select {
		case err := <-ch:
			t.Fatalf("unexpected result before shutdown: %v", err)
		case <-ctx.Done():
		}
		close(stopped)
		assert.Empty(t, drain(t, ch))
	})
}

func TestConcurrentRecovery(t *testing.T) {
	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) { errs[i] = err })
			if i%2 == 0 {
				panic(i)
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 0 {
			assert.Error(t, err, "worker %d", i)
		} else {
			assert.NoError(t, err, "worker %d", i)
		}
	}
}
