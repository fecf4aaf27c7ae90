package retry

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	pe "wuyrush.io/photo/errors"
)

type testErrRetryable struct {
}

func (e testErrRetryable) Error() string {
	return "retryable err"
}

func TestRetry(t *testing.T) {
	retryable, nonRetryable := testErrRetryable{}, fmt.Errorf("non-retryable")
	f := func(count *int, errs []error) error {
		cnt := *count
		// to prove the function logic is actually executed
		*count = cnt + 1
		return errs[cnt]
	}
	retryOn := func(e error) bool {
		_, ok := e.(testErrRetryable)
		return ok
	}
	tcs := []struct {
		name     string
		errs     []error
		strategy []RetryOption
		expected int
	}{
		{
			name:     "no retry",
			errs:     []error{nil},
			expected: 1,
		},
		{
			name: "retry with max attempt",
			errs: []error{
				retryable,
				retryable,
				retryable,
				nonRetryable,
			},
			expected: 3,
			strategy: []RetryOption{
				WithMaxAttempts(2),
				WithRetryOn(retryOn),
			},
		},
		{
			name: "retryOn",
			errs: []error{
				retryable,
				retryable,
				nonRetryable,
				retryable,
				retryable,
			},
			expected: 3,
			strategy: []RetryOption{
				WithMaxAttempts(10),
				WithRetryOn(retryOn),
			},
		},
		{
			name: "exponential backoff",
			errs: []error{
				retryable,
				retryable,
				nil,
			},
			expected: 3,
			strategy: []RetryOption{
				WithBaseDelay(time.Millisecond),
				WithExp(2),
				WithMaxBackoff(3 * time.Millisecond),
				WithRetryOn(retryOn),
			},
		},
	}

	for _, c := range tcs {
		errs, strategy, exp := c.errs, c.strategy, c.expected
		t.Run(c.name, func(t *testing.T) {
			actual := 0
			Retry(
				func() error {
					// f can also return result besides values as long as we refer to
					// the result with pointer so that it won't get lost
					return f(&actual, errs)
				},
				strategy...,
			)
			assert.Equal(t, exp, actual, "unexpected attempts for %v", errs)
		})
	}
}

func TestRetryTimeout(t *testing.T) {
	start := time.Now()
	err := Retry(
		func() error { return testErrRetryable{} },
		WithTimeout(20*time.Millisecond),
		WithBaseDelay(5*time.Millisecond),
		WithRetryOn(func(error) bool { return true }),
	)
	assert.Equal(t, ErrRetryTimedOut, err)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))
}

func TestIsDepOffline(t *testing.T) {
	tcs := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Nil", err: nil, expected: false},
		{name: "DependencyFailure", err: pe.NewDependencyFailure("down"), expected: true},
		{name: "WrappedDependencyFailure", err: fmt.Errorf("ping: %w", pe.NewDependencyFailure("down")), expected: true},
		{name: "NetError", err: &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}, expected: true},
		{name: "NotFound", err: pe.NewNotFound("gone"), expected: false},
		{name: "Plain", err: fmt.Errorf("plain"), expected: false},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, IsDepOffline(c.err))
		})
	}
}
