package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsTrace(t *testing.T) {
	tcs := []struct {
		name     string
		err      *Err
		expected string
	}{
		{
			name:     "ErrWithoutCause",
			err:      NewNotImplemented(),
			expected: "Not implemented",
		},
		{
			name: "ErrWithCauses",
			err: &Err{
				msg: "foo",
				cause: &Err{
					msg:   "bar",
					cause: &Err{msg: "qux"},
				},
			},
			expected: "foo\n\tCaused by: bar\n\t\tCaused by: qux",
		},
		{
			name:     "ErrWithForeignCause",
			err:      NewServiceFailure("foo").WithCause(fmt.Errorf("boom")),
			expected: "foo\n\tCaused by: boom",
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			actual := c.err.Trace()
			assert.Equal(t, c.expected, actual, "unexpected error trace")
		})
	}
}

func TestErrorsStatusCode(t *testing.T) {
	tcs := []struct {
		err          *Err
		expectedCode int
	}{
		{
			err:          NewServiceFailure("fake"),
			expectedCode: http.StatusInternalServerError,
		},
		{
			err:          NewNotFound("fake"),
			expectedCode: http.StatusNotFound,
		},
		{
			err:          NewBadInput("fake"),
			expectedCode: http.StatusBadRequest,
		},
		{
			err:          NewUnauthorized("fake"),
			expectedCode: http.StatusUnauthorized,
		},
		{
			err:          NewInvalidImage("fake"),
			expectedCode: http.StatusBadRequest,
		},
		{
			err:          NewUnsupportedMethod("PATCH"),
			expectedCode: http.StatusBadRequest,
		},
		{
			err:          NewDeleteFailed("fake"),
			expectedCode: http.StatusBadRequest,
		},
		{
			err:          NewOversized(),
			expectedCode: http.StatusRequestEntityTooLarge,
		},
		{
			err:          NewDependencyFailure("fake"),
			expectedCode: http.StatusBadGateway,
		},
	}
	for _, c := range tcs {
		code := c.err.StatusCode()
		assert.Equal(t, c.expectedCode, code, "unexpected status code for %s", c.err.Code)
	}
}

func TestErrorsCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewNotFound("missing"))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrCodeServiceFailure, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(NewUnauthorized("who")))
}
