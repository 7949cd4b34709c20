package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	fetchErr := NewFetchFailure("fetch", "https://example.com/a", context.DeadlineExceeded)
	wrapped := fmt.Errorf("window failed: %w", fetchErr)

	assert.True(t, IsFetchFailure(wrapped))
	assert.False(t, IsMalformed(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)

	malformed := NewMalformed("https://example.com/b", "empty body")
	assert.True(t, IsMalformed(malformed))
	assert.Equal(t, ErrorTypeMalformed, TypeOf(malformed))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := NewStatusFailure("fetch", "https://example.com/c", 503)
	assert.Equal(t, "fetch_failure: fetch https://example.com/c (status 503)", err.Error())
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{404, false},
		{403, false},
		{200, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryableStatusCode(tt.code))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewFetchFailure("fetch", "u", context.DeadlineExceeded)))
	assert.True(t, Retryable(NewStatusFailure("fetch", "u", 503)))
	assert.False(t, Retryable(NewStatusFailure("fetch", "u", 404)))
	assert.False(t, Retryable(NewFetchFailure("read", "u", fmt.Errorf("%w: more than 8 bytes", ErrBodyTooLarge))))
	assert.False(t, Retryable(NewMalformed("u", "empty")))
	assert.False(t, Retryable(errors.New("plain")))
}
