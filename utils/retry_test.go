package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoffSucceedsAfterFailure(t *testing.T) {
	logger := NewLogger()
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, logger)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	logger := NewLogger()
	wantErr := errors.New("permanent")
	err := RetryWithBackoff(context.Background(), 2, func() error { return wantErr }, logger)
	assert.ErrorIs(t, err, wantErr)
}

func TestRetryWithBackoffCanceled(t *testing.T) {
	logger := NewLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, 3, func() error { return errors.New("fail") }, logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestURLTracker(t *testing.T) {
	tracker := NewURLTracker()
	assert.True(t, tracker.Add("a"))
	assert.False(t, tracker.Add("a"))
	assert.True(t, tracker.Add("b"))
	assert.Equal(t, 2, tracker.Count())
}
