// internal/handlers/processcheckin/handler_test.go
package processcheckin

import (
	"context"
	"testing"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{WorkDelay: 0}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		CheckinID: 42,
		StudentID: 7,
		Timestamp: "2026-03-15T10:30:00Z",
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, int64(42), output.CheckinID)
	assert.Equal(t, int64(7), output.StudentID)
	assert.False(t, output.ProcessedAt.IsZero())
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil input", input: nil},
		{name: "missing checkin id", input: &Input{StudentID: 7}},
		{name: "missing student id", input: &Input{CheckinID: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
		})
	}
}

func TestHandler_Execute_CancelledContext(t *testing.T) {
	handler := NewHandler(&Config{WorkDelay: 5 * time.Second}, logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output, err := handler.Execute(ctx, &Input{CheckinID: 1, StudentID: 1})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, context.Canceled)
}
