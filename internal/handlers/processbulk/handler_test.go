// internal/handlers/processbulk/handler_test.go
package processbulk

import (
	"context"
	"testing"
	"time"

	"gym-churn-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name       string
		checkinIDs []int64
		expected   int
	}{
		{name: "three check-ins", checkinIDs: []int64{1, 2, 3}, expected: 3},
		{name: "single check-in", checkinIDs: []int64{42}, expected: 1},
		{name: "empty batch", checkinIDs: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&Config{ItemWorkDelay: 0}, logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), &Input{CheckinIDs: tt.checkinIDs})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, output.Processed)
		})
	}
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler := NewHandler(&Config{}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), nil)

	assert.Nil(t, output)
	assert.Error(t, err)
}

func TestHandler_Execute_CancelledMidBatch(t *testing.T) {
	handler := NewHandler(&Config{ItemWorkDelay: 50 * time.Millisecond}, logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output, err := handler.Execute(ctx, &Input{CheckinIDs: []int64{1, 2, 3}})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, context.Canceled)
}
