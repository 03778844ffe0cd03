// internal/consumer/processor_test.go
package consumer

import (
	"context"
	"testing"
	"time"

	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/handlers/dailyreport"
	"gym-churn-workers/internal/handlers/processbulk"
	"gym-churn-workers/internal/handlers/processcheckin"
	"gym-churn-workers/internal/handlers/retrainmodel"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type recordingCounter struct {
	calls int
	err   error
}

func (r *recordingCounter) DailyCheckinCounts(_ context.Context, _ time.Time) (int, int, error) {
	r.calls++
	return 4, 2, r.err
}

type recordingRetrainer struct {
	calls int
	err   error
}

func (r *recordingRetrainer) Retrain(_ context.Context) error {
	r.calls++
	return r.err
}

type testFixture struct {
	processor *Processor
	counter   *recordingCounter
	retrainer *recordingRetrainer
}

func newTestProcessor(t *testing.T) *testFixture {
	log := logger.NewTestLogger(t)
	counter := &recordingCounter{}
	retrainer := &recordingRetrainer{}

	processor := NewProcessor(
		processcheckin.NewHandler(&processcheckin.Config{WorkDelay: 0}, log),
		processbulk.NewHandler(&processbulk.Config{ItemWorkDelay: 0}, log),
		dailyreport.NewHandler(&dailyreport.Config{CacheTTL: time.Hour}, counter, nil, log),
		retrainmodel.NewHandler(retrainmodel.DefaultConfig(), retrainer, log),
		log,
		nil,
	)
	return &testFixture{processor: processor, counter: counter, retrainer: retrainer}
}

// ==========================
// Dispatch Tests
// ==========================

func TestProcessor_Handle_AcksEachEventType(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "new checkin", body: `{"type":"new_checkin_event","checkin_id":42,"id_aluno":7,"timestamp":"2026-03-15T10:30:00Z"}`},
		{name: "bulk checkin", body: `{"type":"bulk_checkin_event","checkin_ids":[1,2,3]}`},
		{name: "daily report", body: `{"type":"generate_daily_report_event","report_date":"2026-03-14"}`},
		{name: "retrain model", body: `{"type":"retrain_model_event"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestProcessor(t)

			ack := f.processor.Handle(context.Background(), []byte(tt.body))

			assert.True(t, ack)
		})
	}
}

func TestProcessor_Handle_UnknownTypeIsAckedWithoutSideEffects(t *testing.T) {
	f := newTestProcessor(t)

	ack := f.processor.Handle(context.Background(), []byte(`{"type":"foo"}`))

	assert.True(t, ack)
	assert.Zero(t, f.counter.calls)
	assert.Zero(t, f.retrainer.calls)
}

func TestProcessor_Handle_MalformedPayloadIsNacked(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "broken json", body: `{"type":`},
		{name: "schema violation", body: `{"type":"new_checkin_event","checkin_id":"not-a-number"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestProcessor(t)

			ack := f.processor.Handle(context.Background(), []byte(tt.body))

			assert.False(t, ack)
		})
	}
}

func TestProcessor_Handle_HandlerFailureIsNacked(t *testing.T) {
	f := newTestProcessor(t)
	f.counter.err = assert.AnError

	ack := f.processor.Handle(context.Background(), []byte(`{"type":"generate_daily_report_event","report_date":"2026-03-14"}`))

	assert.False(t, ack)
	assert.Equal(t, 1, f.counter.calls)
}

func TestProcessor_Handle_RetrainInvokesLifecycle(t *testing.T) {
	f := newTestProcessor(t)

	ack := f.processor.Handle(context.Background(), []byte(`{"type":"retrain_model_event"}`))

	assert.True(t, ack)
	assert.Equal(t, 1, f.retrainer.calls)
}
