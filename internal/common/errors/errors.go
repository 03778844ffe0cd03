// Package errors provides standardized error handling for the churn engine and
// the event pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeUnknownEventType ErrorCode = "UNKNOWN_EVENT_TYPE"

	ErrCodeStudentNotFound ErrorCode = "STUDENT_NOT_FOUND"
	ErrCodePlanNotFound    ErrorCode = "PLAN_NOT_FOUND"
	ErrCodeCheckinNotFound ErrorCode = "CHECKIN_NOT_FOUND"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeBrokerPublishFailed  ErrorCode = "BROKER_PUBLISH_FAILED"
	ErrCodeBrokerConnectFailed  ErrorCode = "BROKER_CONNECT_FAILED"

	ErrCodeModelUnavailable    ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeArtifactSaveFailed  ErrorCode = "ARTIFACT_SAVE_FAILED"
	ErrCodeReportCacheFailed   ErrorCode = "REPORT_CACHE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedPayloadError creates a retryable decode error. Redelivery will not
// fix a permanently malformed body; there is no dead-letter path yet, so the
// broker's default requeue applies.
func NewMalformedPayloadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedPayload,
		Message:   "Event payload could not be decoded",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownEventTypeError creates a non-retryable error for unrecognized message
// types. The consumer acknowledges and drops these.
func NewUnknownEventTypeError(eventType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEventType,
		Message:   "Unknown event type",
		Details:   fmt.Sprintf("type: %s", eventType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStudentNotFoundError creates a non-retryable not-found error.
func NewStudentNotFoundError(studentID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeStudentNotFound,
		Message:   "Student not found",
		Details:   fmt.Sprintf("studentId: %d", studentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlanNotFoundError creates a non-retryable not-found error.
func NewPlanNotFoundError(planID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanNotFound,
		Message:   "Plan not found",
		Details:   fmt.Sprintf("planId: %d", planID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckinNotFoundError creates a non-retryable not-found error.
func NewCheckinNotFoundError(checkinID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckinNotFound,
		Message:   "Check-in not found",
		Details:   fmt.Sprintf("checkinId: %d", checkinID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable database error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerPublishFailedError creates a retryable publish error. Callers treat
// publish failures as fire-and-forget with logging; committed store state is not
// rolled back.
func NewBrokerPublishFailedError(queue string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerPublishFailed,
		Message:   "Failed to publish message to broker",
		Details:   fmt.Sprintf("queue: %s, error: %s", queue, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerConnectFailedError creates a retryable connection error.
func NewBrokerConnectFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerConnectFailed,
		Message:   "Failed to connect to broker",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError creates a non-retryable model error. Predict never
// throws; the classifier maps this to the Prediction-Error tier.
func NewModelUnavailableError() *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Churn model unavailable for prediction",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactSaveFailedError creates a non-retryable persistence error. Logged,
// not escalated: retrain still succeeds from the caller's perspective.
func NewArtifactSaveFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactSaveFailed,
		Message:   "Failed to persist model artifact",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportCacheFailedError creates a non-retryable cache error. The report is
// still considered generated when caching fails.
func NewReportCacheFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportCacheFailed,
		Message:   "Failed to cache daily report",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable reports whether err carries a retryable StandardError. Unknown
// error values default to retryable so transient failures are redelivered.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// IsNotFound reports whether err is one of the not-found codes.
func IsNotFound(err error) bool {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return false
	}
	switch stdErr.Code {
	case ErrCodeStudentNotFound, ErrCodePlanNotFound, ErrCodeCheckinNotFound:
		return true
	}
	return false
}

// CodeOf extracts the error code, or empty string for foreign errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}
