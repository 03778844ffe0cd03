// Package events defines the typed message variants carried on the check-in
// queue and decodes raw broker payloads into them exactly once, at the queue
// boundary.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Queue message type tags.
const (
	TypeNewCheckin          = "new_checkin_event"
	TypeBulkCheckin         = "bulk_checkin_event"
	TypeGenerateDailyReport = "generate_daily_report_event"
	TypeRetrainModel        = "retrain_model_event"
)

// NewCheckinEvent announces a single committed check-in. The id_aluno wire
// field name is fixed by the producers already on this queue.
type NewCheckinEvent struct {
	Type      string `json:"type"`
	CheckinID int64  `json:"checkin_id"`
	StudentID int64  `json:"id_aluno"`
	Timestamp string `json:"timestamp"`
}

// BulkCheckinEvent announces a batch of committed check-ins.
type BulkCheckinEvent struct {
	Type       string  `json:"type"`
	CheckinIDs []int64 `json:"checkin_ids"`
}

// GenerateDailyReportEvent requests a frequency report for one date.
// ReportDate is YYYY-MM-DD; empty means the current UTC date at processing time.
type GenerateDailyReportEvent struct {
	Type       string `json:"type"`
	ReportDate string `json:"report_date,omitempty"`
}

// RetrainModelEvent requests a churn model retrain cycle.
type RetrainModelEvent struct {
	Type string `json:"type"`
}

// NewCheckin builds a NewCheckinEvent for a committed check-in row.
func NewCheckin(checkinID, studentID int64, timestamp time.Time) NewCheckinEvent {
	return NewCheckinEvent{
		Type:      TypeNewCheckin,
		CheckinID: checkinID,
		StudentID: studentID,
		Timestamp: timestamp.Format(time.RFC3339),
	}
}

// BulkCheckin builds a BulkCheckinEvent for a batch of committed check-ins.
func BulkCheckin(checkinIDs []int64) BulkCheckinEvent {
	return BulkCheckinEvent{
		Type:       TypeBulkCheckin,
		CheckinIDs: checkinIDs,
	}
}

// GenerateDailyReport builds a report request for the given date.
func GenerateDailyReport(reportDate string) GenerateDailyReportEvent {
	return GenerateDailyReportEvent{
		Type:       TypeGenerateDailyReport,
		ReportDate: reportDate,
	}
}

// RetrainModel builds a retrain request.
func RetrainModel() RetrainModelEvent {
	return RetrainModelEvent{Type: TypeRetrainModel}
}

// Per-type payload schemas, validated before the typed decode so handler code
// never sees duck-typed field access failures.
var payloadSchemas = map[string]map[string]interface{}{
	TypeNewCheckin: {
		"type": "object",
		"properties": map[string]interface{}{
			"type":       map[string]interface{}{"type": "string"},
			"checkin_id": map[string]interface{}{"type": "integer"},
			"id_aluno":   map[string]interface{}{"type": "integer"},
			"timestamp":  map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"type", "checkin_id", "id_aluno"},
	},
	TypeBulkCheckin: {
		"type": "object",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
			"checkin_ids": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "integer"},
			},
		},
		"required": []interface{}{"type", "checkin_ids"},
	},
	TypeGenerateDailyReport: {
		"type": "object",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
			"report_date": map[string]interface{}{
				"type":    "string",
				"pattern": `^\d{4}-\d{2}-\d{2}$`,
			},
		},
		"required": []interface{}{"type"},
	},
	TypeRetrainModel: {
		"type": "object",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"type"},
	},
}

// Decode parses a raw queue payload into one of the typed event variants.
// Malformed JSON and schema violations return a retryable error; a syntactically
// valid message of an unrecognized type returns an unknown-type error so the
// consumer can acknowledge and drop it.
func Decode(body []byte) (interface{}, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.NewMalformedPayloadError(err)
	}

	schema, ok := payloadSchemas[envelope.Type]
	if !ok {
		return nil, apperrors.NewUnknownEventTypeError(envelope.Type)
	}

	var document map[string]interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, apperrors.NewMalformedPayloadError(err)
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(document)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, apperrors.NewMalformedPayloadError(err)
	}
	if !result.Valid() {
		return nil, apperrors.NewMalformedPayloadError(schemaError(envelope.Type, result))
	}

	switch envelope.Type {
	case TypeNewCheckin:
		var event NewCheckinEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, apperrors.NewMalformedPayloadError(err)
		}
		return event, nil
	case TypeBulkCheckin:
		var event BulkCheckinEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, apperrors.NewMalformedPayloadError(err)
		}
		return event, nil
	case TypeGenerateDailyReport:
		var event GenerateDailyReportEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, apperrors.NewMalformedPayloadError(err)
		}
		return event, nil
	default:
		return RetrainModelEvent{Type: TypeRetrainModel}, nil
	}
}

func schemaError(eventType string, result *gojsonschema.Result) error {
	msg := fmt.Sprintf("schema validation failed for %s:", eventType)
	for _, e := range result.Errors() {
		msg += " " + e.String() + ";"
	}
	return fmt.Errorf("%s", msg)
}
