// Package queue publishes care-record events to RabbitMQ and consumes them
// into an audit log.
package queue

import (
	"time"

	"github.com/iliyamo/care-records/internal/model"
)

// CareRecordQueue is the durable queue every care-record event goes to.
const CareRecordQueue = "care_record.events"

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CareRecordEvent is published after a care record is written.  It carries
// enough for the audit log without reading the record back.
type CareRecordEvent struct {
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	RecordID   string `json:"record_id"`
	PatientID  int64  `json:"patient_id"`
	Recorder   string `json:"recorder"`
	OccurredAt string `json:"occurred_at"`
}

// NewCareRecordEvent describes action on rec at now.
func NewCareRecordEvent(rec model.CareRecord, action string, now time.Time) CareRecordEvent {
	return CareRecordEvent{
		Kind:       rec.Kind(),
		Action:     action,
		RecordID:   rec.RecordID(),
		PatientID:  rec.Patient(),
		Recorder:   rec.RecordedBy(),
		OccurredAt: now.UTC().Format(time.RFC3339),
	}
}
