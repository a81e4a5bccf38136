package care

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/care-records/internal/model"
)

func TestIsInHospital(t *testing.T) {
	records := []model.PatientAdmissionRecord{
		{PatientID: 1, EventType: model.EventHospitalAdmission, EventDate: "2024-03-01", EventTime: "10:00"},
		{PatientID: 1, EventType: model.EventHospitalDischarge, EventDate: "2024-03-05"},
		{PatientID: 1, EventType: model.EventHospitalDischarge, EventDate: "2024-03-09"},
		{PatientID: 2, EventType: model.EventHospitalAdmission, EventDate: "2024-04-01"},
		{PatientID: 3, EventType: model.EventTransferOut, EventDate: "2024-04-01"},
	}

	tests := []struct {
		name    string
		patient int64
		date    string
		clock   string
		want    bool
	}{
		{"before admission time", 1, "2024-03-01", "09:00", false},
		{"after admission time", 1, "2024-03-01", "11:00", true},
		{"discharge day defaults to 23:59", 1, "2024-03-05", "23:00", true},
		{"night slot after discharge", 1, "2024-03-05", "01:00", false},
		{"day after discharge", 1, "2024-03-06", "07:00", false},
		{"open admission", 2, "2024-05-01", "09:00", true},
		{"admission day from midnight", 2, "2024-04-01", "07:00", true},
		{"transfer only", 3, "2024-05-01", "09:00", false},
		{"unknown patient", 9, "2024-03-02", "09:00", false},
		{"bad clock", 1, "2024-03-02", "later", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInHospital(tt.patient, tt.date, tt.clock, records, time.UTC))
		})
	}
}

func TestIsInHospital_LatestAdmissionWins(t *testing.T) {
	records := []model.PatientAdmissionRecord{
		{PatientID: 1, EventType: model.EventHospitalAdmission, EventDate: "2024-01-01"},
		{PatientID: 1, EventType: model.EventHospitalDischarge, EventDate: "2024-01-03"},
		{PatientID: 1, EventType: model.EventHospitalAdmission, EventDate: "2024-02-01"},
	}
	assert.False(t, IsInHospital(1, "2024-01-20", "09:00", records, time.UTC))
	assert.True(t, IsInHospital(1, "2024-02-02", "09:00", records, time.UTC))
}
