package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/repository"
)

type fakeDirectory struct {
	patients   []model.Patient
	beds       []model.Bed
	tabs       map[int64][]model.PatientCareTab
	admissions []model.PatientAdmissionRecord
	err        error
}

func (f *fakeDirectory) ActivePatients(context.Context) ([]model.Patient, error) {
	return f.patients, f.err
}

func (f *fakeDirectory) Stations(context.Context) ([]model.Station, error) {
	return []model.Station{{ID: "s1", Name: "A站"}}, f.err
}

func (f *fakeDirectory) Beds(context.Context) ([]model.Bed, error) { return f.beds, f.err }

func (f *fakeDirectory) BedByQRCode(_ context.Context, qr string) (*model.Bed, error) {
	for _, b := range f.beds {
		if b.QRCodeID == qr {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDirectory) PatientInBed(_ context.Context, bedID string) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.BedID == bedID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDirectory) CareTabs(_ context.Context, patientID int64) ([]model.PatientCareTab, error) {
	return append([]model.PatientCareTab{}, f.tabs[patientID]...), nil
}

func (f *fakeDirectory) HealthAssessments(context.Context) ([]model.HealthAssessment, error) {
	return []model.HealthAssessment{}, f.err
}

func (f *fakeDirectory) RestraintAssessments(context.Context) ([]model.PatientRestraintAssessment, error) {
	return []model.PatientRestraintAssessment{}, f.err
}

func (f *fakeDirectory) AdmissionRecords(context.Context) ([]model.PatientAdmissionRecord, error) {
	return f.admissions, f.err
}

func (f *fakeDirectory) AdmissionRecordsFor(_ context.Context, patientID int64) ([]model.PatientAdmissionRecord, error) {
	var out []model.PatientAdmissionRecord
	for _, r := range f.admissions {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func newDirectoryEcho(h *DirectoryHandler) *echo.Echo {
	e := newTestEcho()
	e.GET("/api/patients", h.Patients)
	e.GET("/api/stations", h.Stations)
	e.GET("/api/beds", h.Beds)
	e.GET("/api/beds/qr/:qrCodeId", h.BedByQRCode)
	e.GET("/api/beds/:id/patient", h.PatientInBed)
	e.GET("/api/patients/:id/care-tabs", h.CareTabs)
	e.GET("/api/patients/:id/hospital-status", h.HospitalStatus)
	e.GET("/api/health-assessments", h.HealthAssessments)
	e.GET("/api/restraint-assessments", h.RestraintAssessments)
	e.GET("/api/admission-records", h.AdmissionRecords)
	return e
}

func TestDirectoryLookups(t *testing.T) {
	dir := &fakeDirectory{
		patients: []model.Patient{{ID: 1, BedNumber: "A01", NameZh: "陳大文", BedID: "bed-1"}},
		beds:     []model.Bed{{ID: "bed-1", BedNumber: "A01", QRCodeID: "qr-a01"}},
		tabs:     map[int64][]model.PatientCareTab{1: {{ID: "t1", PatientID: 1, TabType: model.TabPatrol}}},
	}
	e := newDirectoryEcho(NewDirectoryHandler(dir))

	rec := doJSON(e, http.MethodGet, "/api/patients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"床號":"A01"`)
	assert.Contains(t, rec.Body.String(), `"中文姓名":"陳大文"`)

	rec = doJSON(e, http.MethodGet, "/api/beds/qr/qr-a01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bed-1", decode[model.Bed](t, rec).ID)
	rec = doJSON(e, http.MethodGet, "/api/beds/qr/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/beds/bed-1/patient", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodGet, "/api/beds/bed-9/patient", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/patients/1/care-tabs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.PatientCareTab](t, rec), 1)
	rec = doJSON(e, http.MethodGet, "/api/patients/x/care-tabs", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{"/api/stations", "/api/beds", "/api/health-assessments", "/api/restraint-assessments"} {
		rec = doJSON(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	dir.err = assert.AnError
	rec = doJSON(e, http.MethodGet, "/api/stations", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestHospitalStatus(t *testing.T) {
	dir := &fakeDirectory{admissions: []model.PatientAdmissionRecord{
		{PatientID: 1, EventType: model.EventHospitalAdmission, EventDate: "2024-03-01", EventTime: "10:00"},
		{PatientID: 1, EventType: model.EventHospitalDischarge, EventDate: "2024-03-05"},
	}}
	h := NewDirectoryHandler(dir)
	h.Loc = time.UTC
	h.now = func() time.Time { return time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC) }
	e := newDirectoryEcho(h)

	tests := []struct {
		query string
		want  string
	}{
		{"", `{"in_hospital":true}`},
		{"?date=2024-03-01&time=09:00", `{"in_hospital":false}`},
		{"?date=2024-03-01&time=11:00", `{"in_hospital":true}`},
		{"?date=2024-03-06&time=09:00", `{"in_hospital":false}`},
	}
	for _, tt := range tests {
		rec := doJSON(e, http.MethodGet, "/api/patients/1/hospital-status"+tt.query, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		assert.JSONEq(t, tt.want, rec.Body.String(), tt.query)
	}

	for _, q := range []string{"?date=03/01/2024", "?time=noon"} {
		rec := doJSON(e, http.MethodGet, "/api/patients/1/hospital-status"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
