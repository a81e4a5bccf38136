package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/care-records/internal/care"
	"github.com/iliyamo/care-records/internal/model"
)

// DirectoryStore is the read-only facility directory.
type DirectoryStore interface {
	ActivePatients(ctx context.Context) ([]model.Patient, error)
	Stations(ctx context.Context) ([]model.Station, error)
	Beds(ctx context.Context) ([]model.Bed, error)
	BedByQRCode(ctx context.Context, qr string) (*model.Bed, error)
	PatientInBed(ctx context.Context, bedID string) (*model.Patient, error)
	CareTabs(ctx context.Context, patientID int64) ([]model.PatientCareTab, error)
	HealthAssessments(ctx context.Context) ([]model.HealthAssessment, error)
	RestraintAssessments(ctx context.Context) ([]model.PatientRestraintAssessment, error)
	AdmissionRecords(ctx context.Context) ([]model.PatientAdmissionRecord, error)
	AdmissionRecordsFor(ctx context.Context, patientID int64) ([]model.PatientAdmissionRecord, error)
}

// DirectoryHandler serves residents, stations, beds and the assessments the
// mobile app shows next to them.  Loc is the facility time zone used by the
// hospital-stay rule.
type DirectoryHandler struct {
	Store DirectoryStore
	Loc   *time.Location
	now   func() time.Time
}

func NewDirectoryHandler(store DirectoryStore) *DirectoryHandler {
	return &DirectoryHandler{Store: store, Loc: time.Local, now: time.Now}
}

// list runs fetch and writes its result as a JSON array.
func list[T any](c echo.Context, what string, fetch func(ctx context.Context) ([]T, error)) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := fetch(ctx)
	if err != nil {
		return respondErr(c, err, what)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DirectoryHandler) Patients(c echo.Context) error {
	return list(c, "patient", h.Store.ActivePatients)
}

func (h *DirectoryHandler) Stations(c echo.Context) error {
	return list(c, "station", h.Store.Stations)
}

func (h *DirectoryHandler) Beds(c echo.Context) error {
	return list(c, "bed", h.Store.Beds)
}

func (h *DirectoryHandler) HealthAssessments(c echo.Context) error {
	return list(c, "health assessment", h.Store.HealthAssessments)
}

func (h *DirectoryHandler) RestraintAssessments(c echo.Context) error {
	return list(c, "restraint assessment", h.Store.RestraintAssessments)
}

func (h *DirectoryHandler) AdmissionRecords(c echo.Context) error {
	return list(c, "admission record", h.Store.AdmissionRecords)
}

// BedByQRCode: GET /api/beds/qr/:qrCodeId
func (h *DirectoryHandler) BedByQRCode(c echo.Context) error {
	qr := strings.TrimSpace(c.Param("qrCodeId"))
	if qr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr code required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	bed, err := h.Store.BedByQRCode(ctx, qr)
	if err != nil {
		return respondErr(c, err, "bed")
	}
	return c.JSON(http.StatusOK, bed)
}

// PatientInBed: GET /api/beds/:id/patient
func (h *DirectoryHandler) PatientInBed(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Store.PatientInBed(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err, "patient")
	}
	return c.JSON(http.StatusOK, p)
}

func patientIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *DirectoryHandler) CareTabs(c echo.Context) error {
	id, ok := patientIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient id"})
	}
	return list(c, "care tab", func(ctx context.Context) ([]model.PatientCareTab, error) {
		return h.Store.CareTabs(ctx, id)
	})
}

// HospitalStatus: GET /api/patients/:id/hospital-status?date=&time=
// Date and time default to now in the facility time zone.
func (h *DirectoryHandler) HospitalStatus(c echo.Context) error {
	id, ok := patientIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient id"})
	}
	now := h.now().In(h.Loc)
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		date = now.Format(care.DateLayout)
	}
	clock := strings.TrimSpace(c.QueryParam("time"))
	if clock == "" {
		clock = now.Format("15:04")
	}
	if !care.ValidDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if _, _, ok := care.ParseClock(clock); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	records, err := h.Store.AdmissionRecordsFor(ctx, id)
	if err != nil {
		return respondErr(c, err, "admission record")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"in_hospital": care.IsInHospital(id, date, clock, records, h.Loc),
	})
}
