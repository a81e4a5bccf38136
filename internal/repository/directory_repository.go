package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/care-records/internal/model"
)

const patientColumns = `id, bed_number, name_zh, surname_zh, given_name_zh, name_en, surname_en, given_name_en,
	gender, id_number, COALESCE(DATE_FORMAT(birth_date,'%Y-%m-%d'),'') AS birth_date, photo_url,
	COALESCE(drug_allergies, JSON_ARRAY()) AS drug_allergies,
	COALESCE(adverse_reactions, JSON_ARRAY()) AS adverse_reactions,
	COALESCE(infection_control, JSON_ARRAY()) AS infection_control,
	COALESCE(DATE_FORMAT(admission_date,'%Y-%m-%d'),'') AS admission_date, care_level, residency_status,
	COALESCE(station_id,'') AS station_id, COALESCE(bed_id,'') AS bed_id`

const bedColumns = "id, station_id, bed_number, bed_name, is_occupied, qr_code_id, created_at, updated_at"

// DirectoryRepo reads residents, stations, beds and the assessments attached
// to residents.  The directory is maintained by the web back office; this
// service only reads it.
type DirectoryRepo struct {
	db *sqlx.DB
}

func NewDirectoryRepo(db *sqlx.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

// ActivePatients returns residents currently living in the home, ordered by
// bed number.
func (r *DirectoryRepo) ActivePatients(ctx context.Context) ([]model.Patient, error) {
	out := []model.Patient{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+patientColumns+" FROM patients WHERE residency_status = ? ORDER BY bed_number", model.ResidencyActive)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (r *DirectoryRepo) Stations(ctx context.Context) ([]model.Station, error) {
	out := []model.Station{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT id, name, description, created_at, updated_at FROM stations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return out, nil
}

func (r *DirectoryRepo) Beds(ctx context.Context) ([]model.Bed, error) {
	out := []model.Bed{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+bedColumns+" FROM beds ORDER BY bed_number"); err != nil {
		return nil, fmt.Errorf("list beds: %w", err)
	}
	return out, nil
}

// BedByQRCode resolves a scanned bed label.
func (r *DirectoryRepo) BedByQRCode(ctx context.Context, qr string) (*model.Bed, error) {
	var b model.Bed
	if err := r.db.GetContext(ctx, &b, "SELECT "+bedColumns+" FROM beds WHERE qr_code_id = ?", qr); err != nil {
		return nil, mapReadErr(err)
	}
	return &b, nil
}

// PatientInBed returns the active resident assigned to bedID.
func (r *DirectoryRepo) PatientInBed(ctx context.Context, bedID string) (*model.Patient, error) {
	var p model.Patient
	err := r.db.GetContext(ctx, &p,
		"SELECT "+patientColumns+" FROM patients WHERE bed_id = ? AND residency_status = ? LIMIT 1",
		bedID, model.ResidencyActive)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &p, nil
}

// CareTabs returns the visible care tabs of a resident ordered by tab type.
func (r *DirectoryRepo) CareTabs(ctx context.Context, patientID int64) ([]model.PatientCareTab, error) {
	out := []model.PatientCareTab{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, patient_id, tab_type, is_manually_added, is_hidden,
		last_activated_at, created_at, updated_at
		FROM patient_care_tabs WHERE patient_id = ? AND is_hidden = 0 ORDER BY tab_type`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list care tabs: %w", err)
	}
	return out, nil
}

func (r *DirectoryRepo) HealthAssessments(ctx context.Context) ([]model.HealthAssessment, error) {
	out := []model.HealthAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, patient_id,
		DATE_FORMAT(assessment_date,'%Y-%m-%d') AS assessment_date,
		COALESCE(DATE_FORMAT(next_due_date,'%Y-%m-%d'),'') AS next_due_date,
		COALESCE(daily_activities, 'null') AS daily_activities
		FROM health_assessments ORDER BY assessment_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list health assessments: %w", err)
	}
	return out, nil
}

func (r *DirectoryRepo) RestraintAssessments(ctx context.Context) ([]model.PatientRestraintAssessment, error) {
	out := []model.PatientRestraintAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, patient_id,
		COALESCE(DATE_FORMAT(doctor_signature_date,'%Y-%m-%d'),'') AS doctor_signature_date,
		COALESCE(DATE_FORMAT(next_due_date,'%Y-%m-%d'),'') AS next_due_date,
		COALESCE(risk_factors, 'null') AS risk_factors,
		COALESCE(alternatives, 'null') AS alternatives,
		COALESCE(suggested_restraints, 'null') AS suggested_restraints,
		other_restraint_notes, created_at, updated_at
		FROM patient_restraint_assessments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list restraint assessments: %w", err)
	}
	return out, nil
}

const admissionColumns = `id, patient_id, event_type, DATE_FORMAT(event_date,'%Y-%m-%d') AS event_date,
	COALESCE(TIME_FORMAT(event_time,'%H:%i'),'') AS event_time, hospital_name, remarks, created_at, updated_at`

// AdmissionRecords returns every hospital event, newest first.
func (r *DirectoryRepo) AdmissionRecords(ctx context.Context) ([]model.PatientAdmissionRecord, error) {
	out := []model.PatientAdmissionRecord{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+admissionColumns+" FROM patient_admission_records ORDER BY event_date DESC, event_time DESC")
	if err != nil {
		return nil, fmt.Errorf("list admission records: %w", err)
	}
	return out, nil
}

// AdmissionRecordsFor returns the hospital events of one resident.
func (r *DirectoryRepo) AdmissionRecordsFor(ctx context.Context, patientID int64) ([]model.PatientAdmissionRecord, error) {
	out := []model.PatientAdmissionRecord{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+admissionColumns+" FROM patient_admission_records WHERE patient_id = ? ORDER BY event_date, event_time",
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list admission records: %w", err)
	}
	return out, nil
}
