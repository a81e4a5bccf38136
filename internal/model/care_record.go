package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Care record kinds, also used as event kinds on the message queue.
const (
	KindPatrolRound          = "patrol_round"
	KindDiaperChange         = "diaper_change"
	KindRestraintObservation = "restraint_observation"
	KindPositionChange       = "position_change"
	KindHygiene              = "hygiene"
	KindIntakeOutput         = "intake_output"
)

// CareRecord is implemented by every dated per-resident record that supports
// the list/create/update/delete cycle.  Methods use pointer receivers so a
// *PatrolRound can be bound from a request and handed to a store as is.
type CareRecord interface {
	Kind() string
	RecordID() string
	SetRecordID(id string)
	Patient() int64
	RecordedBy() string
	SetRecordedBy(name string)
}

// PatrolRound mirrors patrol_rounds.  PatrolTime is the actual time the round
// was done, ScheduledTime is one of the two-hourly slots.
type PatrolRound struct {
	ID            string    `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	PatrolDate    string    `db:"patrol_date" json:"patrol_date" validate:"required,date"`
	PatrolTime    string    `db:"patrol_time" json:"patrol_time" validate:"required,clock"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time" validate:"required,clock"`
	Recorder      string    `db:"recorder" json:"recorder" validate:"max=100"`
	Notes         string    `db:"notes" json:"notes,omitempty" validate:"max=500"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (r *PatrolRound) Kind() string { return KindPatrolRound }
func (r *PatrolRound) RecordID() string { return r.ID }
func (r *PatrolRound) SetRecordID(id string) { r.ID = id }
func (r *PatrolRound) Patient() int64 { return r.PatientID }
func (r *PatrolRound) RecordedBy() string { return r.Recorder }
func (r *PatrolRound) SetRecordedBy(n string) { r.Recorder = n }

// DiaperChangeRecord mirrors diaper_change_records.  Notes may carry a status
// note (入院/渡假/外出) when the resident was away for the slot.
type DiaperChangeRecord struct {
	ID           string    `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	ChangeDate   string    `db:"change_date" json:"change_date" validate:"required,date"`
	TimeSlot     string    `db:"time_slot" json:"time_slot" validate:"required,diaperslot"`
	HasUrine     bool      `db:"has_urine" json:"has_urine"`
	HasStool     bool      `db:"has_stool" json:"has_stool"`
	HasNone      bool      `db:"has_none" json:"has_none"`
	UrineAmount  string    `db:"urine_amount" json:"urine_amount,omitempty" validate:"omitempty,oneof=多 中 少"`
	StoolColor   string    `db:"stool_color" json:"stool_color,omitempty" validate:"max=20"`
	StoolTexture string    `db:"stool_texture" json:"stool_texture,omitempty" validate:"omitempty,oneof=硬 軟 稀"`
	StoolAmount  string    `db:"stool_amount" json:"stool_amount,omitempty" validate:"omitempty,oneof=多 中 少"`
	Notes        string    `db:"notes" json:"notes,omitempty" validate:"max=500"`
	Recorder     string    `db:"recorder" json:"recorder" validate:"max=100"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (r *DiaperChangeRecord) Kind() string { return KindDiaperChange }
func (r *DiaperChangeRecord) RecordID() string { return r.ID }
func (r *DiaperChangeRecord) SetRecordID(id string) { r.ID = id }
func (r *DiaperChangeRecord) Patient() int64 { return r.PatientID }
func (r *DiaperChangeRecord) RecordedBy() string { return r.Recorder }
func (r *DiaperChangeRecord) SetRecordedBy(n string) { r.Recorder = n }

// Restraint observation statuses.
const (
	ObservationNormal    = "N"
	ObservationAbnormal  = "P"
	ObservationSuspended = "S"
)

// RestraintObservationRecord mirrors restraint_observation_records.
// UsedRestraints is free-form JSON supplied by the client.
type RestraintObservationRecord struct {
	ID                string         `db:"id" json:"id"`
	PatientID         int64          `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	ObservationDate   string         `db:"observation_date" json:"observation_date" validate:"required,date"`
	ObservationTime   string         `db:"observation_time" json:"observation_time" validate:"required,clock"`
	ScheduledTime     string         `db:"scheduled_time" json:"scheduled_time" validate:"required,clock"`
	ObservationStatus string         `db:"observation_status" json:"observation_status" validate:"required,oneof=N P S"`
	Recorder          string         `db:"recorder" json:"recorder" validate:"max=100"`
	Notes             string         `db:"notes" json:"notes,omitempty" validate:"max=500"`
	UsedRestraints    types.JSONText `db:"used_restraints" json:"used_restraints,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
	StatusLabel       string         `db:"-" json:"observation_status_label,omitempty"`
}

func (r *RestraintObservationRecord) Kind() string { return KindRestraintObservation }
func (r *RestraintObservationRecord) RecordID() string { return r.ID }
func (r *RestraintObservationRecord) SetRecordID(id string) { r.ID = id }
func (r *RestraintObservationRecord) Patient() int64 { return r.PatientID }
func (r *RestraintObservationRecord) RecordedBy() string { return r.Recorder }
func (r *RestraintObservationRecord) SetRecordedBy(n string) { r.Recorder = n }

// Lying positions, rotated through on every turning slot.
const (
	PositionLeft  = "左"
	PositionFlat  = "平"
	PositionRight = "右"
)

// PositionChangeRecord mirrors position_change_records.
type PositionChangeRecord struct {
	ID            string    `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	ChangeDate    string    `db:"change_date" json:"change_date" validate:"required,date"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time" validate:"required,clock"`
	Position      string    `db:"position" json:"position" validate:"required,oneof=左 平 右"`
	Notes         string    `db:"notes" json:"notes,omitempty" validate:"max=500"`
	Recorder      string    `db:"recorder" json:"recorder" validate:"max=100"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (r *PositionChangeRecord) Kind() string { return KindPositionChange }
func (r *PositionChangeRecord) RecordID() string { return r.ID }
func (r *PositionChangeRecord) SetRecordID(id string) { r.ID = id }
func (r *PositionChangeRecord) Patient() int64 { return r.PatientID }
func (r *PositionChangeRecord) RecordedBy() string { return r.Recorder }
func (r *PositionChangeRecord) SetRecordedBy(n string) { r.Recorder = n }

// HygieneSlot is the only time slot a hygiene record uses.
const HygieneSlot = "daily"

// HygieneRecord mirrors hygiene_records: one row per resident per day with
// the personal care checklist and the bowel summary.
type HygieneRecord struct {
	ID                   string    `db:"id" json:"id"`
	PatientID            int64     `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	RecordDate           string    `db:"record_date" json:"record_date" validate:"required,date"`
	TimeSlot             string    `db:"time_slot" json:"time_slot"`
	HasBath              bool      `db:"has_bath" json:"has_bath"`
	HasFaceWash          bool      `db:"has_face_wash" json:"has_face_wash"`
	HasShave             bool      `db:"has_shave" json:"has_shave"`
	HasOralCare          bool      `db:"has_oral_care" json:"has_oral_care"`
	HasDentureCare       bool      `db:"has_denture_care" json:"has_denture_care"`
	HasNailTrim          bool      `db:"has_nail_trim" json:"has_nail_trim"`
	HasBeddingChange     bool      `db:"has_bedding_change" json:"has_bedding_change"`
	HasSheetPillowChange bool      `db:"has_sheet_pillow_change" json:"has_sheet_pillow_change"`
	HasCupWash           bool      `db:"has_cup_wash" json:"has_cup_wash"`
	HasBedsideCabinet    bool      `db:"has_bedside_cabinet" json:"has_bedside_cabinet"`
	HasWardrobe          bool      `db:"has_wardrobe" json:"has_wardrobe"`
	BowelCount           *int      `db:"bowel_count" json:"bowel_count" validate:"omitempty,gte=0"`
	BowelAmount          *string   `db:"bowel_amount" json:"bowel_amount"`
	BowelConsistency     *string   `db:"bowel_consistency" json:"bowel_consistency"`
	BowelMedication      *string   `db:"bowel_medication" json:"bowel_medication"`
	StatusNotes          string    `db:"status_notes" json:"status_notes,omitempty" validate:"max=500"`
	Notes                string    `db:"notes" json:"notes,omitempty" validate:"max=500"`
	Recorder             string    `db:"recorder" json:"recorder" validate:"max=100"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

func (r *HygieneRecord) Kind() string { return KindHygiene }
func (r *HygieneRecord) RecordID() string { return r.ID }
func (r *HygieneRecord) SetRecordID(id string) { r.ID = id }
func (r *HygieneRecord) Patient() int64 { return r.PatientID }
func (r *HygieneRecord) RecordedBy() string { return r.Recorder }
func (r *HygieneRecord) SetRecordedBy(n string) { r.Recorder = n }
