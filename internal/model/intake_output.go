package model

import "time"

// Intake categories and units.
const (
	IntakeMeal        = "meal"
	IntakeBeverage    = "beverage"
	IntakeOther       = "other"
	IntakeTubeFeeding = "tube_feeding"

	UnitPortion = "portion"
	UnitML      = "ml"
	UnitPiece   = "piece"
)

// Output categories.
const (
	OutputUrine   = "urine"
	OutputGastric = "gastric"
)

// IntakeItem is one line of what a resident took in during an hour slot.
// Amount is the display string ("1/2", "200ml", "3塊"); AmountNumeric is what
// totals are computed from.
type IntakeItem struct {
	ID            string    `db:"id" json:"id"`
	RecordID      string    `db:"record_id" json:"record_id"`
	Category      string    `db:"category" json:"category" validate:"required,oneof=meal beverage other tube_feeding"`
	ItemType      string    `db:"item_type" json:"item_type" validate:"required,max=50"`
	Amount        string    `db:"amount" json:"amount" validate:"required,max=20"`
	AmountNumeric float64   `db:"amount_numeric" json:"amount_numeric" validate:"gte=0"`
	Unit          string    `db:"unit" json:"unit" validate:"required,oneof=portion ml piece"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// OutputItem is one measured output.  PHValue is only recorded for gastric
// aspirate.
type OutputItem struct {
	ID        string    `db:"id" json:"id"`
	RecordID  string    `db:"record_id" json:"record_id"`
	Category  string    `db:"category" json:"category" validate:"required,oneof=urine gastric"`
	Color     string    `db:"color" json:"color,omitempty" validate:"max=20"`
	PHValue   *float64  `db:"ph_value" json:"ph_value,omitempty" validate:"omitempty,gte=0,lte=14"`
	AmountML  float64   `db:"amount_ml" json:"amount_ml" validate:"gte=0"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IntakeOutputRecord is the per-resident, per-hour header row.  Items are
// only populated by the read paths that join them in.
type IntakeOutputRecord struct {
	ID          string       `db:"id" json:"id"`
	PatientID   int64        `db:"patient_id" json:"patient_id" validate:"required,gt=0"`
	RecordDate  string       `db:"record_date" json:"record_date" validate:"required,date"`
	HourSlot    int          `db:"hour_slot" json:"hour_slot" validate:"gte=0,lte=23"`
	TimeSlot    string       `db:"time_slot" json:"time_slot" validate:"required,clock"`
	Recorder    string       `db:"recorder" json:"recorder" validate:"max=100"`
	Notes       *string      `db:"notes" json:"notes"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	IntakeItems []IntakeItem `db:"-" json:"intake_items,omitempty"`
	OutputItems []OutputItem `db:"-" json:"output_items,omitempty"`
}

// IntakeOutputPatch carries the mutable header fields of a partial update.
// Nil fields are left untouched.
type IntakeOutputPatch struct {
	RecordDate *string `db:"record_date" json:"record_date" validate:"omitempty,date"`
	HourSlot   *int    `db:"hour_slot" json:"hour_slot" validate:"omitempty,gte=0,lte=23"`
	TimeSlot   *string `db:"time_slot" json:"time_slot" validate:"omitempty,clock"`
	Recorder   *string `db:"recorder" json:"recorder" validate:"omitempty,max=100"`
	Notes      *string `db:"notes" json:"notes"`
}

// Empty reports whether the patch changes nothing.
func (p IntakeOutputPatch) Empty() bool {
	return p.RecordDate == nil && p.HourSlot == nil && p.TimeSlot == nil && p.Recorder == nil && p.Notes == nil
}

func (r *IntakeOutputRecord) Kind() string { return KindIntakeOutput }
func (r *IntakeOutputRecord) RecordID() string { return r.ID }
func (r *IntakeOutputRecord) SetRecordID(id string) { r.ID = id }
func (r *IntakeOutputRecord) Patient() int64 { return r.PatientID }
func (r *IntakeOutputRecord) RecordedBy() string { return r.Recorder }
func (r *IntakeOutputRecord) SetRecordedBy(n string) { r.Recorder = n }
