package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Residency states stored in patients.residency_status.
const (
	ResidencyActive     = "在住"
	ResidencyPending    = "待入住"
	ResidencyDischarged = "已退住"
)

// Patient represents a resident of the care home.  The JSON keys follow the
// column names the web and mobile clients already use, which are Chinese.
//
// Fields:
//  ID              – patients.id (院友id).
//  BedNumber       – human readable bed number used for ordering.
//  StationID/BedID – optional links into the facility directory.
type Patient struct {
	ID               int64          `db:"id" json:"院友id"`
	BedNumber        string         `db:"bed_number" json:"床號"`
	NameZh           string         `db:"name_zh" json:"中文姓名"`
	SurnameZh        string         `db:"surname_zh" json:"中文姓氏"`
	GivenNameZh      string         `db:"given_name_zh" json:"中文名字"`
	NameEn           string         `db:"name_en" json:"英文姓名,omitempty"`
	SurnameEn        string         `db:"surname_en" json:"英文姓氏,omitempty"`
	GivenNameEn      string         `db:"given_name_en" json:"英文名字,omitempty"`
	Gender           string         `db:"gender" json:"性別"`
	IDNumber         string         `db:"id_number" json:"身份證號碼"`
	BirthDate        string         `db:"birth_date" json:"出生日期,omitempty"`
	PhotoURL         string         `db:"photo_url" json:"院友相片,omitempty"`
	DrugAllergies    types.JSONText `db:"drug_allergies" json:"藥物敏感,omitempty"`
	AdverseReactions types.JSONText `db:"adverse_reactions" json:"不良藥物反應,omitempty"`
	InfectionControl types.JSONText `db:"infection_control" json:"感染控制,omitempty"`
	AdmissionDate    string         `db:"admission_date" json:"入住日期,omitempty"`
	CareLevel        string         `db:"care_level" json:"護理等級,omitempty"`
	ResidencyStatus  string         `db:"residency_status" json:"在住狀態,omitempty"`
	StationID        string         `db:"station_id" json:"station_id,omitempty"`
	BedID            string         `db:"bed_id" json:"bed_id,omitempty"`
}

// Station is a nursing station (ward) that groups beds.
type Station struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Bed is a physical bed.  QRCodeID is printed on the bed label and scanned by
// the mobile app to jump straight to the resident.
type Bed struct {
	ID         string    `db:"id" json:"id"`
	StationID  string    `db:"station_id" json:"station_id"`
	BedNumber  string    `db:"bed_number" json:"bed_number"`
	BedName    string    `db:"bed_name" json:"bed_name,omitempty"`
	IsOccupied bool      `db:"is_occupied" json:"is_occupied"`
	QRCodeID   string    `db:"qr_code_id" json:"qr_code_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Care tab types shown per resident in the mobile app.
const (
	TabPatrol         = "patrol"
	TabDiaper         = "diaper"
	TabIntakeOutput   = "intake_output"
	TabRestraint      = "restraint"
	TabPosition       = "position"
	TabToiletTraining = "toilet_training"
	TabHygiene        = "hygiene"
)

type PatientCareTab struct {
	ID              string     `db:"id" json:"id"`
	PatientID       int64      `db:"patient_id" json:"patient_id"`
	TabType         string     `db:"tab_type" json:"tab_type"`
	IsManuallyAdded bool       `db:"is_manually_added" json:"is_manually_added"`
	IsHidden        bool       `db:"is_hidden" json:"is_hidden"`
	LastActivatedAt *time.Time `db:"last_activated_at" json:"last_activated_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Admission event types.
const (
	EventHospitalAdmission = "hospital_admission"
	EventHospitalDischarge = "hospital_discharge"
	EventTransferOut       = "transfer_out"
)

// PatientAdmissionRecord records a hospital admission, discharge or transfer.
// EventTime is optional; the hospital-stay rule substitutes defaults.
type PatientAdmissionRecord struct {
	ID           string    `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	EventType    string    `db:"event_type" json:"event_type"`
	EventDate    string    `db:"event_date" json:"event_date"`
	EventTime    string    `db:"event_time" json:"event_time,omitempty"`
	HospitalName string    `db:"hospital_name" json:"hospital_name,omitempty"`
	Remarks      string    `db:"remarks" json:"remarks,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PatientRestraintAssessment keeps the assessment form payloads as raw JSON
// since their shape is owned by the web client.
type PatientRestraintAssessment struct {
	ID                  string         `db:"id" json:"id"`
	PatientID           int64          `db:"patient_id" json:"patient_id"`
	DoctorSignatureDate string         `db:"doctor_signature_date" json:"doctor_signature_date,omitempty"`
	NextDueDate         string         `db:"next_due_date" json:"next_due_date,omitempty"`
	RiskFactors         types.JSONText `db:"risk_factors" json:"risk_factors"`
	Alternatives        types.JSONText `db:"alternatives" json:"alternatives"`
	SuggestedRestraints types.JSONText `db:"suggested_restraints" json:"suggested_restraints"`
	OtherRestraintNotes string         `db:"other_restraint_notes" json:"other_restraint_notes,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

type HealthAssessment struct {
	ID              string         `db:"id" json:"id"`
	PatientID       int64          `db:"patient_id" json:"patient_id"`
	AssessmentDate  string         `db:"assessment_date" json:"assessment_date"`
	NextDueDate     string         `db:"next_due_date" json:"next_due_date,omitempty"`
	DailyActivities types.JSONText `db:"daily_activities" json:"daily_activities,omitempty"`
}
