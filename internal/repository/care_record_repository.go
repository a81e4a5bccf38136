package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/care-records/internal/model"
)

// recordTable maps one care record kind onto its table.  columns is the
// SELECT list (dates and times formatted as the API exposes them); writable
// names the columns bound by INSERT and UPDATE.
type recordTable struct {
	name     string
	dateCol  string
	timeCol  string
	columns  []string
	writable []string
}

func fmtDate(c string) string { return fmt.Sprintf("DATE_FORMAT(%s,'%%Y-%%m-%%d') AS %s", c, c) }

func fmtTime(c string) string { return fmt.Sprintf("TIME_FORMAT(%s,'%%H:%%i') AS %s", c, c) }

var (
	patrolRoundsTable = recordTable{
		name:    "patrol_rounds",
		dateCol: "patrol_date",
		timeCol: "scheduled_time",
		columns: []string{"id", "patient_id", fmtDate("patrol_date"), fmtTime("patrol_time"),
			fmtTime("scheduled_time"), "recorder", "notes", "created_at", "updated_at"},
		writable: []string{"patient_id", "patrol_date", "patrol_time", "scheduled_time", "recorder", "notes"},
	}
	diaperChangesTable = recordTable{
		name:    "diaper_change_records",
		dateCol: "change_date",
		timeCol: "time_slot",
		columns: []string{"id", "patient_id", fmtDate("change_date"), "time_slot", "has_urine", "has_stool",
			"has_none", "urine_amount", "stool_color", "stool_texture", "stool_amount", "notes", "recorder",
			"created_at", "updated_at"},
		writable: []string{"patient_id", "change_date", "time_slot", "has_urine", "has_stool", "has_none",
			"urine_amount", "stool_color", "stool_texture", "stool_amount", "notes", "recorder"},
	}
	restraintObservationsTable = recordTable{
		name:    "restraint_observation_records",
		dateCol: "observation_date",
		timeCol: "scheduled_time",
		columns: []string{"id", "patient_id", fmtDate("observation_date"), fmtTime("observation_time"),
			fmtTime("scheduled_time"), "observation_status", "recorder", "notes",
			"COALESCE(used_restraints, 'null') AS used_restraints", "created_at", "updated_at"},
		writable: []string{"patient_id", "observation_date", "observation_time", "scheduled_time",
			"observation_status", "recorder", "notes", "used_restraints"},
	}
	positionChangesTable = recordTable{
		name:    "position_change_records",
		dateCol: "change_date",
		timeCol: "scheduled_time",
		columns: []string{"id", "patient_id", fmtDate("change_date"), fmtTime("scheduled_time"), "position",
			"notes", "recorder", "created_at", "updated_at"},
		writable: []string{"patient_id", "change_date", "scheduled_time", "position", "notes", "recorder"},
	}
	hygieneTable = recordTable{
		name:    "hygiene_records",
		dateCol: "record_date",
		timeCol: "time_slot",
		columns: []string{"id", "patient_id", fmtDate("record_date"), "time_slot", "has_bath", "has_face_wash",
			"has_shave", "has_oral_care", "has_denture_care", "has_nail_trim", "has_bedding_change",
			"has_sheet_pillow_change", "has_cup_wash", "has_bedside_cabinet", "has_wardrobe", "bowel_count",
			"bowel_amount", "bowel_consistency", "bowel_medication", "status_notes", "notes", "recorder",
			"created_at", "updated_at"},
		writable: []string{"patient_id", "record_date", "time_slot", "has_bath", "has_face_wash", "has_shave",
			"has_oral_care", "has_denture_care", "has_nail_trim", "has_bedding_change",
			"has_sheet_pillow_change", "has_cup_wash", "has_bedside_cabinet", "has_wardrobe", "bowel_count",
			"bowel_amount", "bowel_consistency", "bowel_medication", "status_notes", "notes", "recorder"},
	}
)

func (t recordTable) insertSQL() string {
	cols := append([]string{"id"}, t.writable...)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)", t.name, strings.Join(cols, ", "), strings.Join(cols, ", :"))
}

func (t recordTable) updateSQL() string {
	sets := make([]string, len(t.writable))
	for i, c := range t.writable {
		sets[i] = c + " = :" + c
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", t.name, strings.Join(sets, ", "))
}

// RecordStore persists one kind of dated care record.  PT is the pointer
// type implementing model.CareRecord.
type RecordStore[T any, PT interface {
	*T
	model.CareRecord
}] struct {
	db *sqlx.DB
	t  recordTable
}

func NewPatrolRoundRepo(db *sqlx.DB) *RecordStore[model.PatrolRound, *model.PatrolRound] {
	return &RecordStore[model.PatrolRound, *model.PatrolRound]{db: db, t: patrolRoundsTable}
}

func NewDiaperChangeRepo(db *sqlx.DB) *RecordStore[model.DiaperChangeRecord, *model.DiaperChangeRecord] {
	return &RecordStore[model.DiaperChangeRecord, *model.DiaperChangeRecord]{db: db, t: diaperChangesTable}
}

func NewRestraintObservationRepo(db *sqlx.DB) *RecordStore[model.RestraintObservationRecord, *model.RestraintObservationRecord] {
	return &RecordStore[model.RestraintObservationRecord, *model.RestraintObservationRecord]{db: db, t: restraintObservationsTable}
}

func NewPositionChangeRepo(db *sqlx.DB) *RecordStore[model.PositionChangeRecord, *model.PositionChangeRecord] {
	return &RecordStore[model.PositionChangeRecord, *model.PositionChangeRecord]{db: db, t: positionChangesTable}
}

func NewHygieneRepo(db *sqlx.DB) *RecordStore[model.HygieneRecord, *model.HygieneRecord] {
	return &RecordStore[model.HygieneRecord, *model.HygieneRecord]{db: db, t: hygieneTable}
}

// ListInRange returns the records dated within [start, end], newest date
// first and by time of day within a date.
func (s *RecordStore[T, PT]) ListInRange(ctx context.Context, start, end string) ([]T, error) {
	q, args, err := sq.Select(s.t.columns...).
		From(s.t.name).
		Where(sq.GtOrEq{s.t.dateCol: start}).
		Where(sq.LtOrEq{s.t.dateCol: end}).
		OrderBy(s.t.name+"."+s.t.dateCol+" DESC", s.t.name+"."+s.t.timeCol, "created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.t.name, err)
	}
	return out, nil
}

// Get returns one record or ErrNotFound.
func (s *RecordStore[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	q, args, err := sq.Select(s.t.columns...).From(s.t.name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var rec T
	if err := s.db.GetContext(ctx, &rec, q, args...); err != nil {
		return nil, mapReadErr(err)
	}
	return &rec, nil
}

// Create assigns a new id, inserts rec and refreshes it with the stored
// values (timestamps included).
func (s *RecordStore[T, PT]) Create(ctx context.Context, rec PT) error {
	rec.SetRecordID(uuid.NewString())
	if _, err := s.db.NamedExecContext(ctx, s.t.insertSQL(), rec); err != nil {
		return mapWriteErr(err)
	}
	stored, err := s.Get(ctx, rec.RecordID())
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

// Update overwrites the writable columns of the record with rec's id.
func (s *RecordStore[T, PT]) Update(ctx context.Context, rec PT) error {
	res, err := s.db.NamedExecContext(ctx, s.t.updateSQL(), rec)
	if err != nil {
		return mapWriteErr(err)
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	stored, err := s.Get(ctx, rec.RecordID())
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

func (s *RecordStore[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+s.t.name+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
