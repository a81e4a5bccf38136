package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/care-records/internal/model"
)

var intakeOutputColumns = []string{"id", "patient_id", fmtDate("record_date"), "hour_slot", fmtTime("time_slot"),
	"recorder", "notes", "created_at", "updated_at"}

const (
	intakeItemColumns = "id, record_id, category, item_type, amount, amount_numeric, unit, created_at"
	outputItemColumns = "id, record_id, category, color, ph_value, amount_ml, created_at"
)

// IntakeOutputFilter narrows ListRecords.  Zero values mean no filter.
type IntakeOutputFilter struct {
	PatientID int64
	Start     string
	End       string
}

// IntakeOutputRepo stores hourly intake/output headers and their items.
// Items are removed with their header by the foreign key cascade.
type IntakeOutputRepo struct {
	db *sqlx.DB
}

func NewIntakeOutputRepo(db *sqlx.DB) *IntakeOutputRepo { return &IntakeOutputRepo{db: db} }

// ListRecords returns the matching records with their items, newest date
// first and by time slot within a date.
func (r *IntakeOutputRepo) ListRecords(ctx context.Context, f IntakeOutputFilter) ([]model.IntakeOutputRecord, error) {
	b := sq.Select(intakeOutputColumns...).From("intake_output_records")
	if f.PatientID > 0 {
		b = b.Where(sq.Eq{"patient_id": f.PatientID})
	}
	if f.Start != "" {
		b = b.Where(sq.GtOrEq{"intake_output_records.record_date": f.Start})
	}
	if f.End != "" {
		b = b.Where(sq.LtOrEq{"intake_output_records.record_date": f.End})
	}
	q, args, err := b.OrderBy("intake_output_records.record_date DESC", "intake_output_records.time_slot").ToSql()
	if err != nil {
		return nil, err
	}
	recs := []model.IntakeOutputRecord{}
	if err := r.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, fmt.Errorf("list intake/output records: %w", err)
	}
	if err := r.attachItems(ctx, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// attachItems loads the items of recs with one query per item table.
func (r *IntakeOutputRepo) attachItems(ctx context.Context, recs []model.IntakeOutputRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, len(recs))
	idx := make(map[string]int, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
		idx[rec.ID] = i
		recs[i].IntakeItems = []model.IntakeItem{}
		recs[i].OutputItems = []model.OutputItem{}
	}

	q, args, err := sqlx.In("SELECT "+intakeItemColumns+" FROM intake_items WHERE record_id IN (?) ORDER BY created_at", ids)
	if err != nil {
		return err
	}
	var intake []model.IntakeItem
	if err := r.db.SelectContext(ctx, &intake, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("list intake items: %w", err)
	}
	for _, it := range intake {
		i := idx[it.RecordID]
		recs[i].IntakeItems = append(recs[i].IntakeItems, it)
	}

	q, args, err = sqlx.In("SELECT "+outputItemColumns+" FROM output_items WHERE record_id IN (?) ORDER BY created_at", ids)
	if err != nil {
		return err
	}
	var output []model.OutputItem
	if err := r.db.SelectContext(ctx, &output, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("list output items: %w", err)
	}
	for _, it := range output {
		i := idx[it.RecordID]
		recs[i].OutputItems = append(recs[i].OutputItems, it)
	}
	return nil
}

func (r *IntakeOutputRepo) getHeader(ctx context.Context, id string) (*model.IntakeOutputRecord, error) {
	q, args, err := sq.Select(intakeOutputColumns...).From("intake_output_records").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var rec model.IntakeOutputRecord
	if err := r.db.GetContext(ctx, &rec, q, args...); err != nil {
		return nil, mapReadErr(err)
	}
	return &rec, nil
}

// GetRecord returns one record with its items or ErrNotFound.
func (r *IntakeOutputRepo) GetRecord(ctx context.Context, id string) (*model.IntakeOutputRecord, error) {
	rec, err := r.getHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	recs := []model.IntakeOutputRecord{*rec}
	if err := r.attachItems(ctx, recs); err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// CreateRecord inserts the header of rec.  Items on rec are ignored; they
// are added through AddIntakeItems and AddOutputItems.
func (r *IntakeOutputRepo) CreateRecord(ctx context.Context, rec *model.IntakeOutputRecord) error {
	rec.ID = uuid.NewString()
	const q = `INSERT INTO intake_output_records (id, patient_id, record_date, hour_slot, time_slot, recorder, notes)
	           VALUES (:id, :patient_id, :record_date, :hour_slot, :time_slot, :recorder, :notes)`
	if _, err := r.db.NamedExecContext(ctx, q, rec); err != nil {
		return mapWriteErr(err)
	}
	stored, err := r.GetRecord(ctx, rec.ID)
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

// PatchRecord applies the non-nil fields of p and returns the updated record.
func (r *IntakeOutputRepo) PatchRecord(ctx context.Context, id string, p model.IntakeOutputPatch) (*model.IntakeOutputRecord, error) {
	if p.Empty() {
		return r.GetRecord(ctx, id)
	}
	set := map[string]interface{}{}
	if p.RecordDate != nil {
		set["record_date"] = *p.RecordDate
	}
	if p.HourSlot != nil {
		set["hour_slot"] = *p.HourSlot
	}
	if p.TimeSlot != nil {
		set["time_slot"] = *p.TimeSlot
	}
	if p.Recorder != nil {
		set["recorder"] = *p.Recorder
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	q, args, err := sq.Update("intake_output_records").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	if err := affectedOne(res); err != nil {
		return nil, err
	}
	return r.GetRecord(ctx, id)
}

func (r *IntakeOutputRepo) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM intake_output_records WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// AddIntakeItems inserts items under recordID in one transaction.  A missing
// record yields ErrNotFound.
func (r *IntakeOutputRepo) AddIntakeItems(ctx context.Context, recordID string, items []model.IntakeItem) ([]model.IntakeItem, error) {
	if _, err := r.getHeader(ctx, recordID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []model.IntakeItem{}, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, len(items))
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].RecordID = recordID
		ids[i] = items[i].ID
	}
	const q = `INSERT INTO intake_items (id, record_id, category, item_type, amount, amount_numeric, unit)
	           VALUES (:id, :record_id, :category, :item_type, :amount, :amount_numeric, :unit)`
	if _, err := tx.NamedExecContext(ctx, q, items); err != nil {
		return nil, mapWriteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.intakeItemsByID(ctx, ids)
}

func (r *IntakeOutputRepo) intakeItemsByID(ctx context.Context, ids []string) ([]model.IntakeItem, error) {
	q, args, err := sqlx.In("SELECT "+intakeItemColumns+" FROM intake_items WHERE id IN (?) ORDER BY created_at", ids)
	if err != nil {
		return nil, err
	}
	out := []model.IntakeItem{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIntakeItems returns the intake items of a record; ErrNotFound when the
// record does not exist.
func (r *IntakeOutputRepo) ListIntakeItems(ctx context.Context, recordID string) ([]model.IntakeItem, error) {
	if _, err := r.getHeader(ctx, recordID); err != nil {
		return nil, err
	}
	out := []model.IntakeItem{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+intakeItemColumns+" FROM intake_items WHERE record_id = ? ORDER BY created_at", recordID)
	return out, err
}

func (r *IntakeOutputRepo) DeleteIntakeItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM intake_items WHERE id = ?", itemID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// AddOutputItems mirrors AddIntakeItems for output items.
func (r *IntakeOutputRepo) AddOutputItems(ctx context.Context, recordID string, items []model.OutputItem) ([]model.OutputItem, error) {
	if _, err := r.getHeader(ctx, recordID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []model.OutputItem{}, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, len(items))
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].RecordID = recordID
		ids[i] = items[i].ID
	}
	const q = `INSERT INTO output_items (id, record_id, category, color, ph_value, amount_ml)
	           VALUES (:id, :record_id, :category, :color, :ph_value, :amount_ml)`
	if _, err := tx.NamedExecContext(ctx, q, items); err != nil {
		return nil, mapWriteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	q2, args, err := sqlx.In("SELECT "+outputItemColumns+" FROM output_items WHERE id IN (?) ORDER BY created_at", ids)
	if err != nil {
		return nil, err
	}
	out := []model.OutputItem{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q2), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IntakeOutputRepo) ListOutputItems(ctx context.Context, recordID string) ([]model.OutputItem, error) {
	if _, err := r.getHeader(ctx, recordID); err != nil {
		return nil, err
	}
	out := []model.OutputItem{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+outputItemColumns+" FROM output_items WHERE record_id = ? ORDER BY created_at", recordID)
	return out, err
}

func (r *IntakeOutputRepo) DeleteOutputItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM output_items WHERE id = ?", itemID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
