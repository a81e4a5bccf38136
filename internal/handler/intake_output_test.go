package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/queue"
	"github.com/iliyamo/care-records/internal/repository"
)

type memIntakeOutput struct {
	mu     sync.Mutex
	seq    int
	recs   map[string]*model.IntakeOutputRecord
	filter repository.IntakeOutputFilter
}

func newMemIntakeOutput() *memIntakeOutput {
	return &memIntakeOutput{recs: map[string]*model.IntakeOutputRecord{}}
}

func (m *memIntakeOutput) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memIntakeOutput) ListRecords(_ context.Context, f repository.IntakeOutputFilter) ([]model.IntakeOutputRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
	out := []model.IntakeOutputRecord{}
	for _, r := range m.recs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memIntakeOutput) GetRecord(_ context.Context, id string) (*model.IntakeOutputRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memIntakeOutput) CreateRecord(_ context.Context, rec *model.IntakeOutputRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID("io")
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *memIntakeOutput) PatchRecord(_ context.Context, id string, p model.IntakeOutputPatch) (*model.IntakeOutputRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.RecordDate != nil {
		r.RecordDate = *p.RecordDate
	}
	if p.HourSlot != nil {
		r.HourSlot = *p.HourSlot
	}
	if p.TimeSlot != nil {
		r.TimeSlot = *p.TimeSlot
	}
	if p.Recorder != nil {
		r.Recorder = *p.Recorder
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
	cp := *r
	return &cp, nil
}

func (m *memIntakeOutput) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memIntakeOutput) AddIntakeItems(_ context.Context, recordID string, items []model.IntakeItem) ([]model.IntakeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[recordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := []model.IntakeItem{}
	for _, it := range items {
		it.ID, it.RecordID = m.nextID("in"), recordID
		r.IntakeItems = append(r.IntakeItems, it)
		out = append(out, it)
	}
	return out, nil
}

func (m *memIntakeOutput) ListIntakeItems(_ context.Context, recordID string) ([]model.IntakeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[recordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]model.IntakeItem{}, r.IntakeItems...), nil
}

func (m *memIntakeOutput) DeleteIntakeItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		for i, it := range r.IntakeItems {
			if it.ID == itemID {
				r.IntakeItems = append(r.IntakeItems[:i], r.IntakeItems[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (m *memIntakeOutput) AddOutputItems(_ context.Context, recordID string, items []model.OutputItem) ([]model.OutputItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[recordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := []model.OutputItem{}
	for _, it := range items {
		it.ID, it.RecordID = m.nextID("out"), recordID
		r.OutputItems = append(r.OutputItems, it)
		out = append(out, it)
	}
	return out, nil
}

func (m *memIntakeOutput) ListOutputItems(_ context.Context, recordID string) ([]model.OutputItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[recordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]model.OutputItem{}, r.OutputItems...), nil
}

func (m *memIntakeOutput) DeleteOutputItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		for i, it := range r.OutputItems {
			if it.ID == itemID {
				r.OutputItems = append(r.OutputItems[:i], r.OutputItems[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func newIntakeOutputEcho(store IntakeOutputStore, pub EventPublisher) *echo.Echo {
	h := NewIntakeOutputHandler(store, pub, nil)
	e := newTestEcho()
	g := e.Group("/api", asUser(7, "nurse01", model.RoleStaff))
	g.GET("/intake-output-records", h.List)
	g.POST("/intake-output-records", h.Create)
	g.GET("/intake-output-records/:id", h.Get)
	g.PATCH("/intake-output-records/:id", h.Patch)
	g.DELETE("/intake-output-records/:id", h.Delete)
	g.GET("/intake-output-records/:id/summary", h.Summary)
	g.POST("/intake-output-records/:id/intake-items", h.AddIntakeItems)
	g.GET("/intake-output-records/:id/intake-items", h.ListIntakeItems)
	g.POST("/intake-output-records/:id/output-items", h.AddOutputItems)
	g.GET("/intake-output-records/:id/output-items", h.ListOutputItems)
	g.DELETE("/intake-items/:itemId", h.DeleteIntakeItem)
	g.DELETE("/output-items/:itemId", h.DeleteOutputItem)
	return e
}

func TestIntakeOutputRecordFlow(t *testing.T) {
	store := newMemIntakeOutput()
	pub := &fakePublisher{}
	e := newIntakeOutputEcho(store, pub)

	rec := doJSON(e, http.MethodPost, "/api/intake-output-records",
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":8,"time_slot":"8:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.IntakeOutputRecord](t, rec)
	assert.Equal(t, "nurse01", created.Recorder)
	assert.Equal(t, "08:00", created.TimeSlot)
	assert.Equal(t, model.KindIntakeOutput, pub.last().Kind)
	id := created.ID

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+"/intake-items",
		`{"category":"meal","item_type":"早餐","amount":"1/2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meal := decode[[]model.IntakeItem](t, rec)
	require.Len(t, meal, 1)
	assert.Equal(t, 0.5, meal[0].AmountNumeric)
	assert.Equal(t, model.UnitPortion, meal[0].Unit)

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+"/intake-items",
		`{"category":"meal","item_type":"午餐","amount_numeric":0.75}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lunch := decode[[]model.IntakeItem](t, rec)
	require.Len(t, lunch, 1)
	assert.Equal(t, "3/4", lunch[0].Amount)

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+"/intake-items",
		`[{"category":"beverage","item_type":"水","amount":"200ml","amount_numeric":200,"unit":"ml"},
		  {"category":"other","item_type":"餅乾","amount":"3塊","amount_numeric":3,"unit":"piece"}]`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.IntakeItem](t, rec), 2)

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+"/intake-items", `[]`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+"/output-items",
		`{"category":"urine","amount_ml":150}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/api/intake-output-records/"+id+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[IntakeOutputSummary](t, rec)
	assert.Equal(t, "1.25份餐 + 200ml飲料 + 3塊餅乾", sum.Intake)
	assert.Equal(t, "150ml", sum.Output)
	assert.Equal(t, 150.0, sum.OutputTotal)
	assert.Equal(t, 200.0, sum.IntakeStats.Beverages)

	rec = doJSON(e, http.MethodGet, "/api/intake-output-records/"+id+"/intake-items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]model.IntakeItem](t, rec)
	require.Len(t, items, 4)

	rec = doJSON(e, http.MethodDelete, "/api/intake-items/"+items[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(e, http.MethodDelete, "/api/intake-items/"+items[0].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/intake-output-records/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, queue.ActionDeleted, pub.last().Action)
	rec = doJSON(e, http.MethodGet, "/api/intake-output-records/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntakeOutputPatch(t *testing.T) {
	store := newMemIntakeOutput()
	pub := &fakePublisher{}
	e := newIntakeOutputEcho(store, pub)
	rec := doJSON(e, http.MethodPost, "/api/intake-output-records",
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":8,"time_slot":"08:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.IntakeOutputRecord](t, rec).ID

	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, `{"notes":"拒食","hour_slot":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[model.IntakeOutputRecord](t, rec)
	assert.Equal(t, 9, patched.HourSlot)
	assert.Equal(t, "09:00", patched.TimeSlot)
	require.NotNil(t, patched.Notes)
	assert.Equal(t, "拒食", *patched.Notes)
	assert.Equal(t, "2024-05-06", patched.RecordDate)
	assert.Equal(t, queue.ActionUpdated, pub.last().Action)

	before := len(pub.events)
	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.events, before)

	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, `{"hour_slot":24}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, `{"record_date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/nope", `{"hour_slot":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, `{"time_slot":"2:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched = decode[model.IntakeOutputRecord](t, rec)
	assert.Equal(t, 2, patched.HourSlot)
	assert.Equal(t, "02:00", patched.TimeSlot)

	for _, body := range []string{`{"time_slot":"09:30"}`, `{"time_slot":"10:00","hour_slot":11}`} {
		rec = doJSON(e, http.MethodPatch, "/api/intake-output-records/"+id, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"`+errSlotMismatch+`"}`, rec.Body.String(), body)
	}
}

func TestIntakeOutputCreateSlot(t *testing.T) {
	e := newIntakeOutputEcho(newMemIntakeOutput(), nil)

	for _, body := range []string{
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":9,"time_slot":"08:00"}`,
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":8,"time_slot":"08:15"}`,
	} {
		rec := doJSON(e, http.MethodPost, "/api/intake-output-records", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"`+errSlotMismatch+`"}`, rec.Body.String(), body)
	}

	rec := doJSON(e, http.MethodPost, "/api/intake-output-records",
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":0,"time_slot":"00:00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestIntakeOutputItemValidation(t *testing.T) {
	store := newMemIntakeOutput()
	e := newIntakeOutputEcho(store, nil)
	rec := doJSON(e, http.MethodPost, "/api/intake-output-records",
		`{"patient_id":5,"record_date":"2024-05-06","hour_slot":8,"time_slot":"08:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.IntakeOutputRecord](t, rec).ID

	tests := []struct {
		name, path, body string
		code             int
	}{
		{"ph on urine", "/output-items", `{"category":"urine","amount_ml":100,"ph_value":5.5}`, http.StatusBadRequest},
		{"ph on gastric", "/output-items", `{"category":"gastric","amount_ml":20,"ph_value":5.5}`, http.StatusCreated},
		{"negative output", "/output-items", `{"category":"urine","amount_ml":-1}`, http.StatusBadRequest},
		{"unknown output category", "/output-items", `{"category":"blood","amount_ml":1}`, http.StatusBadRequest},
		{"unknown intake category", "/intake-items", `{"category":"snack","item_type":"x","amount":"1","unit":"piece"}`, http.StatusBadRequest},
		{"bad unit", "/intake-items", `{"category":"beverage","item_type":"水","amount":"1","unit":"cup"}`, http.StatusBadRequest},
		{"not json", "/intake-items", `"meal"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/intake-output-records/"+id+tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	rec = doJSON(e, http.MethodPost, "/api/intake-output-records/missing/output-items", `{"category":"urine","amount_ml":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntakeOutputListFilters(t *testing.T) {
	store := newMemIntakeOutput()
	e := newIntakeOutputEcho(store, nil)

	rec := doJSON(e, http.MethodGet, "/api/intake-output-records?patient_id=5&start=2024-05-01&end=2024-05-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, repository.IntakeOutputFilter{PatientID: 5, Start: "2024-05-01", End: "2024-05-07"}, store.filter)

	for _, q := range []string{"?patient_id=x", "?start=2024-05-09&end=2024-05-01", "?end=soon"} {
		rec = doJSON(e, http.MethodGet, "/api/intake-output-records"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
