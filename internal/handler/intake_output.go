package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/care-records/internal/care"
	"github.com/iliyamo/care-records/internal/middleware"
	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/queue"
	"github.com/iliyamo/care-records/internal/repository"
)

// IntakeOutputStore is the storage used by IntakeOutputHandler.
type IntakeOutputStore interface {
	ListRecords(ctx context.Context, f repository.IntakeOutputFilter) ([]model.IntakeOutputRecord, error)
	GetRecord(ctx context.Context, id string) (*model.IntakeOutputRecord, error)
	CreateRecord(ctx context.Context, rec *model.IntakeOutputRecord) error
	PatchRecord(ctx context.Context, id string, p model.IntakeOutputPatch) (*model.IntakeOutputRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	AddIntakeItems(ctx context.Context, recordID string, items []model.IntakeItem) ([]model.IntakeItem, error)
	ListIntakeItems(ctx context.Context, recordID string) ([]model.IntakeItem, error)
	DeleteIntakeItem(ctx context.Context, itemID string) error
	AddOutputItems(ctx context.Context, recordID string, items []model.OutputItem) ([]model.OutputItem, error)
	ListOutputItems(ctx context.Context, recordID string) ([]model.OutputItem, error)
	DeleteOutputItem(ctx context.Context, itemID string) error
}

type IntakeOutputHandler struct {
	Store  IntakeOutputStore
	events notifier
}

func NewIntakeOutputHandler(store IntakeOutputStore, pub EventPublisher, counter EventCounter) *IntakeOutputHandler {
	return &IntakeOutputHandler{Store: store, events: newNotifier(pub, counter)}
}

// IntakeOutputSummary is the display summary of one hourly record.
type IntakeOutputSummary struct {
	Intake      string           `json:"intake"`
	Output      string           `json:"output"`
	IntakeStats care.IntakeStats `json:"intake_stats"`
	OutputTotal float64          `json:"output_total"`
}

// List: GET /api/intake-output-records[?patient_id=&start=&end=]
func (h *IntakeOutputHandler) List(c echo.Context) error {
	var f repository.IntakeOutputFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient_id"})
		}
		f.PatientID = id
	}
	f.Start = strings.TrimSpace(c.QueryParam("start"))
	f.End = strings.TrimSpace(c.QueryParam("end"))
	if (f.Start != "" && !care.ValidDate(f.Start)) || (f.End != "" && !care.ValidDate(f.End)) ||
		(f.Start != "" && f.End != "" && f.Start > f.End) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	recs, err := h.Store.ListRecords(ctx, f)
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *IntakeOutputHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Store.GetRecord(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *IntakeOutputHandler) Create(c echo.Context) error {
	var rec model.IntakeOutputRecord
	if err := c.Bind(&rec); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(rec.Recorder) == "" {
		rec.Recorder = middleware.Username(c)
	}
	rec.TimeSlot = normaliseClock(rec.TimeSlot)
	if err := c.Validate(&rec); err != nil {
		return respondErr(c, err, "intake/output record")
	}
	if hour, ok := care.IntakeOutputHour(rec.TimeSlot); !ok || hour != rec.HourSlot {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errSlotMismatch})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Store.CreateRecord(ctx, &rec); err != nil {
		return respondErr(c, err, "intake/output record")
	}
	h.events.notify(&rec, queue.ActionCreated)
	return c.JSON(http.StatusCreated, rec)
}

const errSlotMismatch = "time_slot must be an hourly slot matching hour_slot"

// syncHourSlot keeps hour_slot and time_slot of a patch on the same hour,
// filling the one that is missing.
func syncHourSlot(p *model.IntakeOutputPatch) bool {
	switch {
	case p.TimeSlot != nil:
		hour, ok := care.IntakeOutputHour(*p.TimeSlot)
		if !ok || (p.HourSlot != nil && *p.HourSlot != hour) {
			return false
		}
		p.HourSlot = &hour
	case p.HourSlot != nil:
		slot := care.IntakeOutputSlot(*p.HourSlot)
		p.TimeSlot = &slot
	}
	return true
}

// Patch: PATCH /:id updates only the fields present in the body.
func (h *IntakeOutputHandler) Patch(c echo.Context) error {
	var p model.IntakeOutputPatch
	if err := c.Bind(&p); err != nil {
		return invalidBody(c)
	}
	if p.TimeSlot != nil {
		ts := normaliseClock(*p.TimeSlot)
		p.TimeSlot = &ts
	}
	if err := c.Validate(&p); err != nil {
		return respondErr(c, err, "intake/output record")
	}
	if !syncHourSlot(&p) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errSlotMismatch})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Store.PatchRecord(ctx, c.Param("id"), p)
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	if !p.Empty() {
		h.events.notify(rec, queue.ActionUpdated)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete removes the record; its items go with it.
func (h *IntakeOutputHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := withTimeout(c)
	defer cancel()

	rec, err := h.Store.GetRecord(ctx, id)
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	if err := h.Store.DeleteRecord(ctx, id); err != nil {
		return respondErr(c, err, "intake/output record")
	}
	h.events.notify(rec, queue.ActionDeleted)
	return c.NoContent(http.StatusNoContent)
}

func (h *IntakeOutputHandler) Summary(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Store.GetRecord(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusOK, IntakeOutputSummary{
		Intake:      care.FormatIntakeSummary(rec.IntakeItems),
		Output:      care.FormatOutputSummary(rec.OutputItems),
		IntakeStats: care.CalculateIntakeStats(rec.IntakeItems),
		OutputTotal: care.CalculateOutputTotal(rec.OutputItems),
	})
}

// bindOneOrMany decodes a JSON object or array of objects into a slice.
func bindOneOrMany[T any](c echo.Context) ([]T, error) {
	var raw json.RawMessage
	if err := (&echo.DefaultBinder{}).BindBody(c, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, echo.ErrBadRequest
	}
	if raw[0] == '[' {
		out := []T{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// AddIntakeItems: POST /:id/intake-items with one item or an array.
func (h *IntakeOutputHandler) AddIntakeItems(c echo.Context) error {
	items, err := bindOneOrMany[model.IntakeItem](c)
	if err != nil {
		return invalidBody(c)
	}
	for i := range items {
		it := &items[i]
		if it.Category == model.IntakeMeal {
			if it.Unit == "" {
				it.Unit = model.UnitPortion
			}
			switch {
			case it.AmountNumeric == 0:
				it.AmountNumeric = care.PortionToNumber(it.Amount)
			case strings.TrimSpace(it.Amount) == "":
				it.Amount = care.NumberToPortion(it.AmountNumeric)
			}
		}
		if err := c.Validate(it); err != nil {
			return respondErr(c, err, "intake item")
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Store.AddIntakeItems(ctx, c.Param("id"), items)
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *IntakeOutputHandler) ListIntakeItems(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Store.ListIntakeItems(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *IntakeOutputHandler) DeleteIntakeItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Store.DeleteIntakeItem(ctx, c.Param("itemId")); err != nil {
		return respondErr(c, err, "intake item")
	}
	return c.NoContent(http.StatusNoContent)
}

// AddOutputItems: POST /:id/output-items with one item or an array.
func (h *IntakeOutputHandler) AddOutputItems(c echo.Context) error {
	items, err := bindOneOrMany[model.OutputItem](c)
	if err != nil {
		return invalidBody(c)
	}
	for i := range items {
		if err := c.Validate(&items[i]); err != nil {
			return respondErr(c, err, "output item")
		}
		if items[i].PHValue != nil && items[i].Category != model.OutputGastric {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ph_value only applies to gastric output"})
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Store.AddOutputItems(ctx, c.Param("id"), items)
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *IntakeOutputHandler) ListOutputItems(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Store.ListOutputItems(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err, "intake/output record")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *IntakeOutputHandler) DeleteOutputItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Store.DeleteOutputItem(ctx, c.Param("itemId")); err != nil {
		return respondErr(c, err, "output item")
	}
	return c.NoContent(http.StatusNoContent)
}
