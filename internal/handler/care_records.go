package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/care-records/internal/care"
	"github.com/iliyamo/care-records/internal/middleware"
	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/queue"
)

// CareRecordStore is what CareRecordHandler needs from storage.
// *repository.RecordStore satisfies it for every record kind.
type CareRecordStore[T any, PT interface {
	*T
	model.CareRecord
}] interface {
	ListInRange(ctx context.Context, start, end string) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, rec PT) error
	Update(ctx context.Context, rec PT) error
	Delete(ctx context.Context, id string) error
}

// CareRecordHandler serves list/create/update/delete for one record kind.
// prepare normalises a bound record before validation and decorate fills
// display-only fields before a record is written out; both may be nil.
type CareRecordHandler[T any, PT interface {
	*T
	model.CareRecord
}] struct {
	Store    CareRecordStore[T, PT]
	events   notifier
	prepare  func(PT)
	decorate func(PT)
	now      func() time.Time
	what     string
}

func newCareRecordHandler[T any, PT interface {
	*T
	model.CareRecord
}](what string, store CareRecordStore[T, PT], pub EventPublisher, counter EventCounter, prepare func(PT)) *CareRecordHandler[T, PT] {
	return &CareRecordHandler[T, PT]{
		Store:   store,
		events:  newNotifier(pub, counter),
		prepare: prepare,
		now:     time.Now,
		what:    what,
	}
}

func NewPatrolRoundHandler(store CareRecordStore[model.PatrolRound, *model.PatrolRound], pub EventPublisher, counter EventCounter) *CareRecordHandler[model.PatrolRound, *model.PatrolRound] {
	return newCareRecordHandler("patrol round", store, pub, counter, func(r *model.PatrolRound) {
		r.PatrolTime = normaliseClock(r.PatrolTime)
		r.ScheduledTime = normaliseClock(r.ScheduledTime)
	})
}

func NewDiaperChangeHandler(store CareRecordStore[model.DiaperChangeRecord, *model.DiaperChangeRecord], pub EventPublisher, counter EventCounter) *CareRecordHandler[model.DiaperChangeRecord, *model.DiaperChangeRecord] {
	return newCareRecordHandler("diaper change", store, pub, counter, func(r *model.DiaperChangeRecord) {
		r.TimeSlot = strings.TrimSpace(r.TimeSlot)
		// a status note means the resident was away, so nothing was observed
		if care.IsStatusNote(r.Notes) {
			r.HasUrine, r.HasStool, r.HasNone = false, false, false
		}
	})
}

func NewRestraintObservationHandler(store CareRecordStore[model.RestraintObservationRecord, *model.RestraintObservationRecord], pub EventPublisher, counter EventCounter) *CareRecordHandler[model.RestraintObservationRecord, *model.RestraintObservationRecord] {
	h := newCareRecordHandler("restraint observation", store, pub, counter, func(r *model.RestraintObservationRecord) {
		r.ObservationTime = normaliseClock(r.ObservationTime)
		r.ScheduledTime = normaliseClock(r.ScheduledTime)
		r.ObservationStatus = strings.ToUpper(strings.TrimSpace(r.ObservationStatus))
	})
	h.decorate = func(r *model.RestraintObservationRecord) {
		r.StatusLabel = care.ObservationStatusLabel(r.ObservationStatus)
	}
	return h
}

func NewPositionChangeHandler(store CareRecordStore[model.PositionChangeRecord, *model.PositionChangeRecord], pub EventPublisher, counter EventCounter) *CareRecordHandler[model.PositionChangeRecord, *model.PositionChangeRecord] {
	return newCareRecordHandler("position change", store, pub, counter, func(r *model.PositionChangeRecord) {
		r.ScheduledTime = normaliseClock(r.ScheduledTime)
		if strings.TrimSpace(r.Position) == "" {
			r.Position = care.PositionFor(r.ScheduledTime)
		}
	})
}

func NewHygieneHandler(store CareRecordStore[model.HygieneRecord, *model.HygieneRecord], pub EventPublisher, counter EventCounter) *CareRecordHandler[model.HygieneRecord, *model.HygieneRecord] {
	return newCareRecordHandler("hygiene record", store, pub, counter, func(r *model.HygieneRecord) {
		r.TimeSlot = model.HygieneSlot
	})
}

// normaliseClock rewrites "7:00" as "07:00" and leaves anything it cannot
// parse for the validator to reject.
func normaliseClock(s string) string {
	if _, _, ok := care.ParseClock(s); !ok {
		return s
	}
	if v, ok := care.ParseSlotStartTime(s); ok {
		return v
	}
	return s
}

// dateRange reads ?start= and ?end=.  With neither it falls back to the
// current Monday..Sunday week; with one of them the range spans the seven
// days starting or ending there.
func dateRange(c echo.Context, now time.Time) (string, string, bool) {
	start := strings.TrimSpace(c.QueryParam("start"))
	end := strings.TrimSpace(c.QueryParam("end"))
	if (start != "" && !care.ValidDate(start)) || (end != "" && !care.ValidDate(end)) {
		return "", "", false
	}
	switch {
	case start == "" && end == "":
		start, end = care.CurrentWeek(now)
	case end == "":
		t, _ := time.Parse(care.DateLayout, start)
		end = t.AddDate(0, 0, 6).Format(care.DateLayout)
	case start == "":
		t, _ := time.Parse(care.DateLayout, end)
		start = t.AddDate(0, 0, -6).Format(care.DateLayout)
	}
	// YYYY-MM-DD compares correctly as a string
	if start > end {
		return "", "", false
	}
	return start, end, true
}

// List: GET ?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *CareRecordHandler[T, PT]) List(c echo.Context) error {
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	recs, err := h.Store.ListInRange(ctx, start, end)
	if err != nil {
		return respondErr(c, err, h.what)
	}
	if h.decorate != nil {
		for i := range recs {
			h.decorate(PT(&recs[i]))
		}
	}
	return c.JSON(http.StatusOK, recs)
}

// bind decodes, normalises and validates the request body.
func (h *CareRecordHandler[T, PT]) bind(c echo.Context) (PT, error) {
	var rec T
	p := PT(&rec)
	if err := c.Bind(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.RecordedBy()) == "" {
		p.SetRecordedBy(middleware.Username(c))
	}
	if h.prepare != nil {
		h.prepare(p)
	}
	return p, nil
}

func (h *CareRecordHandler[T, PT]) Create(c echo.Context) error {
	rec, err := h.bind(c)
	if err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(rec); err != nil {
		return respondErr(c, err, h.what)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Store.Create(ctx, rec); err != nil {
		return respondErr(c, err, h.what)
	}
	h.events.notify(rec, queue.ActionCreated)
	if h.decorate != nil {
		h.decorate(rec)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Update: PUT /:id replaces every mutable field.
func (h *CareRecordHandler[T, PT]) Update(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.bind(c)
	if err != nil {
		return invalidBody(c)
	}
	rec.SetRecordID(id)
	if err := c.Validate(rec); err != nil {
		return respondErr(c, err, h.what)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Store.Update(ctx, rec); err != nil {
		return respondErr(c, err, h.what)
	}
	h.events.notify(rec, queue.ActionUpdated)
	if h.decorate != nil {
		h.decorate(rec)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CareRecordHandler[T, PT]) Delete(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	ctx, cancel := withTimeout(c)
	defer cancel()

	existing, err := h.Store.Get(ctx, id)
	if err != nil {
		return respondErr(c, err, h.what)
	}
	if err := h.Store.Delete(ctx, id); err != nil {
		return respondErr(c, err, h.what)
	}
	h.events.notify(PT(existing), queue.ActionDeleted)
	return c.NoContent(http.StatusNoContent)
}
