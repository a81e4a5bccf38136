package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/care-records/internal/care"
	"github.com/iliyamo/care-records/internal/model"
)

// SlotStatus is one slot of a care day as the record grids show it.
type SlotStatus struct {
	Slot     string `json:"slot"`
	Past     bool   `json:"past"`
	Position string `json:"position,omitempty"`
}

// SlotHandler lists the slots of a record kind.  Loc is the facility time
// zone the care day is measured in.
type SlotHandler struct {
	Loc *time.Location
	now func() time.Time
}

func NewSlotHandler() *SlotHandler {
	return &SlotHandler{Loc: time.Local, now: time.Now}
}

// CareSlots: GET /api/care-slots?kind=&date=
// Date defaults to today in the facility time zone.
func (h *SlotHandler) CareSlots(c echo.Context) error {
	kind := strings.TrimSpace(c.QueryParam("kind"))
	slots, ok := care.SlotsFor(kind)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid kind"})
	}
	now := h.now().In(h.Loc)
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		date = now.Format(care.DateLayout)
	}
	if !care.ValidDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	out := make([]SlotStatus, 0, len(slots))
	for _, s := range slots {
		st := SlotStatus{Slot: s, Past: care.IsPastSlot(date, s, now)}
		if kind == model.KindPositionChange {
			st.Position = care.PositionFor(s)
		}
		out = append(out, st)
	}
	return c.JSON(http.StatusOK, out)
}
