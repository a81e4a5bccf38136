// Package care holds the nursing rules shared by the record endpoints:
// time slots, the care day boundary, position rotation, the hospital-stay
// rule and the intake/output summaries.
package care

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/care-records/internal/model"
)

// DateLayout is the wire format of every record date.
const DateLayout = "2006-01-02"

// DayStartHour is the hour a care day begins.  Slots earlier than this belong
// to the following calendar day (the night shift of the same care day).
const DayStartHour = 7

// TimeSlots are the two-hourly patrol, restraint and turning slots in care
// day order.
var TimeSlots = []string{
	"07:00", "09:00", "11:00", "13:00", "15:00", "17:00",
	"19:00", "21:00", "23:00", "01:00", "03:00", "05:00",
}

// DiaperSlots are the diaper change windows.
var DiaperSlots = []string{
	"7AM-10AM", "11AM-2PM", "3PM-6PM", "7PM-10PM", "11PM-2AM", "3AM-6AM",
}

// IntakeOutputSlots are the hourly intake/output slots starting at 07:00.
var IntakeOutputSlots = func() []string {
	out := make([]string, 0, 24)
	for i := 0; i < 24; i++ {
		out = append(out, fmt.Sprintf("%02d:00", (DayStartHour+i)%24))
	}
	return out
}()

// SlotsFor returns the slot table of a record kind in care day order.
func SlotsFor(kind string) ([]string, bool) {
	switch kind {
	case model.KindPatrolRound, model.KindRestraintObservation, model.KindPositionChange:
		return TimeSlots, true
	case model.KindDiaperChange:
		return DiaperSlots, true
	case model.KindHygiene:
		return []string{model.HygieneSlot}, true
	case model.KindIntakeOutput:
		return IntakeOutputSlots, true
	}
	return nil, false
}

// IntakeOutputHour returns the hour of an intake/output slot; ok is false
// when slot is not one of IntakeOutputSlots.
func IntakeOutputHour(slot string) (hour int, ok bool) {
	if !slices.Contains(IntakeOutputSlots, slot) {
		return 0, false
	}
	hour, _, _ = ParseClock(slot)
	return hour, true
}

// IntakeOutputSlot returns the slot label of an hour in 0..23.
func IntakeOutputSlot(hour int) string {
	return IntakeOutputSlots[((hour-DayStartHour)%24+24)%24]
}

var positions = []string{model.PositionLeft, model.PositionFlat, model.PositionRight}

// PositionFor returns the lying position scheduled for a turning slot.
// Positions rotate left, flat, right across TimeSlots; an unknown slot gets
// left.
func PositionFor(scheduledTime string) string {
	i := slices.Index(TimeSlots, scheduledTime)
	if i < 0 {
		return model.PositionLeft
	}
	return positions[i%len(positions)]
}

// IsDiaperSlot reports whether s is one of DiaperSlots.
func IsDiaperSlot(s string) bool {
	return slices.Contains(DiaperSlots, s)
}

var (
	clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	ampmRe  = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?`)
)

// ParseClock validates an "H:MM", "HH:MM" or "HH:MM:SS" clock time and returns
// hours and minutes.
func ParseClock(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

// ParseSlotStartTime normalises a slot label to its "HH:MM" start time.  It
// accepts clock times ("7:00", "07:00") and ranged labels ("7AM-10AM",
// "11PM-2AM").  ok is false when nothing usable is found.
func ParseSlotStartTime(slot string) (string, bool) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return "", false
	}
	if h, m, ok := ParseClock(slot); ok {
		return fmt.Sprintf("%02d:%02d", h, m), true
	}
	head := strings.TrimSpace(strings.SplitN(slot, "-", 2)[0])
	m := ampmRe.FindStringSubmatch(head)
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	mins := 0
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	switch strings.ToUpper(m[3]) {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return fmt.Sprintf("%02d:%02d", h%24, mins), true
}

// SlotTime resolves a record date and slot to the wall-clock instant the slot
// starts, applying the care day boundary: slots before 07:00 fall on the next
// calendar day.
func SlotTime(date, slot string, loc *time.Location) (time.Time, bool) {
	start, ok := ParseSlotStartTime(slot)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+start, loc)
	if err != nil {
		return time.Time{}, false
	}
	if t.Hour() < DayStartHour {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// IsPastSlot reports whether the slot of the given record date has already
// started at now.  The "daily" slot is past once its date has ended.
func IsPastSlot(date, slot string, now time.Time) bool {
	loc := now.Location()
	if slot == model.HygieneSlot {
		day, err := time.ParseInLocation(DateLayout, date, loc)
		if err != nil {
			return false
		}
		endOfDay := day.Add(24*time.Hour - time.Second)
		return endOfDay.Before(now)
	}
	t, ok := SlotTime(date, slot, loc)
	if !ok {
		return false
	}
	return t.Before(now)
}

// WeekStart returns the Monday of the week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekDates returns the seven dates starting at start.
func WeekDates(start time.Time) []string {
	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}

// CurrentWeek returns the Monday..Sunday range around now as record dates.
func CurrentWeek(now time.Time) (start, end string) {
	dates := WeekDates(WeekStart(now))
	return dates[0], dates[len(dates)-1]
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
