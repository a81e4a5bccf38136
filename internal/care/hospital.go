package care

import (
	"slices"
	"time"

	"github.com/iliyamo/care-records/internal/model"
)

const (
	defaultAdmitTime     = "00:00"
	defaultDischargeTime = "23:59"
)

// IsInHospital reports whether the resident was in hospital at the given
// record date and slot time.  Only the latest admission counts; it is closed
// by the first discharge dated after it.  Times before 07:00 are read on the
// next calendar day, like every other slot.
func IsInHospital(patientID int64, date, clock string, records []model.PatientAdmissionRecord, loc *time.Location) bool {
	var admissions, discharges []model.PatientAdmissionRecord
	for _, r := range records {
		if r.PatientID != patientID {
			continue
		}
		switch r.EventType {
		case model.EventHospitalAdmission:
			admissions = append(admissions, r)
		case model.EventHospitalDischarge:
			discharges = append(discharges, r)
		}
	}
	if len(admissions) == 0 {
		return false
	}
	latest := slices.MaxFunc(admissions, func(a, b model.PatientAdmissionRecord) int {
		switch {
		case a.EventDate < b.EventDate:
			return -1
		case a.EventDate > b.EventDate:
			return 1
		}
		return 0
	})

	target, ok := SlotTime(date, clock, loc)
	if !ok {
		return false
	}
	admitAt, ok := eventTime(latest, defaultAdmitTime, loc)
	if !ok {
		return false
	}

	var (
		closedAt time.Time
		closed   bool
	)
	for _, d := range discharges {
		if d.EventDate <= latest.EventDate {
			continue
		}
		at, ok := eventTime(d, defaultDischargeTime, loc)
		if !ok {
			continue
		}
		if !closed || at.Before(closedAt) {
			closedAt, closed = at, true
		}
	}
	if closed {
		return !target.Before(admitAt) && !target.After(closedAt)
	}
	return !target.Before(admitAt)
}

func eventTime(r model.PatientAdmissionRecord, fallback string, loc *time.Location) (time.Time, bool) {
	clock := fallback
	if h, m, ok := ParseClock(r.EventTime); ok {
		clock = twoDigits(h) + ":" + twoDigits(m)
	}
	t, err := time.ParseInLocation(DateLayout+" 15:04", r.EventDate+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
