package care

import (
	"slices"

	"github.com/iliyamo/care-records/internal/model"
)

// StatusNotes are the notes written instead of an observation when the
// resident is away: admitted to hospital, on holiday, or out.
var StatusNotes = []string{"入院", "渡假", "外出"}

// IsStatusNote reports whether note marks the resident as away.
func IsStatusNote(note string) bool {
	return slices.Contains(StatusNotes, note)
}

// ObservationStatusLabel returns the display label of a restraint
// observation status.
func ObservationStatusLabel(status string) string {
	switch status {
	case model.ObservationNormal:
		return "正常"
	case model.ObservationAbnormal:
		return "異常"
	case model.ObservationSuspended:
		return "暫停"
	}
	return ""
}
