package care

import (
	"strconv"
	"strings"

	"github.com/iliyamo/care-records/internal/model"
)

// MealPortions are the portion strings offered for meals, largest first.
var MealPortions = []string{"1", "3/4", "1/2", "1/4"}

// PortionToNumber converts a portion string to its numeric share.  Unknown
// strings are parsed as plain numbers; unparsable input yields 0.
func PortionToNumber(p string) float64 {
	switch strings.TrimSpace(p) {
	case "1":
		return 1
	case "3/4":
		return 0.75
	case "1/2":
		return 0.5
	case "1/4":
		return 0.25
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
	if err != nil {
		return 0
	}
	return f
}

// NumberToPortion is the inverse of PortionToNumber for the known portions.
func NumberToPortion(n float64) string {
	switch n {
	case 1:
		return "1"
	case 0.75:
		return "3/4"
	case 0.5:
		return "1/2"
	case 0.25:
		return "1/4"
	}
	return formatNumber(n)
}

// IntakeStats totals the intake items of one record.
type IntakeStats struct {
	Meals       float64            `json:"meals"`
	Beverages   float64            `json:"beverages"`
	TubeFeeding float64            `json:"tube_feeding"`
	Others      []model.IntakeItem `json:"others"`
}

// CalculateIntakeStats sums meals, beverages and tube feeding; "other" items
// are listed as they are since they have no common unit.
func CalculateIntakeStats(items []model.IntakeItem) IntakeStats {
	st := IntakeStats{Others: []model.IntakeItem{}}
	for _, it := range items {
		switch it.Category {
		case model.IntakeMeal:
			st.Meals += it.AmountNumeric
		case model.IntakeBeverage:
			st.Beverages += it.AmountNumeric
		case model.IntakeTubeFeeding:
			st.TubeFeeding += it.AmountNumeric
		case model.IntakeOther:
			st.Others = append(st.Others, it)
		}
	}
	return st
}

// CalculateOutputTotal sums the output volume in ml.
func CalculateOutputTotal(items []model.OutputItem) float64 {
	var total float64
	for _, it := range items {
		total += it.AmountML
	}
	return total
}

// None is shown when nothing was taken in or passed.
const None = "無"

// FormatIntakeSummary renders the intake of a record, e.g.
// "1.5份餐 + 200ml飲料 + 3塊餅乾".
func FormatIntakeSummary(items []model.IntakeItem) string {
	st := CalculateIntakeStats(items)
	var parts []string
	if st.Meals > 0 {
		parts = append(parts, formatNumber(st.Meals)+"份餐")
	}
	if st.Beverages > 0 {
		parts = append(parts, formatNumber(st.Beverages)+"ml飲料")
	}
	if st.TubeFeeding > 0 {
		parts = append(parts, formatNumber(st.TubeFeeding)+"ml鼻胃飼")
	}
	if len(st.Others) > 0 {
		others := make([]string, 0, len(st.Others))
		for _, o := range st.Others {
			others = append(others, o.Amount+o.ItemType)
		}
		parts = append(parts, strings.Join(others, ", "))
	}
	if len(parts) == 0 {
		return None
	}
	return strings.Join(parts, " + ")
}

// FormatOutputSummary renders the output total, e.g. "350ml".
func FormatOutputSummary(items []model.OutputItem) string {
	total := CalculateOutputTotal(items)
	if total <= 0 {
		return None
	}
	return formatNumber(total) + "ml"
}

// FormatAmount renders an amount with its unit label.  Piece amounts that
// already carry a counter (塊, 粒) are left alone.
func FormatAmount(amount, unit string) string {
	switch unit {
	case model.UnitPortion:
		return amount + "份"
	case model.UnitML:
		return amount + "ml"
	}
	if strings.Contains(amount, "塊") || strings.Contains(amount, "粒") {
		return amount
	}
	return amount + "個"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
