package services

import (
	"strings"
	"time"

	"bulletin-etl/models"
)

// Finalize stamps provenance on every record and drops the ones without a
// value or an item name. ranges must be aligned with records.
func Finalize(records []models.LongRecord, ranges []models.PriceRange, runDate time.Time, page int) []models.FinalRecord {
	written := models.NewDate(runDate)
	out := make([]models.FinalRecord, 0, len(records))
	for i, r := range records {
		if isNull(r.Value) || isNull(r.ItemName) {
			continue
		}
		var pr models.PriceRange
		if i < len(ranges) {
			pr = ranges[i]
		}
		out = append(out, models.FinalRecord{
			DatabaseWriteDate: written,
			Date:              r.Date,
			Location:          r.Location,
			ItemName:          r.ItemName,
			Value:             r.Value,
			MinValue:          pr.Min,
			MaxValue:          pr.Max,
			Page:              page,
		})
	}
	return out
}

func isNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "nan"
}
