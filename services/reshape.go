package services

import (
	"regexp"
	"strings"

	"bulletin-etl/models"
)

var (
	lineBreakRegexp = regexp.MustCompile(`[\r\n]+`)
	sixDigitRegexp  = regexp.MustCompile(`^\d{6}$`)
)

// Reshape unpivots the wide table into one LongRecord per row and item
// column, ordered item column first. dates must be aligned with t.Rows.
func Reshape(t *models.WideTable, dates []models.Date) []models.LongRecord {
	dateIdx := t.ColumnIndex(models.ColumnDate)
	locIdx := t.ColumnIndex(models.ColumnLocation)

	var itemCols []int
	for i := range t.Columns {
		if i != dateIdx && i != locIdx {
			itemCols = append(itemCols, i)
		}
	}

	locations := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		locations[i] = nullPlaceholder(lineBreakRegexp.ReplaceAllString(row[locIdx], " "))
	}

	records := make([]models.LongRecord, 0, len(itemCols)*len(t.Rows))
	for _, c := range itemCols {
		for i, row := range t.Rows {
			var date models.Date
			if i < len(dates) {
				date = dates[i]
			}
			records = append(records, models.LongRecord{
				Date:     date,
				Location: locations[i],
				ItemName: t.Columns[c],
				Value:    repairValue(nullPlaceholder(row[c])),
			})
		}
	}
	return records
}

// nullPlaceholder maps blank cells and a lone dash to the null marker.
func nullPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" || s == "-" {
		return ""
	}
	return s
}

// repairValue restores the dash of a "ddd-ddd" range the extractor fused
// into six digits.
func repairValue(v string) string {
	if sixDigitRegexp.MatchString(v) {
		return v[:3] + "-" + v[3:]
	}
	return v
}
