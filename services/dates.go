package services

import (
	"strings"
	"time"

	"bulletin-etl/models"
)

// bulletinDateLayout is day/month/year with optional zero padding.
const bulletinDateLayout = "2/1/2006"

// CoerceDates parses the Date column of every row. Values that do not parse
// yield an invalid Date rather than an error.
func CoerceDates(t *models.WideTable) []models.Date {
	idx := t.ColumnIndex(models.ColumnDate)
	dates := make([]models.Date, len(t.Rows))
	if idx < 0 {
		return dates
	}
	for i, row := range t.Rows {
		dates[i] = ParseBulletinDate(row[idx])
	}
	return dates
}

// ParseBulletinDate parses a single date cell such as "12/10/2024.1".
func ParseBulletinDate(s string) models.Date {
	s = stripLabelSuffix(strings.TrimSpace(s))
	t, err := time.Parse(bulletinDateLayout, s)
	if err != nil {
		return models.Date{}
	}
	return models.NewDate(t)
}
