package services

import (
	"regexp"

	"bulletin-etl/models"
)

var (
	// nonNumericRegexp matches every character a price cell may not carry
	nonNumericRegexp = regexp.MustCompile(`[^0-9.\-]`)
	// labelSuffixRegexp captures a label with a disambiguating ".N" suffix
	labelSuffixRegexp = regexp.MustCompile(`^(.*)\.\d+$`)
)

// CleanCells keeps only digits, dots and dashes in data cells. The first
// column (item labels) and the first row (location names) are left alone.
func CleanCells(t *models.RawTable) {
	for i := 1; i < len(t.Rows); i++ {
		row := t.Rows[i]
		for j := 1; j < len(row); j++ {
			row[j] = nonNumericRegexp.ReplaceAllString(row[j], "")
		}
	}
}

// NormalizeLabels strips ".N" suffixes from header labels, recombining the
// columns the extractor split because of repeated header text, and labels
// the first column's location cell as Location.
func NormalizeLabels(t *models.RawTable) {
	for i, h := range t.Header {
		t.Header[i] = stripLabelSuffix(h)
	}
	if len(t.Rows) > 0 && len(t.Rows[0]) > 0 {
		t.Rows[0][0] = models.ColumnLocation
	}
}

func stripLabelSuffix(s string) string {
	if m := labelSuffixRegexp.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
