package services

import "bulletin-etl/models"

// Transpose swaps rows and columns. The raw first column (Location and the
// item labels) becomes the column labels, the raw header becomes the Date
// column, and the row produced by the first column is dropped.
func Transpose(raw *models.RawTable) (*models.WideTable, error) {
	raw.Pad()
	width := raw.Width()
	if width == 0 {
		return nil, &models.StructuralError{Column: models.ColumnLocation}
	}

	wide := &models.WideTable{
		Columns: make([]string, 0, len(raw.Rows)+1),
	}
	wide.Columns = append(wide.Columns, models.ColumnDate)
	for _, r := range raw.Rows {
		wide.Columns = append(wide.Columns, r[0])
	}

	if wide.ColumnIndex(models.ColumnLocation) < 0 {
		return nil, &models.StructuralError{Column: models.ColumnLocation}
	}

	for j := 1; j < width; j++ {
		row := make([]string, 0, len(wide.Columns))
		row = append(row, raw.Header[j])
		for _, r := range raw.Rows {
			row = append(row, r[j])
		}
		wide.Rows = append(wide.Rows, row)
	}
	return wide, nil
}
