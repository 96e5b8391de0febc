package services

import "bulletin-etl/models"

// ConcatTables stacks the rows of tables into one table. Columns are matched
// by header label; the result carries the union of labels in first-seen
// order and cells missing from a table are left empty. Returns nil when
// tables is empty. Every input table is padded in place.
func ConcatTables(tables []models.RawTable) *models.RawTable {
	if len(tables) == 0 {
		return nil
	}
	for i := range tables {
		tables[i].Pad()
	}
	if len(tables) == 1 {
		return &tables[0]
	}

	out := &models.RawTable{}
	index := make(map[string]int)
	for _, t := range tables {
		for _, label := range t.Header {
			if _, ok := index[label]; !ok {
				index[label] = len(out.Header)
				out.Header = append(out.Header, label)
			}
		}
	}

	for _, t := range tables {
		for _, r := range t.Rows {
			row := make([]string, len(out.Header))
			for j, label := range t.Header {
				row[index[label]] = r[j]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
