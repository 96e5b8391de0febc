package models

// RawTable is a grid as produced by the table extractor. Header holds the
// extracted table's first row (the date axis); Rows[0] is the location row
// and its first cell is the label that becomes the Location header once the
// table is transposed.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of columns, taking the widest row into account.
func (t *RawTable) Width() int {
	w := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Pad extends the header and every row to Width() with empty cells.
func (t *RawTable) Pad() {
	w := t.Width()
	for len(t.Header) < w {
		t.Header = append(t.Header, "")
	}
	for i, r := range t.Rows {
		for len(r) < w {
			r = append(r, "")
		}
		t.Rows[i] = r
	}
}

// WideTable is the transposed table: one row per (date, location) pair and
// one column per item. Column labels may repeat.
type WideTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the first column labelled name, or -1.
func (t *WideTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Well-known column labels.
const (
	ColumnDate     = "Date"
	ColumnLocation = "Location"
)
