package models

import "time"

// DateLayout is the ISO layout records are serialized with.
const DateLayout = "2006-01-02"

// Date is a calendar date that may be unknown.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// String returns YYYY-MM-DD, or "" for an unknown date.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

// LongRecord is one (date, location, item) observation. An empty Value is
// the null marker.
type LongRecord struct {
	Date     Date
	Location string
	ItemName string
	Value    string
}

// PriceRange holds the bounds parsed from a "min-max" value.
type PriceRange struct {
	Min int
	Max int
}

// FinalRecord is the persisted unit. The csv tags fix the column order and
// header labels of the monthly CSV snapshot.
type FinalRecord struct {
	DatabaseWriteDate Date   `csv:"Database Write Date"`
	Date              Date   `csv:"Date"`
	Location          string `csv:"Location"`
	ItemName          string `csv:"Item_Names"`
	Value             string `csv:"Value"`
	MinValue          int    `csv:"Min_Value"`
	MaxValue          int    `csv:"Max_Value"`
	Page              int    `csv:"Page"`
}

// BatchSummary holds statistics computed over a finalized batch.
type BatchSummary struct {
	TotalRecords int
	Locations    int
	Items        int
	FirstDate    Date
	LastDate     Date
	TopItems     []ItemAverage
}

// ItemAverage is the mean of the non-zero bounds recorded for one item.
type ItemAverage struct {
	ItemName   string
	AverageMin float64
	AverageMax float64
	Samples    int
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *Date) UnmarshalCSV(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}
