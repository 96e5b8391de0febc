package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"bulletin-etl/models"
)

// CSVWriter accumulates record batches into monthly CSV blobs named
// <prefix><year>-<month><suffix>.csv. Each file carries one header row and
// the newest batch comes first.
type CSVWriter struct {
	blobs  BlobStore
	prefix string
	suffix string
}

func NewCSVWriter(blobs BlobStore, prefix, suffix string) *CSVWriter {
	return &CSVWriter{blobs: blobs, prefix: prefix, suffix: suffix}
}

// FileName returns the blob name for a YYYY-MM-DD date.
func (c *CSVWriter) FileName(date string) (string, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("csv: bad batch date %q: %w", date, err)
	}
	return fmt.Sprintf("%s%d-%d%s.csv", c.prefix, t.Year(), int(t.Month()), c.suffix), nil
}

// AppendOrCreate prepends csvText to the monthly file, dropping the header
// row of the existing content.
func (c *CSVWriter) AppendOrCreate(ctx context.Context, csvText, date string) error {
	name, err := c.FileName(date)
	if err != nil {
		return err
	}

	existing, err := c.blobs.Read(ctx, name)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	body := csvText
	if len(existing) > 0 {
		if i := strings.IndexByte(string(existing), '\n'); i >= 0 {
			body += string(existing[i+1:])
		}
	}
	return c.blobs.Write(ctx, name, []byte(body))
}

// WriteRecords serializes a batch and stores it in the month of its date.
func (c *CSVWriter) WriteRecords(ctx context.Context, records []models.FinalRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	text, err := MarshalRecords(records)
	if err != nil {
		return "", err
	}
	date, err := BatchDate(records)
	if err != nil {
		return "", err
	}
	if err := c.AppendOrCreate(ctx, text, date); err != nil {
		return "", err
	}
	return c.FileName(date)
}

// MarshalRecords renders records as CSV with a header row.
func MarshalRecords(records []models.FinalRecord) (string, error) {
	text, err := gocsv.MarshalString(&records)
	if err != nil {
		return "", fmt.Errorf("csv: marshal: %w", err)
	}
	return text, nil
}

// BatchDate returns the date that keys the batch: the first record's date,
// or the first known date when the first record has none.
func BatchDate(records []models.FinalRecord) (string, error) {
	for _, r := range records {
		if r.Date.Valid {
			return r.Date.String(), nil
		}
	}
	return "", fmt.Errorf("csv: batch of %d records has no parseable date", len(records))
}
