package services

import (
	"fmt"
	"time"

	"bulletin-etl/models"
	"bulletin-etl/utils"
)

// Transformer turns an extracted bulletin table into finalized records.
type Transformer struct {
	logger    *utils.Logger
	splitMode SplitMode
}

// NewTransformer creates a Transformer. An empty mode means SplitBatch.
func NewTransformer(logger *utils.Logger, mode SplitMode) *Transformer {
	if mode == "" {
		mode = SplitBatch
	}
	return &Transformer{logger: logger, splitMode: mode}
}

// Transform runs every stage over raw, which it mutates. runDate becomes the
// Database Write Date and page is recorded on every record.
func (t *Transformer) Transform(raw *models.RawTable, page int, runDate time.Time) ([]models.FinalRecord, error) {
	CleanCells(raw)
	NormalizeLabels(raw)

	wide, err := Transpose(raw)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	t.logger.Debug("[transform] Transposed to %d rows x %d columns", len(wide.Rows), len(wide.Columns))

	dates := CoerceDates(wide)
	unknown := 0
	for _, d := range dates {
		if !d.Valid {
			unknown++
		}
	}
	if unknown > 0 {
		t.logger.Warn("[transform] %d of %d rows have an unparseable date", unknown, len(dates))
	}

	long := Reshape(wide, dates)
	CanonicalizeItems(long)

	ranges, ok := SplitValues(long, t.splitMode)
	if !ok {
		t.logger.Warn("[transform] No value split into exactly two parts, defaulting every range to (0, 0)")
	}

	final := Finalize(long, ranges, runDate, page)
	t.logger.Info("[transform] Reshaped %d → %d records (dropped %d without value or item)",
		len(long), len(final), len(long)-len(final))
	return final, nil
}
