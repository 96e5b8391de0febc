package services

import (
	"math"
	"strconv"
	"strings"

	"bulletin-etl/models"
)

// SplitMode selects how a value that is not a "min-max" pair is handled.
type SplitMode string

const (
	// SplitBatch zeroes the whole batch when no value splits into two parts.
	SplitBatch SplitMode = "batch"
	// SplitPerRow zeroes only the rows that do not split into two parts.
	SplitPerRow SplitMode = "row"
)

// SplitValues derives a PriceRange for every record. The second result is
// false when batch mode fell back to (0, 0) for every row.
func SplitValues(records []models.LongRecord, mode SplitMode) ([]models.PriceRange, bool) {
	parts := make([][]string, len(records))
	paired := false
	for i, r := range records {
		parts[i] = strings.SplitN(r.Value, "-", 2)
		if len(parts[i]) == 2 {
			paired = true
		}
	}

	ranges := make([]models.PriceRange, len(records))
	if mode != SplitPerRow && !paired {
		return ranges, false
	}

	for i, p := range parts {
		switch {
		case len(p) == 2:
			ranges[i] = models.PriceRange{Min: parseBound(p[0]), Max: parseBound(p[1])}
		case mode == SplitPerRow:
			// (0, 0)
		default:
			ranges[i] = models.PriceRange{Min: parseBound(p[0])}
		}
	}
	return ranges, true
}

// parseBound coerces a range bound to a non-negative integer, defaulting to 0.
func parseBound(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
