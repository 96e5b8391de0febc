package services

import (
	"sort"
	"strings"

	"bulletin-etl/models"
	"bulletin-etl/utils"
)

const topItemCount = 5

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

func (s *SummaryService) Generate(records []models.FinalRecord) *models.BatchSummary {
	report := &models.BatchSummary{}
	if len(records) == 0 {
		return report
	}
	report.TotalRecords = len(records)

	locations := make(map[string]struct{})
	type acc struct {
		minSum, maxSum float64
		minN, maxN     int
	}
	items := make(map[string]*acc)

	for _, r := range records {
		if r.Location != "" {
			locations[r.Location] = struct{}{}
		}
		a, ok := items[r.ItemName]
		if !ok {
			a = &acc{}
			items[r.ItemName] = a
		}
		if r.MinValue > 0 {
			a.minSum += float64(r.MinValue)
			a.minN++
		}
		if r.MaxValue > 0 {
			a.maxSum += float64(r.MaxValue)
			a.maxN++
		}
		if r.Date.Valid {
			if !report.FirstDate.Valid || r.Date.Time.Before(report.FirstDate.Time) {
				report.FirstDate = r.Date
			}
			if !report.LastDate.Valid || r.Date.Time.After(report.LastDate.Time) {
				report.LastDate = r.Date
			}
		}
	}
	report.Locations = len(locations)
	report.Items = len(items)

	var averages []models.ItemAverage
	for name, a := range items {
		if a.maxN == 0 {
			continue
		}
		avg := models.ItemAverage{
			ItemName:   name,
			AverageMax: round2(a.maxSum / float64(a.maxN)),
			Samples:    a.maxN,
		}
		if a.minN > 0 {
			avg.AverageMin = round2(a.minSum / float64(a.minN))
		}
		averages = append(averages, avg)
	}

	// Highest average upper bound first
	sort.Slice(averages, func(i, j int) bool {
		if averages[i].AverageMax != averages[j].AverageMax {
			return averages[i].AverageMax > averages[j].AverageMax
		}
		return averages[i].ItemName < averages[j].ItemName
	})
	if len(averages) > topItemCount {
		averages = averages[:topItemCount]
	}
	report.TopItems = averages

	return report
}

// Log writes the report through the logger so it lands in the run log.
func (s *SummaryService) Log(source string, r *models.BatchSummary) {
	thin := strings.Repeat("─", 54)

	s.logger.Info("[summary] %s", thin)
	s.logger.Info("[summary] %s", truncate(source, 54))
	s.logger.Info("[summary] Records: %d | Locations: %d | Items: %d",
		r.TotalRecords, r.Locations, r.Items)
	if r.FirstDate.Valid {
		s.logger.Info("[summary] Dates: %s → %s", r.FirstDate, r.LastDate)
	} else {
		s.logger.Info("[summary] No parseable dates")
	}
	for i, it := range r.TopItems {
		s.logger.Info("[summary] %d. %-34s avg %.2f - %.2f (%d)",
			i+1, truncate(it.ItemName, 34), it.AverageMin, it.AverageMax, it.Samples)
	}
	s.logger.Info("[summary] %s", thin)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
