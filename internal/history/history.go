// Package history filters and summarizes past analyses for the history view.
package history

import (
	"math"
	"strings"
	"time"

	"resume-analyzer/internal/models"
)

type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

type Stats struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	AverageRating float64 `json:"average_rating"`
	ThisMonth     int     `json:"this_month"`
}

// Filter keeps the records whose filename, contact name or contact email contains query,
// ignoring case. An empty query keeps everything. Order is preserved.
func Filter(records []models.ResumeAnalysis, query string) []models.ResumeAnalysis {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	out := make([]models.ResumeAnalysis, 0, len(records))
	for _, r := range records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.ResumeAnalysis, q string) bool {
	for _, field := range []string{r.Filename, r.ContactInfo.Name, r.ContactInfo.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Summarize computes the overview counters. The average covers completed records only
// and is rounded to one decimal; "this month" is judged in now's location.
func Summarize(records []models.ResumeAnalysis, now time.Time) Stats {
	var (
		s   Stats
		sum float64
	)
	s.Total = len(records)

	year, month, _ := now.Date()
	for _, r := range records {
		if r.AnalysisStatus == models.StatusCompleted {
			s.Completed++
			sum += r.OverallRating
		}
		y, m, _ := r.CreatedDate.In(now.Location()).Date()
		if y == year && m == month {
			s.ThisMonth++
		}
	}

	if s.Completed > 0 {
		s.AverageRating = math.Round(sum/float64(s.Completed)*10) / 10
	}
	return s
}

func RatingBand(rating float64) Band {
	switch {
	case rating >= 8:
		return BandGood
	case rating >= 6:
		return BandFair
	default:
		return BandPoor
	}
}
