package export

import (
	"fmt"
	"io"
	"slices"

	"resume-analyzer/internal/history"
	"resume-analyzer/internal/models"

	"github.com/xuri/excelize/v2"
)

const Sheet = "Resumes"

var baseHeaders = []string{
	"Created",
	"Filename",
	"Candidate",
	"Email",
	"Overall Rating",
	"Band",
	"Status",
}

// WriteHistory writes records as an XLSX workbook, one row per analysis.
// Category columns follow the fixed ones, one per category seen in any record, sorted by name.
func WriteHistory(w io.Writer, records []models.ResumeAnalysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	categories := Categories(records)
	headers := append(slices.Clone(baseHeaders), categories...)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(Sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(Sheet, "A1", last, bold)

	for i, r := range records {
		row := i + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			return f.SetCellValue(Sheet, cell, v)
		}

		values := []any{
			r.CreatedDate.UTC().Format("2006-01-02 15:04"),
			r.Filename,
			r.ContactInfo.Name,
			r.ContactInfo.Email,
			r.OverallRating,
			string(history.RatingBand(r.OverallRating)),
			r.AnalysisStatus.String(),
		}
		for _, c := range categories {
			if v, ok := r.CategoryRatings[c]; ok {
				values = append(values, v)
			} else {
				values = append(values, "")
			}
		}

		for col, v := range values {
			if err := write(col+1, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(Sheet, "A", "A", 18)
	_ = f.SetColWidth(Sheet, "B", "B", 32)
	_ = f.SetColWidth(Sheet, "C", "D", 26)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// Categories is the sorted union of category_ratings keys across records.
func Categories(records []models.ResumeAnalysis) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for c := range r.CategoryRatings {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
