package dataset

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/types"
)

const (
	ComplaintsSheet = "Complaints"
	StatisticsSheet = "Statistics"
)

var complaintHeader = []interface{}{
	"ID", "Created At", "Status", "Category", "Department", "Area Code",
	"Contact Name", "Contact Mobile", "Language", "Original Text", "Normalized Text", "Last Remarks",
}

// WriteReport writes a workbook with one row per complaint and a statistics sheet.
func WriteReport(w io.Writer, records []*types.ComplaintRecord, stats aggregator.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ComplaintsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeComplaints(f, records); err != nil {
		return err
	}
	if _, err := f.NewSheet(StatisticsSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeStatistics(f, stats); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeComplaints(f *excelize.File, records []*types.ComplaintRecord) error {
	if err := f.SetSheetRow(ComplaintsSheet, "A1", &complaintHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		remarks := ""
		if last, ok := r.LastEntry(); ok && last.Remarks != nil {
			remarks = *last.Remarks
		}
		row := []interface{}{
			r.ID, r.CreatedAt.Format(time.RFC3339), string(r.Status), string(r.Category), r.Department,
			r.Contact.AreaCode, r.Contact.Name, r.Contact.Mobile, string(r.SourceLanguage),
			r.OriginalText, r.NormalizedText, remarks,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ComplaintsSheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeStatistics(f *excelize.File, s aggregator.Stats) error {
	line := 1
	put := func(vals ...interface{}) error {
		cellRef, _ := excelize.CoordinatesToCellName(1, line)
		line++
		return f.SetSheetRow(StatisticsSheet, cellRef, &vals)
	}
	section := func(title string, counts []aggregator.Count) error {
		if err := put(); err != nil {
			return err
		}
		if err := put(title, "Count"); err != nil {
			return err
		}
		for _, c := range counts {
			if err := put(c.Key, c.Count); err != nil {
				return err
			}
		}
		return nil
	}

	if err := put("Total", s.Total); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	if err := put(); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	if err := put("Status", "Count"); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	for _, st := range types.Statuses() {
		if err := put(string(st), s.ByStatus[st]); err != nil {
			return fmt.Errorf("write statistics: %w", err)
		}
	}
	for _, sec := range []struct {
		title  string
		counts []aggregator.Count
	}{
		{"Category", s.ByCategory},
		{"Department", s.ByDepartment},
		{"Area Code (top 10)", s.ByArea},
	} {
		if err := section(sec.title, sec.counts); err != nil {
			return fmt.Errorf("write statistics: %w", err)
		}
	}
	return nil
}
