package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"grievance-intake-go/internal/types"
)

// Row is one spreadsheet line turned into a submission. Line is 1-based and
// counts the header, matching what a spreadsheet app shows.
type Row struct {
	Line       int
	Submission types.Submission
}

type columns struct {
	name, mobile, area, language, text int
}

// detectColumns finds columns by header heuristics; missing ones stay -1.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case c.mobile == -1 && (strings.Contains(l, "mobile") || strings.Contains(l, "phone")):
			c.mobile = i
		case c.area == -1 && (strings.Contains(l, "pincode") || strings.Contains(l, "pin code") || strings.Contains(l, "area")):
			c.area = i
		case c.language == -1 && strings.Contains(l, "lang"):
			c.language = i
		case c.name == -1 && strings.Contains(l, "name"):
			c.name = i
		case c.text == -1 && (strings.Contains(l, "complaint") || strings.Contains(l, "text") || strings.Contains(l, "description")):
			c.text = i
		}
	}
	return c
}

// LoadSubmissions reads the first sheet of an xlsx file.
func LoadSubmissions(path, submitterID string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readSubmissions(f, submitterID)
}

// ReadSubmissions is LoadSubmissions over an already open stream.
func ReadSubmissions(r io.Reader, submitterID string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSubmissions(f, submitterID)
}

func readSubmissions(f *excelize.File, submitterID string) ([]Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.text == -1 {
		return nil, fmt.Errorf("no complaint text column in header %v", rows[0])
	}

	cell := func(r []string, idx int) string {
		if idx >= 0 && idx < len(r) {
			return strings.TrimSpace(r[idx])
		}
		return ""
	}

	var out []Row
	for i, r := range rows {
		if i == 0 {
			continue
		}
		text := cell(r, cols.text)
		if text == "" {
			// blank rows are common at the bottom of exported sheets
			continue
		}
		out = append(out, Row{
			Line: i + 1,
			Submission: types.Submission{
				SubmitterID: submitterID,
				Metadata: types.ContactMetadata{
					Name:     cell(r, cols.name),
					Mobile:   cell(r, cols.mobile),
					AreaCode: cell(r, cols.area),
				},
				Language: types.Language(strings.ToLower(cell(r, cols.language))),
				Text:     text,
			},
		})
	}
	return out, nil
}
