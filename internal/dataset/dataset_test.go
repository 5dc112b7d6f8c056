package dataset

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/types"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadSubmissions(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Full Name", "Mobile No", "Pincode", "Language", "Complaint Text"},
		{"Asha", "9876543210", "411001", "MR", " पाणी येत नाही "},
		{"", "", "", "", ""},
		{"Ravi", "9123456780", "440001", "", "Garbage not collected"},
	})

	rows, err := ReadSubmissions(buf, "admin-import")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, types.Submission{
		SubmitterID: "admin-import",
		Metadata:    types.ContactMetadata{Name: "Asha", Mobile: "9876543210", AreaCode: "411001"},
		Language:    types.LanguageMarathi,
		Text:        "पाणी येत नाही",
	}, rows[0].Submission)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, types.Language(""), rows[1].Submission.Language)
}

func TestReadSubmissions_Errors(t *testing.T) {
	_, err := ReadSubmissions(workbook(t, [][]interface{}{{"Name", "Mobile"}}), "x")
	assert.ErrorContains(t, err, "no data rows")

	_, err = ReadSubmissions(workbook(t, [][]interface{}{{"Name", "Mobile"}, {"a", "b"}}), "x")
	assert.ErrorContains(t, err, "no complaint text column")

	_, err = ReadSubmissions(bytes.NewBufferString("not a workbook"), "x")
	assert.Error(t, err)
}

func TestLoadSubmissions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Description", "Phone", "Area"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Bus never arrives", "9000000001", "560001"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := LoadSubmissions(path, "admin")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bus never arrives", rows[0].Submission.Text)
	assert.Equal(t, "560001", rows[0].Submission.Metadata.AreaCode)
}

func TestWriteReport(t *testing.T) {
	rec := types.NewComplaintRecord(types.NewComplaintParams{
		SubmitterID:    "c1",
		Contact:        types.ContactMetadata{Name: "Asha", Mobile: "9876543210", AreaCode: "411001"},
		SourceLanguage: types.LanguageEnglish,
		OriginalText:   "Pothole on MG road",
		Category:       types.CategoryRoads,
		Department:     "Public Works Department",
	}, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	remarks := "filled"
	rec.Status = types.StatusResolved
	rec.StatusHistory = append(rec.StatusHistory, types.StatusEntry{Status: types.StatusResolved, Timestamp: time.Now(), Remarks: &remarks})
	records := []*types.ComplaintRecord{rec}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, records, aggregator.Aggregate(records)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{ComplaintsSheet, StatisticsSheet}, f.GetSheetList())

	rows, err := f.GetRows(ComplaintsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, rec.ID, rows[1][0])
	assert.Equal(t, "2025-01-02T03:04:05Z", rows[1][1])
	assert.Equal(t, "Resolved", rows[1][2])
	assert.Equal(t, "filled", rows[1][11])

	total, err := f.GetCellValue(StatisticsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "1", total)
	stats, err := f.GetRows(StatisticsSheet)
	require.NoError(t, err)
	assert.Contains(t, stats, []string{"Resolved", "1"})
	assert.Contains(t, stats, []string{"Roads and Infrastructure", "1"})
}
