package fetcher

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string]func(*xlsx.Sheet)) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, fill := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		fill(sheet)
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func stringRows(rows ...[]string) func(*xlsx.Sheet) {
	return func(sheet *xlsx.Sheet) {
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
}

func TestReadXLSX_TypedCells(t *testing.T) {
	created := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	path := createTestXLSX(t, map[string]func(*xlsx.Sheet){
		"Enquiries": func(sheet *xlsx.Sheet) {
			header := sheet.AddRow()
			for _, h := range []string{"Name", "Date Created", "Value", "Won", "Notes"} {
				header.AddCell().SetString(h)
			}
			row := sheet.AddRow()
			row.AddCell().SetString("Acme")
			row.AddCell().SetDate(created)
			row.AddCell().SetFloat(1250.5)
			row.AddCell().SetBool(true)
			row.AddCell().SetString("")
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Name", "Date Created", "Value", "Won", "Notes"}, rows[0])

	data := rows[1]
	assert.Equal(t, "Acme", data[0])
	got, ok := data[1].(time.Time)
	require.True(t, ok, "date cell should decode as time.Time, got %T", data[1])
	assert.Equal(t, created.Format("2006-01-02"), got.Format("2006-01-02"))
	assert.Equal(t, 1250.5, data[2])
	assert.Equal(t, true, data[3])
	assert.Nil(t, data[4])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string]func(*xlsx.Sheet){
		"First":  stringRows([]string{"a"}),
		"Second": stringRows([]string{"b"}, []string{"c"}),
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"b"}, {"c"}}, rows)
}

func TestReadXLSX_Errors(t *testing.T) {
	path := createTestXLSX(t, map[string]func(*xlsx.Sheet){
		"Only": stringRows([]string{"a"}),
	})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, `sheet "Missing" not found`)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.ErrorContains(t, err, "out of range")

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.ErrorContains(t, err, "xlsx: open file")
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"mm-dd-yy", true},
		{"d-mmm-yy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"[$-409]d/m/yyyy", true},
		{"m/d/yy h:mm", true},
		{"h:mm:ss", false},
		{"General", false},
		{"0.00", false},
		{"#,##0", false},
		{`0.0 "days"`, false},
		{"@", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateFormat(tt.format))
		})
	}
}
