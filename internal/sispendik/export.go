package sispendik

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var dimensionTitles = map[Dimension]string{
	DimensionClass:     "Kelas",
	DimensionTeacher:   "Guru",
	DimensionWasteType: "Jenis Sampah",
}

// WriteReportXLSX renders one period report as a single-sheet workbook:
// header row, one row per entity, totals row.
func WriteReportXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Laporan " + rep.Period.String()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	headers := []string{"No", dimensionTitles[rep.Dimension], "Total (kg)", "Nilai (Rp)", "Jenis Sampah"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	// Amounts go in as numeric cells holding the exact decimal text.
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return errors.Wrap(err, "amount style")
	}

	row := 2
	for i, g := range rep.Rows {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), g.Label)
		f.SetCellDefault(sheetName, fmt.Sprintf("C%d", row), g.TotalKg.StringFixed(2))
		f.SetCellDefault(sheetName, fmt.Sprintf("D%d", row), g.TotalValue.StringFixed(2))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), g.WasteTypeList())
		row++
	}

	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "Total")
	f.SetCellDefault(sheetName, fmt.Sprintf("C%d", row), rep.TotalKg.StringFixed(2))
	f.SetCellDefault(sheetName, fmt.Sprintf("D%d", row), rep.TotalValue.StringFixed(2))
	f.SetCellStyle(sheetName, "C2", fmt.Sprintf("D%d", row), amount)

	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "E", "E", 40)

	return errors.Wrap(f.Write(w), "write xlsx")
}
