package export

import (
	"io"
	"slices"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/xuri/excelize/v2"
)

// moneyFormat is Excel built-in number format 3: "#,##0".
const moneyFormat = 3

// XLSX writes one worksheet with a bold header row. Rows are streamed, so
// memory use does not grow with the row count beyond excelize's buffer.
func XLSX(w io.Writer, columns []string, rows []core.Row, opts Options) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return xlsxErr(err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return xlsxErr(err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return xlsxErr(err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return xlsxErr(err)
	}

	header := make([]any, len(columns))
	numeric := make([]bool, len(columns))
	for i, col := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: col}
		numeric[i] = slices.Contains(opts.NumericColumns, col)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return xlsxErr(err)
	}

	for i, row := range rows {
		cells := make([]any, len(columns))
		for j, col := range columns {
			v := row.Get(col)
			switch {
			case v.IsNull():
				cells[j] = nil
			case numeric[j] && v.Kind == core.KindNumber:
				cells[j] = excelize.Cell{StyleID: moneyStyle, Value: v.Num}
			default:
				cells[j] = v.Interface()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return xlsxErr(err)
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return xlsxErr(err)
		}
	}

	if err := sw.Flush(); err != nil {
		return xlsxErr(err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return xlsxErr(err)
	}
	return nil
}

func xlsxErr(err error) error {
	return &core.ExportError{Format: string(FormatXLSX), Err: err}
}
