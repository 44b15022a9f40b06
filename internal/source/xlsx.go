package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is wrapped by LoadError when the configured sheet is
// missing from the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// LoadXLSXFile reads one sheet of a workbook into a dataset. An empty sheet
// name selects the first sheet.
func LoadXLSXFile(path, sheet string, schema Schema) (*core.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &core.LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return loadWorkbook(f, path, sheet, schema)
}

// LoadXLSX reads one sheet of a workbook from r.
func LoadXLSX(r io.Reader, name, sheet string, schema Schema) (*core.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}
	defer f.Close()

	return loadWorkbook(f, name, sheet, schema)
}

func loadWorkbook(f *excelize.File, name, sheet string, schema Schema) (*core.Dataset, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &core.LoadError{Source: name, Err: core.ErrEmptySource}
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &core.LoadError{Source: name, Err: fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}
	defer rows.Close()

	// Raw values keep numbers unformatted so ParseNumber sees "1234.5"
	// rather than the cell's display format.
	opts := excelize.Options{RawCellValue: true}

	var b *builder
	for rows.Next() {
		record, err := rows.Columns(opts)
		if err != nil {
			return nil, &core.LoadError{Source: name, Err: err}
		}
		if b == nil {
			if isBlank(record) {
				continue
			}
			if b, err = newBuilder(name, schema, record); err != nil {
				return nil, err
			}
			b.parse = ParseRawCell
			continue
		}
		b.add(record)
	}
	if err := rows.Error(); err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}
	if b == nil {
		return nil, &core.LoadError{Source: name, Err: core.ErrEmptySource}
	}

	slog.Debug("xlsx source read", "source", name, "sheet", sheet, "rows", len(b.rows))
	return b.dataset()
}

func isBlank(record []string) bool {
	for _, c := range record {
		if CleanCell(c) != "" {
			return false
		}
	}
	return true
}
