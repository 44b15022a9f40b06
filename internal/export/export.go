// Package export serializes filtered registry rows as spreadsheet files.
//
// Exports always carry the full column set of the dataset, whatever the
// user currently shows on screen. Failures are returned as *core.ExportError
// and are never retried.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// Format identifies an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Options controls spreadsheet output.
type Options struct {
	// SheetName is the worksheet name. Defaults to "Sheet1".
	SheetName string
	// NumericColumns are written as numbers with a thousands format.
	NumericColumns []string
}

// Write serializes rows in format f.
func Write(w io.Writer, f Format, columns []string, rows []core.Row, opts Options) error {
	switch f {
	case FormatCSV:
		return CSV(w, columns, rows)
	case FormatXLSX:
		return XLSX(w, columns, rows, opts)
	default:
		return &core.ExportError{Format: string(f), Err: fmt.Errorf("unsupported export format %q", f)}
	}
}

// Filename builds a download name like "my_dataframe_20240301_142500.xlsx".
func Filename(base string, f Format, now time.Time) string {
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), f)
}

// formatCell renders a value for text output. Whole numbers have no decimals.
func formatCell(v core.Value) string {
	switch v.Kind {
	case core.KindNumber:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case core.KindString:
		return v.Str
	default:
		return ""
	}
}
