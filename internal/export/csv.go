package export

import (
	"encoding/csv"
	"io"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// flushInterval is how many records are buffered between flushes.
const flushInterval = 1000

// CSV writes a header and one record per row.
func CSV(w io.Writer, columns []string, rows []core.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return &core.ExportError{Format: string(FormatCSV), Err: err}
	}

	record := make([]string, len(columns))
	for i, row := range rows {
		for j, col := range columns {
			record[j] = formatCell(row.Get(col))
		}
		if err := cw.Write(record); err != nil {
			return &core.ExportError{Format: string(FormatCSV), Err: err}
		}
		if (i+1)%flushInterval == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return &core.ExportError{Format: string(FormatCSV), Err: err}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &core.ExportError{Format: string(FormatCSV), Err: err}
	}
	return nil
}
