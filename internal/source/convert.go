package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyMarks are stripped before a numeric cell is parsed.
var currencyMarks = []string{"$", "€", "£", "SEK", "kr"}

// ParseNumber converts a spreadsheet cell to a float.
// Handles currency symbols, thousands separators (comma, space and
// non-breaking space) and accounting format (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "").Replace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseCell turns a raw cell into a Value. Empty cells are null. Cells of a
// numeric column that do not parse as numbers are kept as strings.
func ParseCell(raw string, numeric bool) core.Value {
	s := CleanCell(raw)
	if s == "" {
		return core.Null
	}
	if numeric {
		if f, ok := ParseNumber(s); ok {
			return core.Number(f)
		}
	}
	return core.String(s)
}

// ParseRawCell is ParseCell for typed sources such as workbooks and database
// text columns. Their strings carry no CSV quoting artifacts, so text is kept
// verbatim and only the empty string is null.
func ParseRawCell(raw string, numeric bool) core.Value {
	if raw == "" {
		return core.Null
	}
	if numeric {
		if f, ok := ParseNumber(raw); ok {
			return core.Number(f)
		}
	}
	return core.String(raw)
}
