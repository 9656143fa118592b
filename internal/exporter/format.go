package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"almanac/internal/bars"
)

// formatFloat formats a float64 value for CSV output in its shortest exact
// form. Undefined statistics become empty cells.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders one table cell for CSV output
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case int:
		return formatInt(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return formatBool(x)
	case bars.Date:
		return x.String()
	case time.Time:
		return x.Format("15:04")
	default:
		return fmt.Sprint(x)
	}
}

// workbookCell converts a table cell into a value excelize writes natively.
// Non-finite floats become blank cells.
func workbookCell(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case bars.Date, time.Time:
		return formatCell(x)
	default:
		return v
	}
}
