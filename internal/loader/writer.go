package loader

import (
	"encoding/csv"
	"io"
	"strconv"

	"almanac/internal/bars"
)

// Write stores series in the headerless text layout Read accepts. Daily
// resolution omits the time column.
func Write(w io.Writer, series []bars.Bar, res Resolution) error {
	cw := csv.NewWriter(w)
	for _, b := range series {
		record := make([]string, 0, 7)
		record = append(record, b.Time.Format("01/02/2006"))
		if res != Daily {
			record = append(record, b.Time.Format("15:04"))
		}
		record = append(record,
			formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low),
			formatFloat(b.Close), formatFloat(b.Volume))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
