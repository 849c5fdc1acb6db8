package listing

import (
	"encoding/csv"
	"io"
	"strconv"

	"tally/internal/core"
)

// CSVHeader is the first record written by WriteCSV.
var CSVHeader = []string{"id", "name", "amount", "category", "date"}

// WriteCSV writes items as CSV with a header. Amounts are plain decimals
// with two places and no currency symbol.
func WriteCSV(w io.Writer, items []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range items {
		rec := []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Amount.String(),
			e.Category,
			e.Date.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
