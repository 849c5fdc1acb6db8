// Package listing projects a collection of expenses to display rows and a
// running total.
package listing

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"tally/internal/core"
)

// DefaultCurrency prefixes every formatted amount.
const DefaultCurrency = "$"

// Row is one displayed expense with actions bound to its id.
type Row struct {
	ID        int64
	Name      string
	Amount    string
	Category  string
	Date      string
	EditURL   string
	DeleteURL string
}

// Page is a complete rendering; it replaces any previous one.
type Page struct {
	Rows       []Row
	Total      string
	TotalCents int64
	Count      int
}

type Renderer struct {
	Currency string
}

func NewRenderer(currency string) Renderer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Renderer{Currency: currency}
}

func (r Renderer) Render(items []core.Expense) Page {
	p := Page{Rows: make([]Row, 0, len(items)), Count: len(items)}
	total := core.Total(items)
	for _, e := range items {
		id := strconv.FormatInt(e.ID, 10)
		p.Rows = append(p.Rows, Row{
			ID:        e.ID,
			Name:      e.Name,
			Amount:    e.Amount.Format(r.Currency),
			Category:  e.Category,
			Date:      e.Date.String(),
			EditURL:   "/expenses/" + id + "/edit",
			DeleteURL: "/expenses/" + id + "/delete",
		})
	}
	p.Total = total.Format(r.Currency)
	p.TotalCents = total.Cents
	return p
}

// WriteText prints the page as an aligned table followed by the total.
func WriteText(w io.Writer, p Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tCATEGORY\tDATE")
	for _, row := range p.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.ID, row.Name, row.Amount, row.Category, row.Date)
	}
	fmt.Fprintf(tw, "\t\t\t\t\nTOTAL\t\t%s\t\t\n", p.Total)
	return tw.Flush()
}
