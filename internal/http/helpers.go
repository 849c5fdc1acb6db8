package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/expense"
	"tally/internal/form"
)

const requiredFieldsMessage = "Please fill in all required fields."

// viewQuery is the raw filter and sort selection carried in the URL.
type viewQuery struct {
	Start string
	End   string
	Sort  string
}

func viewQueryFrom(v url.Values) viewQuery {
	return viewQuery{
		Start: strings.TrimSpace(v.Get("start")),
		End:   strings.TrimSpace(v.Get("end")),
		Sort:  strings.TrimSpace(v.Get("sort")),
	}
}

// Encode returns the non-empty parameters as a query string without "?".
func (q viewQuery) Encode() string {
	v := url.Values{}
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.End != "" {
		v.Set("end", q.End)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v.Encode()
}

// Suffix is Encode with a leading "?", or empty.
func (q viewQuery) Suffix() string {
	if enc := q.Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

// View parses the query into a filter and ordering.
func (q viewQuery) View() (expense.View, error) {
	return expense.ParseView(q.Start, q.End, q.Sort)
}

// parseFormState reads the expense form fields from a parsed request.
func parseFormState(r *http.Request) form.State {
	return form.State{
		ID:       sanitizeInput(r.PostForm.Get("id")),
		Name:     sanitizeInput(r.PostForm.Get("name")),
		Amount:   sanitizeInput(r.PostForm.Get("amount")),
		Category: sanitizeInput(r.PostForm.Get("category")),
		Date:     sanitizeInput(r.PostForm.Get("date")),
	}
}

// sanitizeInput drops control characters other than tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// requestID reuses a well-formed inbound X-Request-ID or mints a new one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

// alertFor turns a validation failure into the blocking notification text.
func alertFor(err error) string {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return "Something went wrong. Please try again."
	}
	if verr.MissingRequired() {
		return requiredFieldsMessage
	}
	return strings.TrimPrefix(verr.Error(), "validation failed: ")
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
