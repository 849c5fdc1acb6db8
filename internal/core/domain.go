package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire and form representation of a calendar date.
const DateLayout = "2006-01-02"

// MaxNameLength caps expense names, counted in characters.
const MaxNameLength = 200

type (
	// Date is a calendar date normalized to midnight UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in cents.
	Money struct {
		Cents int64
	}

	// Expense is a single dated record. ID is assigned by the store and
	// never changes afterwards.
	Expense struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Date     Date   `json:"date"`
	}

	// Draft carries the user editable fields of an expense.
	Draft struct {
		Name     string
		Amount   Money
		Category string
		Date     Date
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		// Older blobs may carry full timestamps; only the date part matters.
		if ts, terr := time.Parse(time.RFC3339, s); terr == nil {
			return DateOf(ts), nil
		}
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compare returns -1, 0 or +1 comparing calendar days.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate reports every problem with the draft in a single ValidationError.
func (d Draft) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(d.Name) == "" {
		verr.add("name", ErrEmptyName)
	} else if utf8.RuneCountInString(d.Name) > MaxNameLength {
		verr.add("name", fmt.Errorf("name too long (max %d characters)", MaxNameLength))
	}
	if err := d.Amount.Validate(); err != nil {
		verr.add("amount", err)
	}
	if strings.TrimSpace(d.Category) == "" {
		verr.add("category", ErrEmptyCategory)
	}
	if err := d.Date.Validate(); err != nil {
		verr.add("date", err)
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Apply returns a copy of e carrying the draft fields. The ID is kept.
func (e Expense) Apply(d Draft) Expense {
	return Expense{
		ID:       e.ID,
		Name:     d.Name,
		Amount:   d.Amount,
		Category: d.Category,
		Date:     d.Date,
	}
}

// Draft returns the editable fields of e.
func (e Expense) Draft() Draft {
	return Draft{Name: e.Name, Amount: e.Amount, Category: e.Category, Date: e.Date}
}
