// Package form maps raw user input onto store operations and tracks
// whether the form is creating a new expense or editing an existing one.
package form

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/log"
)

// Mode is Create while the hidden id is empty and Edit otherwise.
type Mode int

const (
	Create Mode = iota
	Edit
)

const (
	AddLabel  = "Add Expense"
	EditLabel = "Edit Expense"
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// State is the raw content of the form, hidden id included.
type State struct {
	ID       string
	Name     string
	Amount   string
	Category string
	Date     string
}

func (s State) Mode() Mode {
	if strings.TrimSpace(s.ID) == "" {
		return Create
	}
	return Edit
}

func (s State) SubmitLabel() string {
	if s.Mode() == Edit {
		return EditLabel
	}
	return AddLabel
}

// Repository is the part of the expense store the form drives.
type Repository interface {
	Add(ctx context.Context, d core.Draft) (core.Expense, error)
	Update(ctx context.Context, id int64, d core.Draft) (bool, error)
	Get(id int64) (core.Expense, error)
}

type Controller struct {
	repo   Repository
	now    func() time.Time
	logger *log.Logger
}

func NewController(repo Repository, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	return &Controller{repo: repo, now: time.Now, logger: logger.WithComponent(log.ComponentForm)}
}

// WithClock returns a copy of c that uses now for the default date.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	cp := *c
	cp.now = now
	return &cp
}

// Validate fails when any required field is empty or the amount is not a
// positive number.
func Validate(name, amount, category string) error {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(amount) == "" {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return core.Required(missing...)
	}
	if _, err := core.ParseAmount(amount); err != nil {
		return core.Invalid("amount", err)
	}
	return nil
}

// Submit validates st and creates or updates an expense depending on the
// hidden id. On success it returns the reset form. On failure st is
// returned unchanged so the user can correct it.
func (c *Controller) Submit(ctx context.Context, st State) (State, error) {
	d, err := c.draft(st)
	if err != nil {
		c.logger.DebugContext(ctx, "Form rejected", log.FieldOperation, log.OpValidate, log.FieldError, err)
		return st, err
	}

	switch st.Mode() {
	case Edit:
		id, err := ParseID(st.ID)
		if err != nil {
			return st, core.Invalid("id", err)
		}
		if _, err := c.repo.Update(ctx, id, d); err != nil {
			return st, fmt.Errorf("update expense %d: %w", id, err)
		}
	default:
		if _, err := c.repo.Add(ctx, d); err != nil {
			return st, fmt.Errorf("add expense: %w", err)
		}
	}
	return c.Reset(), nil
}

// StartEdit loads the expense into a form in Edit mode. Unknown ids fail
// with core.ErrNotFound.
func (c *Controller) StartEdit(id int64) (State, error) {
	e, err := c.repo.Get(id)
	if err != nil {
		return State{}, err
	}
	return FromExpense(e), nil
}

// Reset returns an empty form in Create mode.
func (c *Controller) Reset() State {
	return State{}
}

// FromExpense fills a form from e, hidden id included.
func FromExpense(e core.Expense) State {
	return State{
		ID:       strconv.FormatInt(e.ID, 10),
		Name:     e.Name,
		Amount:   e.Amount.String(),
		Category: e.Category,
		Date:     e.Date.String(),
	}
}

// ParseID parses a decimal expense id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

func (c *Controller) draft(st State) (core.Draft, error) {
	if err := Validate(st.Name, st.Amount, st.Category); err != nil {
		return core.Draft{}, err
	}
	amount, err := core.ParseAmount(st.Amount)
	if err != nil {
		return core.Draft{}, core.Invalid("amount", err)
	}
	date := core.DateOf(c.now().UTC())
	if strings.TrimSpace(st.Date) != "" {
		if date, err = core.ParseDate(st.Date); err != nil {
			return core.Draft{}, core.Invalid("date", err)
		}
	}
	return core.Draft{
		Name:     strings.TrimSpace(st.Name),
		Amount:   amount,
		Category: strings.TrimSpace(st.Category),
		Date:     date,
	}, nil
}
