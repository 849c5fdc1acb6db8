package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"tally/internal/chart"
	"tally/internal/core"
	"tally/internal/expense"
	"tally/internal/form"
	"tally/internal/listing"
	"tally/internal/log"
)

// chartJSON is implemented by chart instances that can be handed to the
// page script.
type chartJSON interface {
	JSON() (template.JS, error)
}

type pageData struct {
	Form        form.State
	SubmitLabel string
	Editing     bool
	Page        listing.Page
	Chart       template.JS
	Query       viewQuery
	Suffix      string
	Alert       string
}

type apiResponse struct {
	Expenses   []core.Expense `json:"expenses"`
	Count      int            `json:"count"`
	Total      core.Money     `json:"total"`
	ByCategory chart.Series   `json:"by_category"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.templates == nil || s.store == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.forms.Reset(), viewQueryFrom(r.URL.Query()), "")
}

// handleSubmit creates or updates an expense from the posted form. The
// view selection travels in the action URL so the redirect keeps it.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	q := viewQueryFrom(r.URL.Query())

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Parse form error", log.FieldError, err)
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	st := parseFormState(r)
	if _, err := s.forms.Submit(ctx, st); err != nil {
		if core.IsValidation(err) {
			logger.InfoContext(ctx, "Expense rejected", log.FieldOperation, log.OpValidate, log.FieldError, err)
			s.renderPage(w, r, http.StatusUnprocessableEntity, st, q, alertFor(err))
			return
		}
		logger.ErrorContext(ctx, "Expense save failed", log.FieldError, err, "mode", st.Mode().String())
		s.renderPage(w, r, http.StatusInternalServerError, st, q, "Failed to save expense. Please try again.")
		return
	}

	http.Redirect(w, r, "/"+q.Suffix(), http.StatusSeeOther)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	q := viewQueryFrom(r.URL.Query())
	id, err := form.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderPage(w, r, http.StatusNotFound, s.forms.Reset(), q, "Expense not found.")
		return
	}

	st, err := s.forms.StartEdit(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.renderPage(w, r, http.StatusNotFound, s.forms.Reset(), q, "Expense not found.")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Start edit failed", log.FieldExpenseID, id, log.FieldError, err)
		s.renderPage(w, r, http.StatusInternalServerError, s.forms.Reset(), q, "Failed to load expense.")
		return
	}
	s.renderPage(w, r, http.StatusOK, st, q, "")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	q := viewQueryFrom(r.URL.Query())

	id, err := form.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderPage(w, r, http.StatusNotFound, s.forms.Reset(), q, "Expense not found.")
		return
	}

	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "Expense delete failed", log.FieldExpenseID, id, log.FieldError, err)
		s.renderPage(w, r, http.StatusInternalServerError, s.forms.Reset(), q, "Failed to delete expense. Please try again.")
		return
	}
	if !removed {
		logger.DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, id)
	}

	http.Redirect(w, r, "/"+q.Suffix(), http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := viewQueryFrom(r.URL.Query()).View()
	if err != nil {
		http.Error(w, alertFor(err), http.StatusBadRequest)
		return
	}

	items := view.Apply(s.store.All())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	if err := listing.WriteCSV(w, items); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "CSV export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
	}
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := viewQueryFrom(r.URL.Query()).View()
	if err != nil {
		_ = writeJSON(w, http.StatusBadRequest, map[string]string{"error": alertFor(err)})
		return
	}

	items := view.Apply(s.store.All())
	resp := apiResponse{
		Expenses:   items,
		Count:      len(items),
		Total:      core.Total(items),
		ByCategory: chart.Aggregate(items),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "JSON encode failed", log.FieldError, err)
	}
}

// renderPage draws the full page for the selected view: form, list,
// total and chart. A malformed view selection falls back to the full
// collection and is reported in the alert.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, st form.State, q viewQuery, alert string) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view, err := q.View()
	if err != nil {
		view = expense.View{}
		if alert == "" {
			alert = alertFor(err)
		}
		if status == http.StatusOK {
			status = http.StatusBadRequest
		}
	}

	items := view.Apply(s.store.All())
	data := pageData{
		Form:        st,
		SubmitLabel: st.SubmitLabel(),
		Editing:     st.Mode() == form.Edit,
		Page:        s.lister.Render(items),
		Query:       q,
		Suffix:      q.Suffix(),
		Alert:       alert,
	}

	if s.charts != nil {
		err := s.charts.RenderWith(items, func(inst chart.Instance) error {
			j, ok := inst.(chartJSON)
			if !ok {
				return fmt.Errorf("chart instance %T has no JSON form", inst)
			}
			js, err := j.JSON()
			if err != nil {
				return err
			}
			data.Chart = js
			return nil
		})
		if err != nil {
			logger.ErrorContext(ctx, "Chart render failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		}
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
