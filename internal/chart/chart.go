// Package chart aggregates expenses by category and hands the result to
// an external drawing collaborator.
package chart

import (
	"errors"
	"fmt"
	"sync"

	"tally/internal/core"
)

// DefaultLabel names the single dataset of the bar chart.
const DefaultLabel = "Expenses by Category"

// Series holds parallel labels and values, one entry per category.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Aggregate sums amounts per category in first-seen order.
func Aggregate(items []core.Expense) Series {
	groups := core.ByCategory(items)
	s := Series{Labels: make([]string, len(groups)), Values: make([]float64, len(groups))}
	for i, g := range groups {
		s.Labels[i] = g.Name
		s.Values[i] = g.Amount.Float()
	}
	return s
}

// BarConfig is what a Drawer needs to draw one bar chart.
type BarConfig struct {
	Label  string
	Series Series
}

// Instance is a live drawn chart. Destroy releases it.
type Instance interface {
	Destroy() error
}

// Drawer is the charting collaborator.
type Drawer interface {
	Draw(cfg BarConfig) (Instance, error)
}

// Renderer owns at most one live chart instance and replaces it on every
// Render.
type Renderer struct {
	mu      sync.Mutex
	drawer  Drawer
	label   string
	current Instance
}

func NewRenderer(d Drawer) *Renderer {
	return &Renderer{drawer: d, label: DefaultLabel}
}

// Render releases the previous instance and draws a new one from items.
// If drawing fails the renderer is left without a live instance.
func (r *Renderer) Render(items []core.Expense) (Instance, error) {
	return r.render(items, nil)
}

// RenderWith renders like Render and calls use with the new instance
// before any concurrent Render can replace it.
func (r *Renderer) RenderWith(items []core.Expense, use func(Instance) error) error {
	_, err := r.render(items, use)
	return err
}

func (r *Renderer) render(items []core.Expense, use func(Instance) error) (Instance, error) {
	cfg := BarConfig{Label: r.label, Series: Aggregate(items)}

	r.mu.Lock()
	defer r.mu.Unlock()

	var destroyErr error
	if r.current != nil {
		destroyErr = r.current.Destroy()
		r.current = nil
	}

	inst, err := r.drawer.Draw(cfg)
	if err != nil {
		return nil, errors.Join(destroyErr, fmt.Errorf("draw chart: %w", err))
	}
	r.current = inst
	if destroyErr != nil {
		destroyErr = fmt.Errorf("destroy previous chart: %w", destroyErr)
	}
	if use != nil {
		if err := use(inst); err != nil {
			return inst, errors.Join(destroyErr, err)
		}
	}
	return inst, destroyErr
}

// Current returns the live instance, or nil.
func (r *Renderer) Current() Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Close destroys the live instance, if any.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	err := r.current.Destroy()
	r.current = nil
	return err
}
