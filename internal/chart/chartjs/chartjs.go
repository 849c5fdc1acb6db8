// Package chartjs draws bar charts as Chart.js configurations. The page
// script hands the configuration to Chart.js in the browser.
package chartjs

import (
	"encoding/json"
	"errors"
	"html/template"
	"sync/atomic"

	"tally/internal/chart"
)

var ErrDestroyed = errors.New("chartjs: chart destroyed")

var (
	backgroundColors = []string{
		"rgba(75, 192, 192, 0.2)",
		"rgba(255, 99, 132, 0.2)",
		"rgba(255, 206, 86, 0.2)",
		"rgba(54, 162, 235, 0.2)",
	}
	borderColors = []string{
		"rgba(75, 192, 192, 1)",
		"rgba(255, 99, 132, 1)",
		"rgba(255, 206, 86, 1)",
		"rgba(54, 162, 235, 1)",
	}
)

type (
	Config struct {
		Type    string  `json:"type"`
		Data    Data    `json:"data"`
		Options Options `json:"options"`
	}

	Data struct {
		Labels   []string  `json:"labels"`
		Datasets []Dataset `json:"datasets"`
	}

	Dataset struct {
		Label           string    `json:"label"`
		Data            []float64 `json:"data"`
		BackgroundColor []string  `json:"backgroundColor"`
		BorderColor     []string  `json:"borderColor"`
		BorderWidth     int       `json:"borderWidth"`
	}

	Options struct {
		Scales map[string]Axis `json:"scales"`
	}

	Axis struct {
		BeginAtZero bool `json:"beginAtZero"`
	}
)

// Drawer counts live charts so leaks show up in tests and logs.
type Drawer struct {
	live atomic.Int64
}

func NewDrawer() *Drawer {
	return &Drawer{}
}

// Live returns the number of charts drawn and not yet destroyed.
func (d *Drawer) Live() int64 {
	return d.live.Load()
}

func (d *Drawer) Draw(cfg chart.BarConfig) (chart.Instance, error) {
	labels := cfg.Series.Labels
	if labels == nil {
		labels = []string{}
	}
	values := cfg.Series.Values
	if values == nil {
		values = []float64{}
	}
	c := &Chart{
		owner: d,
		config: Config{
			Type: "bar",
			Data: Data{
				Labels: labels,
				Datasets: []Dataset{{
					Label:           cfg.Label,
					Data:            values,
					BackgroundColor: backgroundColors,
					BorderColor:     borderColors,
					BorderWidth:     1,
				}},
			},
			Options: Options{Scales: map[string]Axis{"y": {BeginAtZero: true}}},
		},
	}
	d.live.Add(1)
	return c, nil
}

// Chart is one drawn configuration.
type Chart struct {
	owner     *Drawer
	config    Config
	destroyed atomic.Bool
}

func (c *Chart) Config() Config {
	return c.config
}

// JSON returns the configuration for embedding in a page script.
func (c *Chart) JSON() (template.JS, error) {
	if c.destroyed.Load() {
		return "", ErrDestroyed
	}
	b, err := json.Marshal(c.config)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

func (c *Chart) Destroy() error {
	if c.destroyed.CompareAndSwap(false, true) {
		c.owner.live.Add(-1)
	}
	return nil
}
