package chartjs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/chart"
	"tally/internal/core"
)

func TestDrawProducesBarConfig(t *testing.T) {
	d := NewDrawer()
	r := chart.NewRenderer(d)

	inst, err := r.Render([]core.Expense{
		{Amount: core.Money{Cents: 350}, Category: "Food"},
		{Amount: core.Money{Cents: 200}, Category: "Transport"},
	})
	require.NoError(t, err)

	c := inst.(*Chart)
	js, err := c.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Equal(t, "bar", decoded["type"])

	cfg := c.Config()
	assert.Equal(t, []string{"Food", "Transport"}, cfg.Data.Labels)
	require.Len(t, cfg.Data.Datasets, 1)
	assert.Equal(t, chart.DefaultLabel, cfg.Data.Datasets[0].Label)
	assert.Equal(t, []float64{3.5, 2}, cfg.Data.Datasets[0].Data)
	assert.True(t, cfg.Options.Scales["y"].BeginAtZero)
}

func TestRepeatedRendersDoNotLeak(t *testing.T) {
	d := NewDrawer()
	r := chart.NewRenderer(d)
	for i := 0; i < 10; i++ {
		_, err := r.Render(nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), d.Live())

	old := r.Current().(*Chart)
	_, err := r.Render(nil)
	require.NoError(t, err)
	_, err = old.JSON()
	assert.ErrorIs(t, err, ErrDestroyed)

	require.NoError(t, r.Close())
	assert.Equal(t, int64(0), d.Live())
}

func TestEmptyChartEncodesArrays(t *testing.T) {
	inst, err := NewDrawer().Draw(chart.BarConfig{Label: "x"})
	require.NoError(t, err)
	js, err := inst.(*Chart).JSON()
	require.NoError(t, err)
	assert.Contains(t, string(js), `"labels":[]`)
	assert.Contains(t, string(js), `"data":[]`)
}
