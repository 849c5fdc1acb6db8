package chart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

type fakeInstance struct {
	cfg       BarConfig
	destroyed int
	err       error
}

func (f *fakeInstance) Destroy() error {
	f.destroyed++
	return f.err
}

type fakeDrawer struct {
	drawn []*fakeInstance
	err   error
}

func (f *fakeDrawer) Draw(cfg BarConfig) (Instance, error) {
	if f.err != nil {
		return nil, f.err
	}
	inst := &fakeInstance{cfg: cfg}
	f.drawn = append(f.drawn, inst)
	return inst, nil
}

func scenario() []core.Expense {
	return []core.Expense{
		{ID: 1, Name: "Coffee", Amount: core.Money{Cents: 350}, Category: "Food"},
		{ID: 2, Name: "Bus", Amount: core.Money{Cents: 200}, Category: "Transport"},
	}
}

func TestAggregate(t *testing.T) {
	items := append(scenario(), core.Expense{Name: "Bagel", Amount: core.Money{Cents: 125}, Category: "Food"})
	s := Aggregate(items)
	assert.Equal(t, []string{"Food", "Transport"}, s.Labels)
	assert.Equal(t, []float64{4.75, 2.00}, s.Values)

	empty := Aggregate(nil)
	assert.Empty(t, empty.Labels)
	assert.Empty(t, empty.Values)
}

func TestRendererReplacesPreviousInstance(t *testing.T) {
	d := &fakeDrawer{}
	r := NewRenderer(d)

	first, err := r.Render(scenario())
	require.NoError(t, err)
	second, err := r.Render(scenario()[:1])
	require.NoError(t, err)

	require.Len(t, d.drawn, 2)
	assert.Equal(t, 1, d.drawn[0].destroyed, "previous chart must be released")
	assert.Equal(t, 0, d.drawn[1].destroyed)
	assert.Same(t, second, r.Current())
	assert.NotSame(t, first, r.Current())
	assert.Equal(t, DefaultLabel, d.drawn[1].cfg.Label)
	assert.Equal(t, []string{"Food"}, d.drawn[1].cfg.Series.Labels)

	require.NoError(t, r.Close())
	assert.Equal(t, 1, d.drawn[1].destroyed)
	assert.Nil(t, r.Current())
	require.NoError(t, r.Close())
}

func TestRendererDrawFailureLeavesNoInstance(t *testing.T) {
	d := &fakeDrawer{}
	r := NewRenderer(d)
	_, err := r.Render(scenario())
	require.NoError(t, err)

	d.err = errors.New("canvas gone")
	_, err = r.Render(scenario())
	assert.ErrorContains(t, err, "canvas gone")
	assert.Nil(t, r.Current())
	assert.Equal(t, 1, d.drawn[0].destroyed)
}

func TestRenderWithRunsBeforeReplacement(t *testing.T) {
	d := &fakeDrawer{}
	r := NewRenderer(d)
	var seen Instance
	err := r.RenderWith(scenario(), func(inst Instance) error {
		seen = inst
		assert.Equal(t, 0, inst.(*fakeInstance).destroyed)
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, seen, r.Current())

	err = r.RenderWith(scenario(), func(Instance) error { return errors.New("template broke") })
	assert.ErrorContains(t, err, "template broke")
}
