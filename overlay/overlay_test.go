package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/interact"
)

func shapeAt(id string, r geom.Rect) element.Element {
	e := element.Factory{}.Shape(element.FormRectangle)
	e.ID = id
	e.Rect = r
	return e
}

func TestComputeSingleSelection(t *testing.T) {
	vp := geom.Viewport{Origin: geom.Point{X: 50, Y: 20}, Scale: 2}
	el := shapeAt("a", geom.Rect{X: 100, Y: 100, Width: 50, Height: 20})
	l := Compute([]element.Element{el}, vp, geom.Size{Width: 1200, Height: 800}, DefaultOptions())

	require.True(t, l.Visible)
	assert.Equal(t, geom.Rect{X: 250, Y: 220, Width: 100, Height: 40}, l.Box)
	require.Len(t, l.Handles, 8)

	centers := map[interact.Direction]geom.Point{}
	for _, h := range l.Handles {
		centers[h.Direction] = h.Center
	}
	assert.Equal(t, geom.Point{X: 250, Y: 220}, centers[interact.NW])
	assert.Equal(t, geom.Point{X: 350, Y: 260}, centers[interact.SE])
	assert.Equal(t, geom.Point{X: 300, Y: 220}, centers[interact.N])

	// 操作栏位于上方居中
	assert.Equal(t, Above, l.Placement)
	assert.Equal(t, geom.Rect{X: 180, Y: 172, Width: 240, Height: 40}, l.Bar)
}

func TestComputeMultiSelectionHasNoHandles(t *testing.T) {
	a := shapeAt("a", geom.Rect{X: 0, Y: 100, Width: 10, Height: 10})
	b := shapeAt("b", geom.Rect{X: 90, Y: 150, Width: 10, Height: 10})
	l := Compute([]element.Element{a, b}, geom.Viewport{Scale: 1}, geom.Size{}, DefaultOptions())
	assert.Equal(t, geom.Rect{X: 0, Y: 100, Width: 100, Height: 60}, l.Box)
	assert.Empty(t, l.Handles)
}

func TestBarFlipsBelowAndClampsToWindow(t *testing.T) {
	el := shapeAt("a", geom.Rect{X: 0, Y: 10, Width: 40, Height: 40})
	l := Compute([]element.Element{el}, geom.Viewport{Scale: 1}, geom.Size{Width: 600, Height: 400}, DefaultOptions())
	assert.Equal(t, Below, l.Placement)
	assert.Equal(t, 58.0, l.Bar.Y)
	assert.Equal(t, 8.0, l.Bar.X)
}

func TestLockedElementHasNoHandles(t *testing.T) {
	el := shapeAt("a", geom.Rect{X: 0, Y: 100, Width: 40, Height: 40})
	el.IsLocked = true
	l := Compute([]element.Element{el}, geom.Viewport{Scale: 1}, geom.Size{}, DefaultOptions())
	assert.True(t, l.Visible)
	assert.Empty(t, l.Handles)

	assert.False(t, Compute(nil, geom.Viewport{Scale: 1}, geom.Size{}, DefaultOptions()).Visible)
}

func TestPositionerDebouncesWindowEvents(t *testing.T) {
	clk := clock.NewManual(time.Time{})
	calls := 0
	p := NewPositioner(func() Layout {
		calls++
		return Layout{Visible: true}
	}, clk, 50*time.Millisecond)

	for range 5 {
		p.Invalidate()
		clk.Advance(20 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Equal(t, 0, calls)

	clk.Advance(30 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Equal(t, 1, calls)
	assert.True(t, p.Layout().Visible)
	assert.False(t, p.Tick())

	p.Invalidate()
	p.Update()
	assert.False(t, p.Pending())
	assert.Equal(t, 2, calls)
}
