package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/config"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/stores/memory"
	"github.com/ByLCY/vellum/textfit"
)

func newSession(t *testing.T, data any) *Session {
	t.Helper()
	n := 0
	return New(document.New("test", geom.Size{Width: 1000, Height: 1000}), Options{
		Settings: config.Default(),
		Measurer: textfit.Heuristic{},
		Clock:    clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Data:     data,
		NewID: func() string {
			n++
			return fmt.Sprintf("el-%d", n)
		},
	})
}

func run(t *testing.T, s *Session, script string) *Report {
	t.Helper()
	report, err := s.RunString(context.Background(), script)
	require.NoError(t, err)
	return report
}

func TestDragCoalescesIntoOneHistoryStep(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape x=100 y=100 width=100 height=100 as box
drag box 37 41 steps=2
expect box x=137 y=141 selected=true
`)
	assert.Equal(t, "137,141", report.Steps[1].Result)
	assert.Len(t, report.History, 2)
	assert.Equal(t, []string{"el-1"}, report.Selection)

	run(t, s, "undo\nexpect ${box} x=100 y=100")
}

func TestDragSnapsToCanvasCenter(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape x=100 y=100 width=100 height=100 as box
drag box 345 0
expect box x=450 y=100
`)
	g := report.Steps[1].Guides
	require.NotNil(t, g)
	assert.Equal(t, []float64{500}, g.Vertical)
	assert.Empty(t, g.Horizontal)
}

func TestShortDragIsClick(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape x=100 y=100 as a
add shape x=300 y=300 as b
drag a 2 1
`)
	assert.Equal(t, "click", report.Steps[2].Result)
	assert.Equal(t, []string{"el-1"}, report.Selection)
	assert.Len(t, report.History, 2)
}

func TestResizeFromHandle(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape x=100 y=100 width=100 height=100 as box
resize box se 50 20 steps=3
expect box x=100 y=100 width=150 height=120
resize box nw 10 10
expect box x=110 y=110 width=140 height=110
`)
	assert.Equal(t, "150x120", report.Steps[1].Result)
	assert.Len(t, report.History, 3)
}

func TestLockedElementRejectsDrag(t *testing.T) {
	s := newSession(t, nil)
	report, err := s.RunString(context.Background(), `
add shape as a
lock a
drag a 50 0
expect a x=0
`)
	require.ErrorIs(t, err, ErrRejected)
	require.Len(t, report.Steps, 3)
	assert.NotEmpty(t, report.Steps[2].Error)
	assert.Empty(t, report.Overlay.Handles)
}

func TestAddTextFitsAndCenters(t *testing.T) {
	s := newSession(t, map[string]any{"user": map[string]any{"name": "Hello"}})
	run(t, s, `
add text content="${user.name}" fontSize=20 as title
expect title content=Hello width=62 height=24 x=469 y=488
edit title "Hello!"
expect title width=74 x=463
`)
}

func TestPagesAndBindings(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
page Second 500 400 as p2
add shape as box
`)
	assert.Equal(t, report.Bindings["p2"], report.PageID)
	assert.Equal(t, geom.Size{Width: 500, Height: 400}, report.CanvasSize)
	assert.True(t, report.Dirty)

	run(t, s, "expect box x=200 y=150")
	assert.Len(t, s.Snapshot().Pages, 2)
	assert.Equal(t, 1, s.Snapshot().ElementCount())
}

func TestExpectationFailure(t *testing.T) {
	s := newSession(t, nil)
	_, err := s.RunString(context.Background(), "add shape x=10 y=10 as a\nexpect a x=11")
	require.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "x=10")

	_, err = s.RunString(context.Background(), "delete a\nexpect a exists=false")
	require.NoError(t, err)
}

func TestOverlayWaitsForDebounce(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, "add shape x=100 y=100 width=100 height=100\nzoom 2")
	assert.Equal(t, geom.Rect{X: 100, Y: 100, Width: 100, Height: 100}, report.Overlay.Box)

	report = run(t, s, "wait 20ms")
	assert.Equal(t, 100.0, report.Overlay.Box.X)

	report = run(t, s, "wait 40ms")
	assert.Equal(t, geom.Rect{X: 200, Y: 200, Width: 200, Height: 200}, report.Overlay.Box)
}

func TestReorderAndMultiSelect(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape as a
add shape as b
add shape as c
back c
expect c index=0
select a b
delete selected
`)
	assert.Equal(t, "el-1,el-2", report.Steps[6].Result)
	assert.Equal(t, "canvas", report.SelectionMode)
	assert.Len(t, report.Elements, 1)
}

func TestInvalidScript(t *testing.T) {
	s := newSession(t, nil)
	report, err := s.RunString(context.Background(), "drag a")
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, dsl.ErrInvalid))

	_, err = s.RunString(context.Background(), "select ${missing}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestWaitTriggersAutosave(t *testing.T) {
	store := memory.NewStore()
	s := New(document.New("auto", geom.Size{Width: 400, Height: 400}), Options{
		Settings: config.Default(),
		Measurer: textfit.Heuristic{},
		Clock:    clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Store:    store,
	})
	defer s.Close()

	report := run(t, s, "add shape x=10 y=10 as box\nwait 500ms\nwait 600ms")
	assert.NotContains(t, report.Steps[1].Result, "autosave")
	assert.Contains(t, report.Steps[2].Result, "autosave")
	assert.False(t, report.Dirty)

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	doc, err := store.Get(context.Background(), metas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ElementCount())

	// 选择变化不触发保存
	report = run(t, s, "select none\nwait 2s")
	assert.NotContains(t, report.Steps[1].Result, "autosave")

	saved, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestSaveWithoutStore(t *testing.T) {
	s := newSession(t, nil)
	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestClickRightAfterResizeIsSwallowed(t *testing.T) {
	s := newSession(t, nil)
	report := run(t, s, `
add shape x=100 y=100 width=100 height=100 as box
resize box se 10 10
drag box 1 0
wait 250ms
drag box 1 0
`)
	assert.Equal(t, "100,100", report.Steps[2].Result)
	assert.Equal(t, "click", report.Steps[4].Result)
}
