package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/editor"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/pages"
	"github.com/ByLCY/vellum/stores/memory"
)

func TestAutosaverDebouncesChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pm := pages.NewManager(geom.Size{Width: 400, Height: 400})
	ed := editor.New(pm, editor.Options{})
	clk := clock.NewManual(time.Time{})
	a := NewAutosaver(store, ed, func() document.Document {
		return document.FromManager("", "auto", pm)
	}, AutosaveOptions{Delay: time.Second, Clock: clk})
	defer a.Close()

	id := ed.Add(element.Factory{Canvas: ed.CanvasSize()}.Shape(element.FormRectangle))
	clk.Advance(600 * time.Millisecond)
	ed.SetLocked(id, true)
	clk.Advance(600 * time.Millisecond)

	saved, err := a.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "第二次修改重置了静默期")

	clk.Advance(500 * time.Millisecond)
	saved, err = a.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, ed.Dirty())
	require.NotEmpty(t, a.ID())

	doc, err := store.Get(ctx, a.ID())
	require.NoError(t, err)
	require.Len(t, doc.Pages[0].Elements, 1)
	assert.True(t, doc.Pages[0].Elements[0].IsLocked)

	// 选择变化不触发保存
	ed.ClearSelection()
	assert.False(t, a.Pending())

	// 后续保存沿用同一个文档
	ed.SetLocked(id, false)
	require.NoError(t, a.Flush(ctx))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
