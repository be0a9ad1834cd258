package editor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/interact"
	"github.com/ByLCY/vellum/pages"
)

var _ interact.Store = (*Editor)(nil)

func newEditor(t *testing.T) (*Editor, *pages.Manager) {
	t.Helper()
	pm := pages.NewManager(geom.Size{Width: 1000, Height: 1000})
	n := 0
	ed := New(pm, Options{NewID: func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}})
	return ed, pm
}

func addShape(ed *Editor, x, y float64) string {
	draft := element.Factory{Canvas: ed.CanvasSize()}.Shape(element.FormRectangle)
	draft.Rect = geom.Rect{X: x, Y: y, Width: 50, Height: 50}
	return ed.Add(draft)
}

func ids(els []element.Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.ID
	}
	return out
}

func TestAddAssignsIDAndSelects(t *testing.T) {
	ed, _ := newEditor(t)
	id := ed.AddElement(map[string]any{"type": "text", "content": "hi", "x": 10, "y": 10}, "")
	require.Equal(t, "el-1", id)

	el, ok := ed.Element(id)
	require.True(t, ok)
	require.NotNil(t, el.Text)
	assert.Equal(t, "hi", el.Text.Content)
	assert.Equal(t, []string{id}, ed.SelectedIDs())
	assert.Equal(t, "single", ed.SelectionMode())
	assert.True(t, ed.Dirty())

	// 草稿自带的 ID 会被覆盖
	draft := element.Factory{}.Shape(element.FormCircle)
	draft.ID = "mine"
	assert.Equal(t, "el-2", ed.Add(draft))

	assert.Empty(t, ed.AddElement(map[string]any{"type": "video"}, ""))
	assert.Len(t, ed.Elements(), 2)
}

func TestDeleteAndUndoRestoresPosition(t *testing.T) {
	ed, _ := newEditor(t)
	a := addShape(ed, 0, 0)
	b := addShape(ed, 100, 0)
	c := addShape(ed, 200, 0)

	ed.DeleteElement(b)
	assert.Equal(t, []string{a, c}, ids(ed.Elements()))
	assert.Empty(t, ed.SelectedIDs(), "被删除的元素不再处于选中状态")

	ed.Undo()
	assert.Equal(t, []string{a, b, c}, ids(ed.Elements()))

	ed.Redo()
	assert.Equal(t, []string{a, c}, ids(ed.Elements()))
}

func TestUndoAddPrunesSelection(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 0, 0)
	require.True(t, ed.IsSelected(id))

	ed.Undo()
	assert.Empty(t, ed.Elements())
	assert.False(t, ed.IsSelected(id))
	assert.False(t, ed.CanUndo())
	assert.True(t, ed.CanRedo())
}

func TestUpdateElementIsUndoable(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 10, 10)
	ed.UpdateElement(id, element.Patch{BackgroundColor: element.Ptr("#ff0000"), Content: element.Ptr("ignored")})

	el, _ := ed.Element(id)
	assert.Equal(t, "#ff0000", el.Shape.BackgroundColor)

	ed.Undo()
	el, _ = ed.Element(id)
	assert.Equal(t, "#d9d9d9", el.Shape.BackgroundColor)
}

func TestNoOpsForMissingTargets(t *testing.T) {
	ed, _ := newEditor(t)
	ed.UpdateElement("nope", element.Patch{IsLocked: element.Ptr(true)})
	ed.DeleteElement("nope")
	ed.SelectElement("nope", false)
	ed.BringElementToFront("nope")
	ed.DeleteSelectedElements()
	ed.UpdateMultipleElements(element.Patch{IsLocked: element.Ptr(true)})
	ed.ChangeCanvasSize(geom.Size{Width: 0, Height: 100})
	ed.Undo()
	ed.Redo()

	assert.False(t, ed.Dirty())
	assert.Empty(t, ed.HistoryEntries())
}

func TestUpdateWithoutEffectSkipsHistory(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 10, 10)
	before := len(ed.HistoryEntries())
	ed.UpdateElement(id, element.Patch{Rect: &geom.Rect{X: 10, Y: 10, Width: 50, Height: 50}})
	assert.Len(t, ed.HistoryEntries(), before)
}

func TestBulkUpdateIsOneUndoStep(t *testing.T) {
	ed, _ := newEditor(t)
	a := addShape(ed, 0, 0)
	b := addShape(ed, 100, 0)
	ed.SelectElement(a, false)
	ed.SelectElement(b, true)
	assert.Equal(t, "multi", ed.SelectionMode())

	ed.UpdateMultipleElementsFunc(func(e element.Element) element.Patch {
		r := e.Rect
		r.Y += 20
		return element.Patch{Rect: &r}
	})
	for _, el := range ed.Elements() {
		assert.Equal(t, 20.0, el.Rect.Y)
	}

	ed.Undo()
	for _, el := range ed.Elements() {
		assert.Equal(t, 0.0, el.Rect.Y)
	}
	// 再撤销一步回到只有 a 的状态
	ed.Undo()
	assert.Equal(t, []string{a}, ids(ed.Elements()))
}

func TestDeleteSelectedIsOneUndoStep(t *testing.T) {
	ed, _ := newEditor(t)
	a := addShape(ed, 0, 0)
	b := addShape(ed, 100, 0)
	c := addShape(ed, 200, 0)
	ed.SelectElement(a, false)
	ed.SelectElement(c, true)

	ed.DeleteSelectedElements()
	assert.Equal(t, []string{b}, ids(ed.Elements()))
	assert.Equal(t, "canvas", ed.SelectionMode())

	ed.Undo()
	assert.Equal(t, []string{a, b, c}, ids(ed.Elements()))
}

func TestReorder(t *testing.T) {
	ed, _ := newEditor(t)
	a := addShape(ed, 0, 0)
	b := addShape(ed, 0, 0)
	c := addShape(ed, 0, 0)

	ed.BringElementToFront(a)
	assert.Equal(t, []string{b, c, a}, ids(ed.Elements()))

	ed.SendElementBackward(a)
	assert.Equal(t, []string{b, a, c}, ids(ed.Elements()))

	ed.SendElementToBack(c)
	assert.Equal(t, []string{c, b, a}, ids(ed.Elements()))

	ed.BringElementForward(b)
	assert.Equal(t, []string{c, a, b}, ids(ed.Elements()))

	n := len(ed.HistoryEntries())
	ed.BringElementForward(b)
	ed.SendElementToBack(c)
	assert.Len(t, ed.HistoryEntries(), n, "已在边界时不产生历史")

	ed.Undo()
	ed.Undo()
	assert.Equal(t, []string{b, a, c}, ids(ed.Elements()))
}

func TestChangeCanvasSize(t *testing.T) {
	ed, _ := newEditor(t)
	ed.ChangeCanvasSize(geom.Size{Width: 500, Height: 300})
	assert.Equal(t, geom.Size{Width: 500, Height: 300}, ed.CanvasSize())

	ed.ChangeCanvasSize(geom.Size{Width: -1, Height: 300})
	assert.Equal(t, geom.Size{Width: 500, Height: 300}, ed.CanvasSize())

	ed.Undo()
	assert.Equal(t, geom.Size{Width: 1000, Height: 1000}, ed.CanvasSize())
}

func TestDragGestureIsOneUndoStep(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 100, 100)
	addShape(ed, 600, 600)
	ed.ClearSelection()

	drag := interact.NewDrag(ed, interact.DragOptions{})
	require.True(t, drag.Press(id, geom.Point{}, geom.Viewport{Scale: 1}))
	drag.Move(geom.Point{X: 20, Y: 20})
	assert.True(t, ed.InGesture(id))
	drag.Move(geom.Point{X: 37, Y: 41})
	drag.Release(geom.Point{X: 37, Y: 41})
	assert.False(t, ed.InGesture(id))

	el, _ := ed.Element(id)
	assert.Equal(t, 137.0, el.Rect.X)
	assert.Equal(t, 141.0, el.Rect.Y)
	assert.False(t, el.IsNew)
	assert.Len(t, ed.HistoryEntries(), 3)

	ed.Undo()
	el, _ = ed.Element(id)
	assert.Equal(t, 100.0, el.Rect.X)
	assert.Equal(t, 100.0, el.Rect.Y)
	assert.True(t, el.IsNew)

	ed.Redo()
	el, _ = ed.Element(id)
	assert.Equal(t, 137.0, el.Rect.X)
}

func TestUndoClosesOpenGesture(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 0, 0)
	ed.BeginGesture(id)
	ed.UpdateElement(id, element.Patch{Rect: &geom.Rect{X: 40, Y: 0, Width: 50, Height: 50}})
	assert.Len(t, ed.HistoryEntries(), 1)

	ed.Undo()
	assert.False(t, ed.InGesture(id))
	el, _ := ed.Element(id)
	assert.Equal(t, 0.0, el.Rect.X)
}

func TestEditTextRoutesThroughFitter(t *testing.T) {
	ed, _ := newEditor(t)
	draft := element.Factory{Canvas: ed.CanvasSize()}.Text("hi")
	id := ed.Add(draft)
	before, _ := ed.Element(id)

	ed.EditText(id, "a much longer heading")
	after, _ := ed.Element(id)
	assert.Equal(t, "a much longer heading", after.Text.Content)
	assert.Greater(t, after.Rect.Width, before.Rect.Width)
	assert.InDelta(t, before.Rect.CenterX(), after.Rect.CenterX(), 1)

	ed.SetTextStyle(id, element.Patch{IsBold: element.Ptr(true)})
	after, _ = ed.Element(id)
	assert.True(t, after.Text.IsBold)

	ed.Undo()
	ed.Undo()
	restored, _ := ed.Element(id)
	assert.True(t, element.Equal(before, restored))

	shape := addShape(ed, 0, 0)
	n := len(ed.HistoryEntries())
	ed.EditText(shape, "x")
	assert.Len(t, ed.HistoryEntries(), n)
}

func TestSetLocked(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 0, 0)
	ed.SetLocked(id, true)
	el, _ := ed.Element(id)
	assert.True(t, el.IsLocked)

	drag := interact.NewDrag(ed, interact.DragOptions{})
	assert.False(t, drag.Press(id, geom.Point{}, geom.Viewport{Scale: 1}))
}

func TestChangeNotificationsAndDirty(t *testing.T) {
	ed, _ := newEditor(t)
	var got []ChangeType
	unsubscribe := ed.OnChange(func(c Change) { got = append(got, c.Type) })

	id := addShape(ed, 0, 0)
	ed.MarkSaved()
	assert.False(t, ed.Dirty())

	ed.ClearSelection()
	ed.SelectElement(id, false)
	assert.False(t, ed.Dirty(), "选择变化不修改文档")

	ed.SetLocked(id, true)
	assert.True(t, ed.Dirty())

	unsubscribe()
	ed.Undo()
	assert.Equal(t, []ChangeType{ChangeAdd, ChangeSelection, ChangeSelection, ChangeUpdate}, got)
}

func TestOperationsFollowCurrentPage(t *testing.T) {
	ed, pm := newEditor(t)
	first := pm.CurrentPageID()
	a := addShape(ed, 0, 0)

	pm.AddPage("second", geom.Size{Width: 200, Height: 200})
	assert.Empty(t, ed.Elements())
	assert.Equal(t, geom.Size{Width: 200, Height: 200}, ed.CanvasSize())
	ed.DeleteElement(a)

	require.NoError(t, pm.SwitchTo(first))
	assert.Equal(t, []string{a}, ids(ed.Elements()))
}

func TestAddElementMarksNewAndEditable(t *testing.T) {
	ed, _ := newEditor(t)
	id := ed.AddElement(map[string]any{"rect": map[string]any{"x": 0, "y": 0, "width": 100, "height": 50}}, element.KindShape)
	el, ok := ed.Element(id)
	require.True(t, ok)
	assert.True(t, el.IsNew)
	assert.True(t, el.IsEditable)

	// 与工厂草稿的入口保持一致
	draftID := ed.Add(element.Factory{}.Draft(element.KindShape))
	draft, _ := ed.Element(draftID)
	assert.Equal(t, draft.IsNew, el.IsNew)
	assert.Equal(t, draft.IsEditable, el.IsEditable)

	// 显式给出的标记优先
	id = ed.AddElement(map[string]any{"type": "shape", "isNew": false, "isEditable": false}, "")
	el, _ = ed.Element(id)
	assert.False(t, el.IsNew)
	assert.False(t, el.IsEditable)
}

func TestUndoDuringDragEndsTheDrag(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 100, 100)

	drag := interact.NewDrag(ed, interact.DragOptions{})
	require.True(t, drag.Press(id, geom.Point{}, geom.Viewport{Scale: 1}))
	drag.Move(geom.Point{X: 20, Y: 0})
	ed.Undo()
	for i := 1; i <= 5; i++ {
		drag.Move(geom.Point{X: 20 + float64(i)*10, Y: 0})
	}
	assert.False(t, drag.Release(geom.Point{X: 70, Y: 0}))
	assert.Equal(t, interact.DragIdle, drag.State())

	assert.Len(t, ed.HistoryEntries(), 2, "拖动只留下一步历史")
	assert.True(t, ed.CanRedo())
	el, _ := ed.Element(id)
	assert.Equal(t, 100.0, el.Rect.X)

	ed.Redo()
	el, _ = ed.Element(id)
	assert.Equal(t, 120.0, el.Rect.X)
}

func TestUndoDuringResizeEndsTheResize(t *testing.T) {
	ed, _ := newEditor(t)
	id := addShape(ed, 100, 100)

	resize := interact.NewResize(ed, interact.ResizeOptions{})
	require.True(t, resize.Press(id, interact.SE, geom.Point{}, geom.Viewport{Scale: 1}))
	resize.Move(geom.Point{X: 30, Y: 30}, false)
	ed.Undo()
	resize.Move(geom.Point{X: 60, Y: 60}, false)
	resize.Release(geom.Point{X: 60, Y: 60})
	assert.False(t, resize.Active())

	assert.Len(t, ed.HistoryEntries(), 2)
	el, _ := ed.Element(id)
	assert.Equal(t, geom.Rect{X: 100, Y: 100, Width: 50, Height: 50}, el.Rect)
}

func TestUndoRedoRestoresExactState(t *testing.T) {
	ed, _ := newEditor(t)
	var a, txt string
	ops := []func(){
		func() { a = addShape(ed, 0, 0) },
		func() {
			txt = ed.AddElement(map[string]any{"type": "text", "content": "hello", "x": 100, "y": 100}, "")
		},
		func() {
			ed.UpdateElement(a, element.Patch{
				Rect:            &geom.Rect{X: 30, Y: 40, Width: 80, Height: 60},
				BackgroundColor: element.Ptr("#112233"),
			})
		},
		func() { ed.EditText(txt, "hello world") },
		func() { ed.SendElementToBack(txt) },
		func() { ed.ChangeCanvasSize(geom.Size{Width: 600, Height: 400}) },
		func() {
			ed.SelectElement(a, false)
			ed.SelectElement(txt, true)
			ed.UpdateMultipleElementsFunc(func(e element.Element) element.Patch {
				r := e.Rect
				r.Y += 10
				return element.Patch{Rect: &r}
			})
		},
		func() { ed.SetLocked(txt, true) },
		func() { ed.DeleteElement(a) },
	}

	snapshot := func() pages.Page {
		p, ok := ed.CurrentPage()
		require.True(t, ok)
		return p.Clone()
	}
	states := []pages.Page{snapshot()}
	for i, op := range ops {
		op()
		require.Len(t, ed.HistoryEntries(), i+1, "第 %d 步应产生一条历史", i+1)
		states = append(states, snapshot())
	}

	for i := len(ops); i > 0; i-- {
		ed.Undo()
		assert.Equal(t, states[i-1], snapshot(), "撤销到第 %d 步", i-1)
	}
	assert.False(t, ed.CanUndo())

	for i := 1; i <= len(ops); i++ {
		ed.Redo()
		assert.Equal(t, states[i], snapshot(), "重做到第 %d 步", i)
	}
	assert.False(t, ed.CanRedo())
}
