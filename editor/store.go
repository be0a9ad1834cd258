package editor

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// applier 执行历史动作对应的底层修改，不产生新的历史记录。
type applier struct{ e *Editor }

func (a applier) InsertElement(pageID string, index int, el element.Element) {
	p, ok := a.e.pages.Page(pageID)
	if !ok {
		return
	}
	index = max(0, min(index, len(p.Elements)))
	a.e.pages.UpdatePageElements(pageID, slices.Insert(p.Elements, index, el))
}

func (a applier) RemoveElement(pageID, id string) {
	p, ok := a.e.pages.Page(pageID)
	if !ok {
		return
	}
	a.e.pages.UpdatePageElements(pageID, slices.DeleteFunc(p.Elements, func(el element.Element) bool { return el.ID == id }))
}

func (a applier) PatchElement(pageID, id string, patch element.Patch) {
	p, ok := a.e.pages.Page(pageID)
	if !ok {
		return
	}
	i := indexOf(p.Elements, id)
	if i < 0 {
		return
	}
	p.Elements[i] = patch.Apply(p.Elements[i])
	a.e.pages.UpdatePageElements(pageID, p.Elements)
}

func (a applier) ResizeCanvas(pageID string, size geom.Size) {
	a.e.pages.UpdatePageCanvasSize(pageID, size)
}

func (a applier) MoveElement(pageID, id string, to int) {
	p, ok := a.e.pages.Page(pageID)
	if !ok {
		return
	}
	i := indexOf(p.Elements, id)
	if i < 0 {
		return
	}
	el := p.Elements[i]
	els := slices.Delete(p.Elements, i, i+1)
	to = max(0, min(to, len(els)))
	a.e.pages.UpdatePageElements(pageID, slices.Insert(els, to, el))
}

// SelectElement 选择元素；add 为 true 时切换其在多选中的成员身份。不存在的 ID 被忽略。
func (e *Editor) SelectElement(id string, add bool) {
	if id == "" {
		e.ClearSelection()
		return
	}
	if _, ok := e.Element(id); !ok {
		logrus.WithField("element_id", id).Debug("select ignored, element not found")
		return
	}
	e.selection.Select(id, add)
	e.notify(Change{Type: ChangeSelection, PageID: e.pages.CurrentPageID(), IDs: e.selection.IDs()})
}

// SelectCanvas 取消所有元素选择，进入画布模式。
func (e *Editor) SelectCanvas() { e.ClearSelection() }

// ClearSelection 清空选择。
func (e *Editor) ClearSelection() {
	if e.selection.Len() == 0 {
		return
	}
	e.selection.Clear()
	e.notify(Change{Type: ChangeSelection, PageID: e.pages.CurrentPageID()})
}

// SelectedIDs 按选择顺序返回选中的元素。
func (e *Editor) SelectedIDs() []string { return e.selection.IDs() }

// SelectedElements 返回选中元素的快照。
func (e *Editor) SelectedElements() []element.Element {
	var out []element.Element
	for _, id := range e.selection.IDs() {
		if el, ok := e.Element(id); ok {
			out = append(out, el)
		}
	}
	return out
}

// IsSelected 报告元素是否被选中。
func (e *Editor) IsSelected(id string) bool { return e.selection.Contains(id) }

// SelectionMode 返回当前选择模式的名称：canvas、single 或 multi。
func (e *Editor) SelectionMode() string { return e.selection.Mode().String() }

// BringElementToFront 把元素移到最上层。
func (e *Editor) BringElementToFront(id string) {
	e.reorder(id, func(_, n int) int { return n - 1 })
}

// BringElementForward 把元素上移一层。
func (e *Editor) BringElementForward(id string) {
	e.reorder(id, func(i, n int) int { return min(i+1, n-1) })
}

// SendElementBackward 把元素下移一层。
func (e *Editor) SendElementBackward(id string) {
	e.reorder(id, func(i, _ int) int { return max(i-1, 0) })
}

// SendElementToBack 把元素移到最下层。
func (e *Editor) SendElementToBack(id string) {
	e.reorder(id, func(int, int) int { return 0 })
}

func (e *Editor) reorder(id string, target func(i, n int) int) {
	pageID := e.pages.CurrentPageID()
	p, ok := e.pages.Page(pageID)
	if !ok {
		return
	}
	from := indexOf(p.Elements, id)
	if from < 0 {
		logrus.WithField("element_id", id).Debug("reorder ignored, element not found")
		return
	}
	to := target(from, len(p.Elements))
	if to == from {
		return
	}
	act := reorderAction(pageID, id, from, to)
	act.Redo(applier{e})
	e.history.Push(act)
	e.changed(Change{Type: ChangeReorder, PageID: pageID, IDs: []string{id}})
}
