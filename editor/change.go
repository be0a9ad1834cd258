package editor

import "github.com/ByLCY/vellum/history"

// ChangeType 描述一次变更的类别。
type ChangeType string

const (
	ChangeAdd       ChangeType = "add"
	ChangeUpdate    ChangeType = "update"
	ChangeDelete    ChangeType = "delete"
	ChangeReorder   ChangeType = "reorder"
	ChangeCanvas    ChangeType = "canvas"
	ChangeHistory   ChangeType = "history"
	ChangeSelection ChangeType = "selection"
)

// Change 是推送给监听者的变更通知。
type Change struct {
	Type   ChangeType
	PageID string
	IDs    []string
}

// Document 报告该变更是否修改了文档内容（选择变化不算）。
func (c Change) Document() bool { return c.Type != ChangeSelection }

// OnChange 注册变更监听，返回取消函数。监听者按注册顺序同步调用。
func (e *Editor) OnChange(fn func(Change)) func() {
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

// Dirty 报告自上次 MarkSaved 以来文档是否有修改。
func (e *Editor) Dirty() bool { return e.dirty }

// MarkSaved 清除脏标记。
func (e *Editor) MarkSaved() { e.dirty = false }

// changed 标记文档已修改并通知监听者。
func (e *Editor) changed(c Change) {
	e.dirty = true
	e.notify(c)
}

func (e *Editor) notify(c Change) {
	for i := 0; i < e.nextSub; i++ {
		if fn, ok := e.listeners[i]; ok {
			fn(c)
		}
	}
}

func reorderAction(pageID, id string, from, to int) history.ReorderElement {
	return history.ReorderElement{PageID: pageID, ElementID: id, From: from, To: to}
}
