// Package history 实现基于游标的撤销/重做栈。
// 动作只描述变化本身，实际的状态修改通过 Applier 回到编辑器执行。
package history

import (
	"fmt"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// Applier 由编辑器实现，执行动作对应的底层修改（不再入栈）。
type Applier interface {
	InsertElement(pageID string, index int, e element.Element)
	RemoveElement(pageID, id string)
	PatchElement(pageID, id string, p element.Patch)
	ResizeCanvas(pageID string, size geom.Size)
	MoveElement(pageID, id string, to int)
}

// Action 是一条可撤销的历史记录。
type Action interface {
	Undo(a Applier)
	Redo(a Applier)
	Describe() string
}

// AddElement 记录新增元素及其插入位置。
type AddElement struct {
	Element element.Element
	PageID  string
	Index   int
}

func (x AddElement) Undo(a Applier) { a.RemoveElement(x.PageID, x.Element.ID) }
func (x AddElement) Redo(a Applier) { a.InsertElement(x.PageID, x.Index, x.Element.Clone()) }
func (x AddElement) Describe() string {
	return fmt.Sprintf("add %s %s", x.Element.Kind, x.Element.ID)
}

// UpdateElement 记录一次更新：Before 是 After 的精确逆补丁。
type UpdateElement struct {
	ID     string
	Before element.Patch
	After  element.Patch
	PageID string
}

func (x UpdateElement) Undo(a Applier) { a.PatchElement(x.PageID, x.ID, x.Before) }
func (x UpdateElement) Redo(a Applier) { a.PatchElement(x.PageID, x.ID, x.After) }
func (x UpdateElement) Describe() string {
	return fmt.Sprintf("update %s", x.ID)
}

// DeleteElement 记录被删除的元素快照与原位置，撤销时原样恢复。
type DeleteElement struct {
	Element element.Element
	PageID  string
	Index   int
}

func (x DeleteElement) Undo(a Applier) { a.InsertElement(x.PageID, x.Index, x.Element.Clone()) }
func (x DeleteElement) Redo(a Applier) { a.RemoveElement(x.PageID, x.Element.ID) }
func (x DeleteElement) Describe() string {
	return fmt.Sprintf("delete %s %s", x.Element.Kind, x.Element.ID)
}

// ChangeCanvasSize 记录画布尺寸变化。
type ChangeCanvasSize struct {
	Before geom.Size
	After  geom.Size
	PageID string
}

func (x ChangeCanvasSize) Undo(a Applier) { a.ResizeCanvas(x.PageID, x.Before) }
func (x ChangeCanvasSize) Redo(a Applier) { a.ResizeCanvas(x.PageID, x.After) }
func (x ChangeCanvasSize) Describe() string {
	return fmt.Sprintf("canvas %gx%g", x.After.Width, x.After.Height)
}

// ReorderElement 记录层级调整（From/To 为元素列表中的下标）。
type ReorderElement struct {
	PageID    string
	ElementID string
	From      int
	To        int
}

func (x ReorderElement) Undo(a Applier) { a.MoveElement(x.PageID, x.ElementID, x.From) }
func (x ReorderElement) Redo(a Applier) { a.MoveElement(x.PageID, x.ElementID, x.To) }
func (x ReorderElement) Describe() string {
	return fmt.Sprintf("reorder %s %d→%d", x.ElementID, x.From, x.To)
}

// Batch 把多条动作合并为一个撤销步骤；撤销时逆序执行。
type Batch struct {
	Actions []Action
}

func (x Batch) Undo(a Applier) {
	for i := len(x.Actions) - 1; i >= 0; i-- {
		x.Actions[i].Undo(a)
	}
}

func (x Batch) Redo(a Applier) {
	for _, act := range x.Actions {
		act.Redo(a)
	}
}

func (x Batch) Describe() string {
	return fmt.Sprintf("batch of %d", len(x.Actions))
}
