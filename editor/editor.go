// Package editor 实现画布状态存储：元素的增删改、选择、层级、画布尺寸与撤销/重做。
// 所有依赖通过构造函数注入；对缺失元素、缺失页面或空选择的操作静默忽略。
package editor

import (
	"slices"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/history"
	"github.com/ByLCY/vellum/pages"
	"github.com/ByLCY/vellum/selection"
	"github.com/ByLCY/vellum/textfit"
)

// PageManager 提供页面数据。pages.Manager 是参考实现。
type PageManager interface {
	CurrentPageID() string
	Page(id string) (pages.Page, bool)
	UpdatePageElements(id string, elements []element.Element)
	UpdatePageCanvasSize(id string, size geom.Size)
}

// Options 配置编辑器。
type Options struct {
	Fitter       *textfit.Fitter
	HistoryLimit int
	NewID        func() string // 默认生成 ULID
}

// Editor 是画布状态存储，也是交互控制器使用的 interact.Store。
type Editor struct {
	pages     PageManager
	history   *history.Manager
	selection *selection.Manager
	fitter    *textfit.Fitter
	newID     func() string

	dirty     bool
	listeners map[int]func(Change)
	nextSub   int
	gestures  map[string]*gesture
}

// gesture 记录一次拖动/缩放会话开始时的元素快照，会话期间的更新不入栈。
type gesture struct {
	pageID string
	before element.Element
	depth  int
}

// New 创建编辑器。
func New(pm PageManager, opts Options) *Editor {
	e := &Editor{
		pages:     pm,
		selection: selection.New(),
		fitter:    opts.Fitter,
		newID:     opts.NewID,
		listeners: map[int]func(Change){},
		gestures:  map[string]*gesture{},
	}
	if e.fitter == nil {
		e.fitter = textfit.NewFitter(nil, textfit.FitterOptions{})
	}
	if e.newID == nil {
		e.newID = func() string { return ulid.Make().String() }
	}
	e.history = history.New(applier{e}, history.Options{Limit: opts.HistoryLimit})
	return e
}

// Fitter 返回编辑器使用的文本自适应策略。
func (e *Editor) Fitter() *textfit.Fitter { return e.fitter }

// Pages 返回页面管理器。
func (e *Editor) Pages() PageManager { return e.pages }

// CurrentPage 返回当前页的深拷贝。
func (e *Editor) CurrentPage() (pages.Page, bool) {
	return e.pages.Page(e.pages.CurrentPageID())
}

// Elements 返回当前页的元素（按层级从下到上）。
func (e *Editor) Elements() []element.Element {
	p, ok := e.CurrentPage()
	if !ok {
		return nil
	}
	return p.Elements
}

// Element 在当前页查找元素。
func (e *Editor) Element(id string) (element.Element, bool) {
	p, ok := e.CurrentPage()
	if !ok {
		return element.Element{}, false
	}
	i := indexOf(p.Elements, id)
	if i < 0 {
		return element.Element{}, false
	}
	return p.Elements[i], true
}

// CanvasSize 返回当前页画布尺寸。
func (e *Editor) CanvasSize() geom.Size {
	p, _ := e.CurrentPage()
	return p.CanvasSize
}

// AddElement 规范化松散输入并加入当前页，返回新元素 ID；失败时返回空串。
// 新元素默认 isNew 与 isEditable 为 true，输入显式给出时以输入为准。
func (e *Editor) AddElement(data map[string]any, kind element.Kind) string {
	el, err := element.Normalize(data, kind)
	if err != nil {
		logrus.WithError(err).Warn("add element rejected")
		return ""
	}
	el.ID = ""
	if _, ok := data["isNew"]; !ok {
		el.IsNew = true
	}
	if _, ok := data["isEditable"]; !ok {
		el.IsEditable = true
	}
	return e.Add(el)
}

// Add 把草稿加入当前页顶层并选中它。ID 总是由编辑器分配。
func (e *Editor) Add(draft element.Element) string {
	pageID := e.pages.CurrentPageID()
	p, ok := e.pages.Page(pageID)
	if !ok {
		logrus.WithField("page_id", pageID).Debug("add ignored, no current page")
		return ""
	}
	el := draft.Clone()
	el.ID = e.newID()
	el.EnsureVariant()

	act := history.AddElement{Element: el.Clone(), PageID: pageID, Index: len(p.Elements)}
	act.Redo(applier{e})
	e.history.Push(act)
	e.selection.Select(el.ID, false)

	logrus.WithFields(logrus.Fields{"element_id": el.ID, "page_id": pageID, "type": el.Kind}).Debug("element added")
	e.changed(Change{Type: ChangeAdd, PageID: pageID, IDs: []string{el.ID}})
	return el.ID
}

// UpdateElement 对当前页中的元素应用补丁。手势进行中时直接生效，结束手势时合并为一步历史。
func (e *Editor) UpdateElement(id string, p element.Patch) {
	pageID := e.pages.CurrentPageID()
	if g, ok := e.gestures[id]; ok {
		pageID = g.pageID
	}
	cur, ok := e.elementOn(pageID, id)
	if !ok {
		logrus.WithFields(logrus.Fields{"element_id": id, "page_id": pageID}).Debug("update ignored, element not found")
		return
	}
	next := p.Apply(cur)
	if element.Equal(cur, next) {
		return
	}
	if _, open := e.gestures[id]; open {
		applier{e}.PatchElement(pageID, id, p)
	} else {
		act := history.UpdateElement{ID: id, Before: element.Capture(cur, p), After: element.Restrict(cur, p), PageID: pageID}
		act.Redo(applier{e})
		e.history.Push(act)
	}
	e.changed(Change{Type: ChangeUpdate, PageID: pageID, IDs: []string{id}})
}

// UpdateMultipleElements 把同一补丁应用到所有选中元素，作为一个撤销步骤。
func (e *Editor) UpdateMultipleElements(p element.Patch) {
	e.UpdateMultipleElementsFunc(func(element.Element) element.Patch { return p })
}

// UpdateMultipleElementsFunc 对每个选中元素计算补丁并批量应用，作为一个撤销步骤。
func (e *Editor) UpdateMultipleElementsFunc(fn func(element.Element) element.Patch) {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		logrus.Debug("bulk update ignored, empty selection")
		return
	}
	pageID := e.pages.CurrentPageID()
	var batch history.Batch
	var touched []string
	for _, id := range ids {
		cur, ok := e.elementOn(pageID, id)
		if !ok {
			continue
		}
		p := fn(cur)
		if element.Equal(cur, p.Apply(cur)) {
			continue
		}
		act := history.UpdateElement{ID: id, Before: element.Capture(cur, p), After: element.Restrict(cur, p), PageID: pageID}
		act.Redo(applier{e})
		batch.Actions = append(batch.Actions, act)
		touched = append(touched, id)
	}
	if len(batch.Actions) == 0 {
		return
	}
	e.history.Push(batch)
	e.changed(Change{Type: ChangeUpdate, PageID: pageID, IDs: touched})
}

// DeleteElement 删除当前页的元素。
func (e *Editor) DeleteElement(id string) {
	act, ok := e.deleteAction(id)
	if !ok {
		logrus.WithField("element_id", id).Debug("delete ignored, element not found")
		return
	}
	act.Redo(applier{e})
	e.history.Push(act)
	e.forget(id)
	e.changed(Change{Type: ChangeDelete, PageID: act.PageID, IDs: []string{id}})
}

// DeleteSelectedElements 删除所有选中元素，作为一个撤销步骤。
func (e *Editor) DeleteSelectedElements() {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		logrus.Debug("delete selected ignored, empty selection")
		return
	}
	var batch history.Batch
	var removed []string
	for _, id := range ids {
		act, ok := e.deleteAction(id)
		if !ok {
			continue
		}
		act.Redo(applier{e})
		batch.Actions = append(batch.Actions, act)
		removed = append(removed, id)
		e.forget(id)
	}
	if len(batch.Actions) == 0 {
		return
	}
	e.history.Push(batch)
	e.changed(Change{Type: ChangeDelete, PageID: e.pages.CurrentPageID(), IDs: removed})
}

func (e *Editor) deleteAction(id string) (history.DeleteElement, bool) {
	pageID := e.pages.CurrentPageID()
	p, ok := e.pages.Page(pageID)
	if !ok {
		return history.DeleteElement{}, false
	}
	i := indexOf(p.Elements, id)
	if i < 0 {
		return history.DeleteElement{}, false
	}
	return history.DeleteElement{Element: p.Elements[i], PageID: pageID, Index: i}, true
}

// forget 清理被删除元素的附属状态。
func (e *Editor) forget(id string) {
	e.selection.Remove(id)
	e.fitter.Forget(id)
	delete(e.gestures, id)
}

// ChangeCanvasSize 修改当前页画布尺寸；非正尺寸被忽略。
func (e *Editor) ChangeCanvasSize(size geom.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		logrus.WithFields(logrus.Fields{"width": size.Width, "height": size.Height}).Debug("canvas resize ignored, invalid size")
		return
	}
	pageID := e.pages.CurrentPageID()
	p, ok := e.pages.Page(pageID)
	if !ok || p.CanvasSize == size {
		return
	}
	act := history.ChangeCanvasSize{Before: p.CanvasSize, After: size, PageID: pageID}
	act.Redo(applier{e})
	e.history.Push(act)
	e.changed(Change{Type: ChangeCanvas, PageID: pageID})
}

// Undo 撤销最近一步。进行中的手势会先被结束。
func (e *Editor) Undo() {
	e.closeGestures()
	if e.history.Undo() {
		e.afterHistory()
	}
}

// Redo 重做下一步。
func (e *Editor) Redo() {
	e.closeGestures()
	if e.history.Redo() {
		e.afterHistory()
	}
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// HistoryEntries 返回历史记录的描述。
func (e *Editor) HistoryEntries() []string { return e.history.Entries() }

// afterHistory 移除已不存在元素的选择状态并通知监听者。
func (e *Editor) afterHistory() {
	p, _ := e.CurrentPage()
	var gone []string
	for _, id := range e.selection.IDs() {
		if indexOf(p.Elements, id) < 0 {
			gone = append(gone, id)
		}
	}
	e.selection.Remove(gone...)
	e.changed(Change{Type: ChangeHistory, PageID: p.ID})
}

// BeginGesture 开始一次拖动/缩放会话；可重入，与 EndGesture 成对调用。
func (e *Editor) BeginGesture(id string) {
	if g, ok := e.gestures[id]; ok {
		g.depth++
		return
	}
	pageID := e.pages.CurrentPageID()
	cur, ok := e.elementOn(pageID, id)
	if !ok {
		return
	}
	e.gestures[id] = &gesture{pageID: pageID, before: cur.Clone(), depth: 1}
}

// EndGesture 结束会话，把期间的全部更新合并为一条 UpdateElement 历史。
func (e *Editor) EndGesture(id string) {
	g, ok := e.gestures[id]
	if !ok {
		return
	}
	if g.depth--; g.depth > 0 {
		return
	}
	delete(e.gestures, id)
	after, ok := e.elementOn(g.pageID, id)
	if !ok {
		return
	}
	diff := element.Diff(g.before, after)
	if diff.IsEmpty() {
		return
	}
	e.history.Push(history.UpdateElement{
		ID:     id,
		Before: element.Capture(g.before, diff),
		After:  diff,
		PageID: g.pageID,
	})
	logrus.WithField("element_id", id).Debug("gesture committed")
}

// InGesture 报告元素是否处于手势会话中。
func (e *Editor) InGesture(id string) bool {
	_, ok := e.gestures[id]
	return ok
}

func (e *Editor) closeGestures() {
	for id, g := range e.gestures {
		g.depth = 1
		e.EndGesture(id)
	}
}

// EditText 修改文本内容，宽高由自适应策略决定。
func (e *Editor) EditText(id, content string) {
	cur, ok := e.Element(id)
	if !ok || cur.Kind != element.KindText {
		logrus.WithField("element_id", id).Debug("edit text ignored, not a text element")
		return
	}
	e.UpdateElement(id, e.fitter.OnContentChange(cur, content))
}

// SetTextStyle 修改文本样式并重新测量。
func (e *Editor) SetTextStyle(id string, style element.Patch) {
	cur, ok := e.Element(id)
	if !ok || cur.Kind != element.KindText {
		logrus.WithField("element_id", id).Debug("set style ignored, not a text element")
		return
	}
	e.UpdateElement(id, e.fitter.OnStyleChange(cur, style))
}

// SetLocked 锁定或解锁元素。锁定的元素不能被拖动或缩放。
func (e *Editor) SetLocked(id string, locked bool) {
	e.UpdateElement(id, element.Patch{IsLocked: element.Ptr(locked)})
}

func (e *Editor) elementOn(pageID, id string) (element.Element, bool) {
	p, ok := e.pages.Page(pageID)
	if !ok {
		return element.Element{}, false
	}
	i := indexOf(p.Elements, id)
	if i < 0 {
		return element.Element{}, false
	}
	return p.Elements[i], true
}

func indexOf(els []element.Element, id string) int {
	return slices.IndexFunc(els, func(e element.Element) bool { return e.ID == id })
}
