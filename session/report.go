package session

import (
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/overlay"
	"github.com/ByLCY/vellum/snap"
)

// Step 是一条已执行命令的结果。
type Step struct {
	Line     int              `json:"line"`
	Command  string           `json:"command"`
	Result   string           `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Guides   *snap.Alignments `json:"guides,omitempty"`   // 拖动松开前显示的参考线
	Elements []any            `json:"elements,omitempty"` // dump 的元素快照
}

// Report 是脚本执行后的会话状态。
type Report struct {
	Steps         []Step            `json:"steps"`
	PageID        string            `json:"pageId"`
	CanvasSize    geom.Size         `json:"canvasSize"`
	Elements      []any             `json:"elements"`
	Selection     []string          `json:"selection"`
	SelectionMode string            `json:"selectionMode"`
	Overlay       overlay.Layout    `json:"overlay"`
	Bindings      map[string]string `json:"bindings"`
	History       []string          `json:"history"`
	CanUndo       bool              `json:"canUndo"`
	CanRedo       bool              `json:"canRedo"`
	Dirty         bool              `json:"dirty"`
}

func (s *Session) fill(r *Report) {
	r.PageID = s.pages.CurrentPageID()
	r.CanvasSize = s.editor.CanvasSize()
	r.Elements = document.Flatten(s.editor.Elements())
	r.Selection = s.editor.SelectedIDs()
	r.SelectionMode = s.editor.SelectionMode()
	r.Overlay = s.overlay.Layout()
	r.Bindings = s.scope.Names()
	r.History = s.editor.HistoryEntries()
	r.CanUndo = s.editor.CanUndo()
	r.CanRedo = s.editor.CanRedo()
	r.Dirty = s.Dirty()
}
