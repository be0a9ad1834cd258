package stores

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/editor"
)

// DefaultAutosaveDelay 是最后一次修改到自动保存之间的静默时长。
const DefaultAutosaveDelay = time.Second

// AutosaveOptions 配置自动保存。Dirty 与 MarkSaved 默认使用编辑器的未保存标记，
// 持有编辑器之外状态（例如页面列表）的调用方可以替换它们。
type AutosaveOptions struct {
	Delay     time.Duration
	Clock     clock.Clock
	Dirty     func() bool
	MarkSaved func()
}

// Autosaver 监听编辑器的文档变更，在变更停止 Delay 之后保存一次。
// 选择变化不会触发保存。Tick 与 Flush 需要和编辑器在同一线程调用。
type Autosaver struct {
	store     document.Store
	snapshot  func() document.Document
	clock     clock.Clock
	delay     time.Duration
	dirty     func() bool
	markSaved func()

	id          string
	createdAt   time.Time
	due         time.Time
	pending     bool
	unsubscribe func()
}

// NewAutosaver 创建自动保存器。snapshot 返回当前文档内容（ID 可以为空，首次保存后沿用分配的 ID）。
func NewAutosaver(store document.Store, ed *editor.Editor, snapshot func() document.Document, opts AutosaveOptions) *Autosaver {
	a := &Autosaver{
		store:     store,
		snapshot:  snapshot,
		clock:     opts.Clock,
		delay:     opts.Delay,
		dirty:     opts.Dirty,
		markSaved: opts.MarkSaved,
	}
	if a.clock == nil {
		a.clock = clock.System{}
	}
	if a.delay <= 0 {
		a.delay = DefaultAutosaveDelay
	}
	if a.dirty == nil {
		a.dirty = ed.Dirty
	}
	if a.markSaved == nil {
		a.markSaved = ed.MarkSaved
	}
	a.unsubscribe = ed.OnChange(func(c editor.Change) {
		if c.Document() {
			a.Touch()
		}
	})
	return a
}

// Touch 记录一次文档变更并重新开始计时。
func (a *Autosaver) Touch() {
	a.pending = true
	a.due = a.clock.Now().Add(a.delay)
}

// ID 返回最近一次保存使用的文档 ID。
func (a *Autosaver) ID() string { return a.id }

// Pending 报告是否有尚未保存的变更在等待。
func (a *Autosaver) Pending() bool { return a.pending }

// Tick 在静默期结束时保存。返回是否执行了保存。
func (a *Autosaver) Tick(ctx context.Context) (bool, error) {
	if !a.pending || a.clock.Now().Before(a.due) {
		return false, nil
	}
	return true, a.Flush(ctx)
}

// Flush 立即保存未保存的变更。
func (a *Autosaver) Flush(ctx context.Context) error {
	a.pending = false
	if !a.dirty() {
		return nil
	}
	doc := a.snapshot()
	if doc.ID == "" {
		doc.ID = a.id
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = a.createdAt
	}
	if err := a.store.Save(ctx, &doc); err != nil {
		a.pending = true
		logrus.WithField("document_id", doc.ID).WithError(err).Error("autosave failed")
		return err
	}
	a.id = doc.ID
	a.createdAt = doc.CreatedAt
	a.markSaved()
	logrus.WithField("document_id", doc.ID).Debug("autosaved")
	return nil
}

// Close 停止监听编辑器。
func (a *Autosaver) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}
