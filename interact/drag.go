package interact

import (
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/snap"
)

// DefaultDeadZone 是按下后进入拖动前允许的屏幕位移（像素）。
const DefaultDeadZone = 3.0

// DragState 是拖动控制器的状态。
type DragState int

const (
	DragIdle DragState = iota
	DragPressed
	DragDragging
)

func (s DragState) String() string {
	switch s {
	case DragPressed:
		return "pressed"
	case DragDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// DragOptions 配置拖动控制器。
type DragOptions struct {
	Scheduler Scheduler
	Exclusion *Exclusion
	Snapper   snap.Snapper
	DeadZone  float64
	// SuppressClick 返回 true 时，从 Pressed 松开不算点击（例如刚完成缩放）。
	SuppressClick func() bool
}

// Drag 是拖动状态机：Idle → Pressed → Dragging → Idle。
// 指针位置为屏幕坐标；提交到 Store 的位置为画布坐标。
type Drag struct {
	store     Store
	scheduler Scheduler
	exclusion *Exclusion
	snapper   snap.Snapper
	deadZone  float64
	suppress  func() bool

	state    DragState
	id       string
	viewport geom.Viewport
	press    geom.Point // 按下时的屏幕坐标
	last     geom.Point // 最近一次提交所用的屏幕采样
	latest   geom.Point // 最新的屏幕采样
	raw      geom.Point // 未吸附的画布位置
	dirty    bool       // latest 尚未提交
	frame    int        // 帧令牌，用于作废已排队的回调
	queued   bool
	guides   snap.Alignments
}

// NewDrag 创建拖动控制器。
func NewDrag(store Store, opts DragOptions) *Drag {
	d := &Drag{
		store:     store,
		scheduler: opts.Scheduler,
		exclusion: opts.Exclusion,
		snapper:   opts.Snapper,
		deadZone:  opts.DeadZone,
		suppress:  opts.SuppressClick,
	}
	if d.scheduler == nil {
		d.scheduler = ImmediateScheduler{}
	}
	if d.exclusion == nil {
		d.exclusion = NewExclusion()
	}
	if d.deadZone <= 0 {
		d.deadZone = DefaultDeadZone
	}
	return d
}

func (d *Drag) State() DragState { return d.state }

// ElementID 返回当前会话的元素 ID，空闲时为空。
func (d *Drag) ElementID() string { return d.id }

// Guides 返回当前需要绘制的对齐参考线。
func (d *Drag) Guides() snap.Alignments { return d.guides }

// Press 在元素上按下指针。锁定的元素、不存在的元素或正被缩放的元素返回 false。
func (d *Drag) Press(id string, pointer geom.Point, vp geom.Viewport) bool {
	log := logrus.WithField("element_id", id)
	if d.state != DragIdle {
		log.WithField("state", d.state.String()).Debug("drag press ignored, session active")
		return false
	}
	el, ok := d.store.Element(id)
	if !ok {
		log.Debug("drag press ignored, element not found")
		return false
	}
	if el.IsLocked {
		log.Debug("drag press ignored, element locked")
		return false
	}
	if !d.exclusion.Acquire(id, HolderDrag) {
		log.WithField("holder", d.exclusion.HeldBy(id).String()).Debug("drag press rejected")
		return false
	}
	d.state = DragPressed
	d.id = id
	d.viewport = vp
	d.press = pointer
	d.last = pointer
	d.latest = pointer
	d.raw = geom.Point{X: el.Rect.X, Y: el.Rect.Y}
	d.dirty = false
	d.guides = snap.Alignments{}
	return true
}

// Move 报告指针移动。超过死区后进入 Dragging；Dragging 中的采样按帧合并提交。
func (d *Drag) Move(pointer geom.Point) {
	switch d.state {
	case DragPressed:
		if pointer.Distance(d.press) <= d.deadZone {
			return
		}
		d.state = DragDragging
		d.store.BeginGesture(d.id)
		logrus.WithField("element_id", d.id).Debug("drag started")
	case DragDragging:
		if d.interrupted() {
			return
		}
	default:
		return
	}
	d.latest = pointer
	d.dirty = true
	d.requestFrame()
}

func (d *Drag) requestFrame() {
	if d.queued {
		return
	}
	d.queued = true
	token := d.frame
	d.scheduler.RequestFrame(func() {
		if token != d.frame {
			return
		}
		d.queued = false
		d.commit()
	})
}

// commit 使用最新采样计算位移、吸附并写入 Store。
func (d *Drag) commit() {
	if !d.dirty || d.state != DragDragging || d.interrupted() {
		return
	}
	d.dirty = false
	el, ok := d.store.Element(d.id)
	if !ok {
		d.abort()
		return
	}
	delta := d.viewport.DeltaToCanvas(d.latest.Sub(d.last))
	d.last = d.latest
	d.raw = d.raw.Add(delta)

	canvas := d.store.CanvasSize()
	res := d.snapper.GetSnappedPosition(el, d.raw.X, d.raw.Y, d.store.Elements(),
		canvas.Width, canvas.Height, true, d.store.IsSelected(d.id))
	d.guides = res.Alignments

	rect := el.Rect
	rect.X, rect.Y = res.X, res.Y
	if rect != el.Rect {
		d.store.UpdateElement(d.id, element.Patch{Rect: &rect})
	}
}

// Release 松开指针。从 Pressed 松开视为点击并返回 true；从 Dragging 松开会冲刷待提交的帧并结束手势。
func (d *Drag) Release(pointer geom.Point) (clicked bool) {
	switch d.state {
	case DragPressed:
		d.reset()
		if d.suppress != nil && d.suppress() {
			logrus.Debug("click suppressed")
			return false
		}
		return true
	case DragDragging:
		if d.interrupted() {
			return false
		}
		d.latest = pointer
		d.dirty = pointer != d.last
		d.frame++
		d.queued = false
		d.commit()
		d.guides = snap.Alignments{}
		if el, ok := d.store.Element(d.id); ok && el.IsNew {
			d.store.UpdateElement(d.id, element.Patch{IsNew: element.Ptr(false)})
		}
		d.store.EndGesture(d.id)
		logrus.WithField("element_id", d.id).Debug("drag finished")
		d.reset()
	}
	return false
}

// Cancel 放弃当前会话；已提交的位移保留在手势中。
func (d *Drag) Cancel() {
	if d.state == DragDragging && d.store.InGesture(d.id) {
		d.store.EndGesture(d.id)
	}
	d.reset()
}

// interrupted 在手势已被外部结束（例如撤销）时放弃会话，之后的移动不再提交。
func (d *Drag) interrupted() bool {
	if d.store.InGesture(d.id) {
		return false
	}
	logrus.WithField("element_id", d.id).Debug("drag interrupted, gesture closed")
	d.reset()
	return true
}

func (d *Drag) abort() {
	logrus.WithField("element_id", d.id).Debug("drag aborted, element vanished")
	d.store.EndGesture(d.id)
	d.reset()
}

func (d *Drag) reset() {
	if d.id != "" {
		d.exclusion.Release(d.id, HolderDrag)
	}
	d.frame++
	d.queued = false
	d.state = DragIdle
	d.id = ""
	d.dirty = false
	d.guides = snap.Alignments{}
}
