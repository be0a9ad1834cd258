package interact

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/textfit"
)

// DefaultJustFinishedWindow 是缩放结束后被视为“刚完成缩放”的时长，用于吞掉随后的点击。
const DefaultJustFinishedWindow = 200 * time.Millisecond

// Direction 是缩放手柄的方向。
type Direction string

const (
	N  Direction = "n"
	S  Direction = "s"
	E  Direction = "e"
	W  Direction = "w"
	NE Direction = "ne"
	NW Direction = "nw"
	SE Direction = "se"
	SW Direction = "sw"
)

var (
	allHandles    = []Direction{N, S, E, W, NE, NW, SE, SW}
	cornerHandles = []Direction{NE, NW, SE, SW}
)

// ParseDirection 解析手柄方向。
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, slices.Contains(allHandles, d)
}

// IsCorner 报告是否为角手柄。
func (d Direction) IsCorner() bool { return len(d) == 2 }

func (d Direction) has(c byte) bool { return strings.IndexByte(string(d), c) >= 0 }

// HandlesFor 返回元素类型提供的缩放手柄。
// 文本没有 n/s（高度由内容决定）；圆形只有角手柄；线条只能调整长度。
func HandlesFor(e element.Element) []Direction {
	switch {
	case e.Kind == element.KindText:
		return []Direction{E, W, NE, NW, SE, SW}
	case e.Kind == element.KindLine || e.Kind == element.KindArrow:
		return []Direction{E, W}
	case e.FixedAspect():
		return cornerHandles
	default:
		return allHandles
	}
}

// ResizeRect 根据起始矩形、画布位移与方向计算新矩形。
// keepAspect 仅对角手柄生效；任一边被最小尺寸截断时，对边保持不动。
func ResizeRect(start geom.Rect, dir Direction, dx, dy float64, keepAspect bool, minDim float64) geom.Rect {
	w, h := start.Width, start.Height
	if dir.has('e') {
		w = start.Width + dx
	}
	if dir.has('w') {
		w = start.Width - dx
	}
	if dir.has('s') {
		h = start.Height + dy
	}
	if dir.has('n') {
		h = start.Height - dy
	}

	if keepAspect && dir.IsCorner() && start.Width > 0 && start.Height > 0 {
		factor := math.Max(w/start.Width, h/start.Height)
		factor = math.Max(factor, math.Max(minDim/start.Width, minDim/start.Height))
		w = start.Width * factor
		h = start.Height * factor
	}
	w = math.Max(w, minDim)
	h = math.Max(h, minDim)
	if !dir.has('e') && !dir.has('w') {
		w = start.Width
	}
	if !dir.has('n') && !dir.has('s') {
		h = start.Height
	}

	out := geom.Rect{X: start.X, Y: start.Y, Width: w, Height: h}
	if dir.has('w') {
		out.X = start.Right() - w
	}
	if dir.has('n') {
		out.Y = start.Bottom() - h
	}
	return out
}

// ResizeOptions 配置缩放控制器。
type ResizeOptions struct {
	Scheduler          Scheduler
	Exclusion          *Exclusion
	Fitter             *textfit.Fitter
	Clock              clock.Clock
	MinDimension       float64
	JustFinishedWindow time.Duration
}

// Resize 是缩放状态机：Idle → Resizing → Idle。
type Resize struct {
	store     Store
	scheduler Scheduler
	exclusion *Exclusion
	fitter    *textfit.Fitter
	clock     clock.Clock
	minDim    float64
	window    time.Duration

	active     bool
	id         string
	dir        Direction
	viewport   geom.Viewport
	press      geom.Point
	latest     geom.Point
	keepAspect bool
	start      element.Element
	dirty      bool
	frame      int
	queued     bool
	justUntil  time.Time
}

// NewResize 创建缩放控制器。
func NewResize(store Store, opts ResizeOptions) *Resize {
	r := &Resize{
		store:     store,
		scheduler: opts.Scheduler,
		exclusion: opts.Exclusion,
		fitter:    opts.Fitter,
		clock:     opts.Clock,
		minDim:    opts.MinDimension,
		window:    opts.JustFinishedWindow,
	}
	if r.scheduler == nil {
		r.scheduler = ImmediateScheduler{}
	}
	if r.exclusion == nil {
		r.exclusion = NewExclusion()
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	if r.fitter == nil {
		r.fitter = textfit.NewFitter(nil, textfit.FitterOptions{Clock: r.clock})
	}
	if r.minDim <= 0 {
		r.minDim = element.MinDimension
	}
	if r.window <= 0 {
		r.window = DefaultJustFinishedWindow
	}
	return r
}

// Active 报告是否处于缩放会话中。
func (r *Resize) Active() bool { return r.active }

// ElementID 返回当前会话的元素 ID。
func (r *Resize) ElementID() string { return r.id }

// Direction 返回当前会话的手柄方向。
func (r *Resize) Direction() Direction { return r.dir }

// Press 在手柄上按下。锁定元素、被拖动占用的元素或该类型不提供的手柄返回 false。
func (r *Resize) Press(id string, dir Direction, pointer geom.Point, vp geom.Viewport) bool {
	log := logrus.WithFields(logrus.Fields{"element_id": id, "direction": string(dir)})
	if r.active {
		log.Debug("resize press ignored, session active")
		return false
	}
	el, ok := r.store.Element(id)
	if !ok {
		log.Debug("resize press ignored, element not found")
		return false
	}
	if el.IsLocked {
		log.Debug("resize press ignored, element locked")
		return false
	}
	if !slices.Contains(HandlesFor(el), dir) {
		log.Debug("resize press ignored, handle not offered")
		return false
	}
	if !r.exclusion.Acquire(id, HolderResize) {
		log.WithField("holder", r.exclusion.HeldBy(id).String()).Debug("resize press rejected")
		return false
	}
	r.active = true
	r.id = id
	r.dir = dir
	r.viewport = vp
	r.press = pointer
	r.latest = pointer
	r.keepAspect = false
	r.start = el.Clone()
	r.dirty = false
	r.fitter.ResizeStarted(id)
	r.store.BeginGesture(id)
	return true
}

// Move 报告指针移动；keepAspect 表示是否按住了等比修饰键。
func (r *Resize) Move(pointer geom.Point, keepAspect bool) {
	if !r.active || r.interrupted() {
		return
	}
	r.latest = pointer
	r.keepAspect = keepAspect
	r.dirty = true
	if r.queued {
		return
	}
	r.queued = true
	token := r.frame
	r.scheduler.RequestFrame(func() {
		if token != r.frame {
			return
		}
		r.queued = false
		r.commit()
	})
}

func (r *Resize) commit() {
	if !r.dirty || !r.active || r.interrupted() {
		return
	}
	r.dirty = false
	if _, ok := r.store.Element(r.id); !ok {
		logrus.WithField("element_id", r.id).Debug("resize aborted, element vanished")
		r.finish(false)
		return
	}
	d := r.viewport.DeltaToCanvas(r.latest.Sub(r.press))
	patch := r.patchFor(d)
	r.store.UpdateElement(r.id, patch)
}

// patchFor 计算相对按下时刻的总位移对应的补丁。
func (r *Resize) patchFor(d geom.Point) element.Patch {
	start := r.start
	keep := r.keepAspect || start.FixedAspect()
	if start.Kind == element.KindText && r.dir.IsCorner() {
		keep = true
	}
	rect := ResizeRect(start.Rect, r.dir, d.X, d.Y, keep, r.minDim)
	p := element.Patch{Rect: &rect}

	if start.Kind == element.KindText && start.Text != nil {
		style := textfit.StyleOf(start.Text)
		if r.dir.IsCorner() && start.Rect.Width > 0 {
			factor := rect.Width / start.Rect.Width
			style.FontSize = start.Text.FontSize * factor
			p.FontSize = element.Ptr(style.FontSize)
		} else {
			h := r.fitter.Engine().MeasureHeight(start.Text.Content, rect.Width, style)
			rect.Height = math.Max(h, r.minDim)
			if r.dir.has('n') {
				rect.Y = start.Rect.Bottom() - rect.Height
			}
		}
	}
	return p
}

// Release 结束缩放：冲刷待提交的帧并结束手势。
func (r *Resize) Release(pointer geom.Point) {
	if !r.active || r.interrupted() {
		return
	}
	r.latest = pointer
	r.dirty = true
	r.frame++
	r.queued = false
	r.commit()
	if r.active {
		r.finish(true)
	}
}

// Cancel 放弃当前会话（不标记手动缩放）。
func (r *Resize) Cancel() {
	if r.active {
		r.finish(false)
	}
}

// interrupted 在手势已被外部结束（例如撤销）时放弃会话。
func (r *Resize) interrupted() bool {
	if r.store.InGesture(r.id) {
		return false
	}
	logrus.WithField("element_id", r.id).Debug("resize interrupted, gesture closed")
	r.finish(false)
	return true
}

func (r *Resize) finish(completed bool) {
	id := r.id
	now := r.clock.Now()
	if completed {
		if el, ok := r.store.Element(id); ok {
			p := element.Patch{}
			if el.Kind == element.KindText && !el.ManuallyResized {
				p.ManuallyResized = element.Ptr(true)
			}
			if el.IsNew {
				p.IsNew = element.Ptr(false)
			}
			if !p.IsEmpty() {
				r.store.UpdateElement(id, p)
			}
		}
		r.justUntil = now.Add(r.window)
	}
	if r.store.InGesture(id) {
		r.store.EndGesture(id)
	}
	r.fitter.ResizeEnded(id, now)
	r.exclusion.Release(id, HolderResize)
	r.frame++
	r.queued = false
	r.active = false
	r.id = ""
	r.dir = ""
	logrus.WithField("element_id", id).Debug("resize finished")
}

// JustFinished 报告 now 是否仍处于上次缩放结束后的短窗口内。
// Drag 通过 DragOptions.SuppressClick 用它吞掉松开手柄后紧跟的点击。
func (r *Resize) JustFinished(now time.Time) bool {
	return !r.justUntil.IsZero() && now.Before(r.justUntil)
}
