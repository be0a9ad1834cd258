package textfit

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// DefaultCooldown 是手动缩放结束后抑制自动适配的时长。
const DefaultCooldown = 2 * time.Second

// FitterOptions 配置自动适配策略。
type FitterOptions struct {
	Clock    clock.Clock
	Cooldown time.Duration
}

// Fitter 决定内容或样式变化时文本框是否自动适配宽度。
// 正在缩放、处于缩放冷却期或被手动调整过尺寸的元素只更新内容，保留宽度。
type Fitter struct {
	engine   *Engine
	clock    clock.Clock
	cooldown time.Duration

	resizing          map[string]bool
	lastResizeEndedAt map[string]time.Time
}

// NewFitter 创建自动适配策略。
func NewFitter(engine *Engine, opts FitterOptions) *Fitter {
	f := &Fitter{
		engine:            engine,
		clock:             opts.Clock,
		cooldown:          opts.Cooldown,
		resizing:          map[string]bool{},
		lastResizeEndedAt: map[string]time.Time{},
	}
	if f.engine == nil {
		f.engine = NewEngine(Options{})
	}
	if f.clock == nil {
		f.clock = clock.System{}
	}
	if f.cooldown <= 0 {
		f.cooldown = DefaultCooldown
	}
	return f
}

// Engine 返回底层测量引擎。
func (f *Fitter) Engine() *Engine { return f.engine }

// ResizeStarted 记录元素进入缩放会话。
func (f *Fitter) ResizeStarted(id string) { f.resizing[id] = true }

// ResizeEnded 记录缩放结束时间，冷却期从 at 开始计算。
func (f *Fitter) ResizeEnded(id string, at time.Time) {
	delete(f.resizing, id)
	f.lastResizeEndedAt[id] = at
}

// Forget 清除元素的缩放记录（元素被删除时调用）。
func (f *Fitter) Forget(id string) {
	delete(f.resizing, id)
	delete(f.lastResizeEndedAt, id)
}

// Suppressed 报告元素当前是否不应自动适配宽度。
func (f *Fitter) Suppressed(e element.Element) bool {
	if e.ManuallyResized || f.resizing[e.ID] {
		return true
	}
	if at, ok := f.lastResizeEndedAt[e.ID]; ok && f.clock.Now().Sub(at) < f.cooldown {
		return true
	}
	return false
}

// OnContentChange 返回内容变化后应提交的补丁（包含新内容与几何）。
func (f *Fitter) OnContentChange(e element.Element, content string) element.Patch {
	p := element.Patch{Content: element.Ptr(content)}
	if e.Kind != element.KindText || e.Text == nil {
		return p
	}
	return f.fit(e, p)
}

// OnStyleChange 返回样式变化后应提交的补丁（样式字段 + 几何）。
func (f *Fitter) OnStyleChange(e element.Element, style element.Patch) element.Patch {
	if e.Kind != element.KindText || e.Text == nil {
		return style
	}
	return f.fit(e, style)
}

func (f *Fitter) fit(e element.Element, p element.Patch) element.Patch {
	next := p.Apply(e)
	style := StyleOf(next.Text)
	rect := next.Rect
	log := logrus.WithField("element_id", e.ID)

	if f.Suppressed(e) {
		rect.Height = f.engine.MeasureHeight(next.Text.Content, rect.Width, style)
		log.WithField("width", rect.Width).Debug("auto-fit suppressed, keeping width")
	} else {
		width := f.engine.MeasureWidth(next.Text.Content, style)
		rect.X -= (width - rect.Width) / 2
		rect.Width = width
		rect.Height = f.engine.MeasureHeight(next.Text.Content, width, style)
	}
	if rect != e.Rect {
		p.Rect = &geom.Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
	}
	return p
}
