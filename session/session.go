// Package session 把编辑器、交互控制器、浮层与脚本绑定组装成一个可脚本驱动的会话。
// 会话使用手动时钟与手动帧调度，脚本中的 wait/frame 决定时间何时推进。
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/binding"
	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/config"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/editor"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/interact"
	canvasmeasure "github.com/ByLCY/vellum/measure/canvas"
	"github.com/ByLCY/vellum/overlay"
	"github.com/ByLCY/vellum/pages"
	"github.com/ByLCY/vellum/snap"
	"github.com/ByLCY/vellum/stores"
	"github.com/ByLCY/vellum/textfit"
)

var (
	// ErrExpectation 表示 expect 命令的断言不成立。
	ErrExpectation = errors.New("断言失败")
	// ErrRejected 表示交互被控制器拒绝（元素锁定、手柄不可用等）。
	ErrRejected = errors.New("交互被拒绝")
	// ErrUnknownElement 表示命令引用的元素不在当前页。
	ErrUnknownElement = errors.New("元素不存在")
	// ErrNoStore 表示会话没有配置存储却请求了保存。
	ErrNoStore = errors.New("会话没有配置存储")
)

// DefaultWindow 是未指定窗口尺寸时使用的视口大小。
var DefaultWindow = geom.Size{Width: 1280, Height: 800}

// Options 配置会话。零值可用：默认配置、按配置选择测量器、从当前时间开始的手动时钟。
type Options struct {
	Settings *config.Settings
	Measurer textfit.Measurer
	Clock    *clock.Manual
	Data     any // ${path} 插值使用的外部数据
	Viewport geom.Viewport
	Window   geom.Size
	NewID    func() string

	// Store 非空时启用自动保存：wait 推进时钟后按 AutosaveDelay 防抖保存，Save 立即保存。
	Store         document.Store
	AutosaveDelay time.Duration
}

// Session 持有一份文档的完整编辑状态。不是并发安全的，调用方负责串行访问。
type Session struct {
	doc      document.Document
	settings *config.Settings

	pages     *pages.Manager
	editor    *editor.Editor
	scheduler *interact.ManualScheduler
	drag      *interact.Drag
	resize    *interact.Resize
	clock     *clock.Manual
	overlay   *overlay.Positioner
	scope     *binding.Scope
	autosaver *stores.Autosaver

	viewport     geom.Viewport
	window       geom.Size
	pagesChanged bool
}

// MeasurerFor 按配置返回文本测量器："heuristic" 使用估算，其余使用字体度量。
func MeasurerFor(s *config.Settings) textfit.Measurer {
	if s != nil && s.Text.Measurer == "heuristic" {
		return textfit.Heuristic{}
	}
	return canvasmeasure.New()
}

// New 为文档创建会话。
func New(doc document.Document, opts Options) *Session {
	if opts.Settings == nil {
		opts.Settings = config.Default()
	}
	if opts.Measurer == nil {
		opts.Measurer = MeasurerFor(opts.Settings)
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewManual(time.Now())
	}
	if opts.Viewport.Scale <= 0 {
		opts.Viewport = geom.NewViewport(opts.Viewport.Origin, 1)
	}
	if opts.Window.Width <= 0 || opts.Window.Height <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return ulid.Make().String() }
	}
	st := opts.Settings

	s := &Session{
		doc:       doc,
		settings:  st,
		pages:     doc.Manager(),
		scheduler: &interact.ManualScheduler{},
		clock:     opts.Clock,
		scope:     binding.NewScope(opts.Data),
		viewport:  opts.Viewport,
		window:    opts.Window,
	}

	engine := textfit.NewEngine(textfit.Options{
		Measurer:    opts.Measurer,
		PixelRatio:  st.Text.PixelRatio,
		SurfaceSize: st.Text.SurfaceSize,
	})
	fitter := textfit.NewFitter(engine, textfit.FitterOptions{Clock: s.clock, Cooldown: st.Resize.Cooldown})
	s.editor = editor.New(s.pages, editor.Options{Fitter: fitter, HistoryLimit: st.History.Limit, NewID: opts.NewID})

	exclusion := interact.NewExclusion()
	s.drag = interact.NewDrag(s.editor, interact.DragOptions{
		Scheduler: s.scheduler,
		Exclusion: exclusion,
		Snapper:   snap.Snapper{Threshold: st.Snap.Threshold},
		DeadZone:  st.Drag.DeadZone,
		SuppressClick: func() bool {
			return s.resize.JustFinished(s.clock.Now())
		},
	})
	s.resize = interact.NewResize(s.editor, interact.ResizeOptions{
		Scheduler:          s.scheduler,
		Exclusion:          exclusion,
		Fitter:             fitter,
		Clock:              s.clock,
		MinDimension:       st.Resize.MinDimension,
		JustFinishedWindow: st.Resize.JustFinishedWindow,
	})

	s.overlay = overlay.NewPositioner(s.computeOverlay, s.clock, st.Overlay.Debounce)
	s.editor.OnChange(func(editor.Change) { s.overlay.Update() })
	s.overlay.Update()

	if opts.Store != nil {
		s.autosaver = stores.NewAutosaver(opts.Store, s.editor, s.Snapshot, stores.AutosaveOptions{
			Delay:     opts.AutosaveDelay,
			Clock:     s.clock,
			Dirty:     s.Dirty,
			MarkSaved: s.MarkSaved,
		})
	}
	return s
}

// Save 立即保存未保存的改动，返回是否写入了存储。首次保存分配的 ID 会被会话沿用。
func (s *Session) Save(ctx context.Context) (bool, error) {
	if s.autosaver == nil {
		return false, ErrNoStore
	}
	if !s.Dirty() {
		return false, nil
	}
	if err := s.autosaver.Flush(ctx); err != nil {
		return false, err
	}
	s.adoptSavedID()
	return true, nil
}

func (s *Session) adoptSavedID() {
	if s.doc.ID == "" {
		s.doc.ID = s.autosaver.ID()
	}
}

// Close 停止自动保存的监听。
func (s *Session) Close() {
	if s.autosaver != nil {
		s.autosaver.Close()
	}
}

// pagesTouched 记录页面列表的变化；页面不经过编辑器历史，需要单独标记。
func (s *Session) pagesTouched() {
	s.pagesChanged = true
	if s.autosaver != nil {
		s.autosaver.Touch()
	}
}

// Editor 返回会话的编辑器。
func (s *Session) Editor() *editor.Editor { return s.editor }

// Pages 返回会话的页面管理器。
func (s *Session) Pages() *pages.Manager { return s.pages }

// Clock 返回会话的手动时钟。
func (s *Session) Clock() *clock.Manual { return s.clock }

// Scope 返回脚本绑定。
func (s *Session) Scope() *binding.Scope { return s.scope }

// Overlay 返回当前浮层布局。
func (s *Session) Overlay() overlay.Layout { return s.overlay.Layout() }

// Dirty 报告自上次 MarkSaved 以来文档是否有改动（包括新增或切换页面）。
func (s *Session) Dirty() bool { return s.editor.Dirty() || s.pagesChanged }

// MarkSaved 清除未保存标记。
func (s *Session) MarkSaved() {
	s.editor.MarkSaved()
	s.pagesChanged = false
}

// Snapshot 返回当前文档状态，保留 ID、标题与创建时间。
func (s *Session) Snapshot() document.Document {
	out := document.FromManager(s.doc.ID, s.doc.Title, s.pages)
	out.CreatedAt = s.doc.CreatedAt
	out.UpdatedAt = s.doc.UpdatedAt
	return out
}

// SetViewport 改变视口（缩放或滚动），浮层在防抖之后重新定位。
func (s *Session) SetViewport(vp geom.Viewport) {
	s.viewport = vp
	s.overlay.Invalidate()
}

// SetWindow 改变窗口尺寸，浮层在防抖之后重新定位。
func (s *Session) SetWindow(size geom.Size) {
	s.window = size
	s.overlay.Invalidate()
}

func (s *Session) computeOverlay() overlay.Layout {
	return overlay.Compute(s.editor.SelectedElements(), s.viewport, s.window, overlay.DefaultOptions())
}

// RunString 解析并执行脚本。
func (s *Session) RunString(ctx context.Context, script string) (*Report, error) {
	parsed, err := dsl.ParseString(script)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dsl.ErrInvalid, err)
	}
	return s.Run(ctx, parsed)
}

// Run 逐条执行脚本命令。脚本先整体校验；执行遇到第一个错误即停止，
// 返回的报告包含已执行的步骤与出错时的状态。
func (s *Session) Run(ctx context.Context, script *dsl.Script) (*Report, error) {
	if err := dsl.Validate(script); err != nil {
		return nil, err
	}
	report := &Report{}
	for _, c := range script.Commands {
		if err := ctx.Err(); err != nil {
			s.fill(report)
			return report, err
		}
		step := Step{Line: c.Pos.Line, Command: c.Name}
		err := s.exec(ctx, c, &step)
		if err != nil {
			step.Error = err.Error()
			report.Steps = append(report.Steps, step)
			s.fill(report)
			logrus.WithFields(logrus.Fields{"line": c.Pos.Line, "command": c.Name}).WithError(err).Debug("script step failed")
			return report, fmt.Errorf("第 %d 行 %s: %w", c.Pos.Line, c.Name, err)
		}
		report.Steps = append(report.Steps, step)
	}
	s.fill(report)
	return report, nil
}
