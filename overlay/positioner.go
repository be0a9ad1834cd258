package overlay

import (
	"time"

	"github.com/ByLCY/vellum/clock"
)

// DefaultDebounce 是窗口缩放或滚动后重新定位浮层前的等待时间。
const DefaultDebounce = 50 * time.Millisecond

// Positioner 缓存最近一次浮层结果。选择变化时立即重算；
// 窗口缩放与滚动产生的连续事件合并为静默 Debounce 之后的一次重算。
type Positioner struct {
	compute  func() Layout
	clock    clock.Clock
	debounce time.Duration

	current Layout
	due     time.Time
	pending bool
}

// NewPositioner 创建定位器。compute 返回基于当前选择与视口的浮层。
func NewPositioner(compute func() Layout, clk clock.Clock, debounce time.Duration) *Positioner {
	if clk == nil {
		clk = clock.System{}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Positioner{compute: compute, clock: clk, debounce: debounce}
}

// Layout 返回缓存的浮层。
func (p *Positioner) Layout() Layout { return p.current }

// Update 立即重算并取消待执行的重算。
func (p *Positioner) Update() Layout {
	p.pending = false
	p.current = p.compute()
	return p.current
}

// Invalidate 记录一次窗口缩放或滚动。
func (p *Positioner) Invalidate() {
	p.pending = true
	p.due = p.clock.Now().Add(p.debounce)
}

// Pending 报告是否有等待中的重算。
func (p *Positioner) Pending() bool { return p.pending }

// Tick 在静默期结束后执行等待中的重算，返回是否重算。
func (p *Positioner) Tick() bool {
	if !p.pending || p.clock.Now().Before(p.due) {
		return false
	}
	p.Update()
	return true
}
