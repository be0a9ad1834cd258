// Package clock 提供可注入的时钟，使冷却窗口等时间相关逻辑无需真实等待即可测试。
package clock

import (
	"sync"
	"time"
)

// Clock 返回当前时间。
type Clock interface {
	Now() time.Time
}

// System 使用 time.Now。
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual 是测试与脚本回放用的手动时钟。
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual 以给定时间创建手动时钟；零值时间会被替换为固定的起点。
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance 将时钟向前推进 d。
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set 将时钟设置为 t。
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
