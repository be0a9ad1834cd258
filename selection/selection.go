// Package selection 维护画布的选择状态：未选中（画布）、单选或多选，任一时刻恰好处于其中一种。
package selection

import "slices"

// Mode 是选择状态的判别值。
type Mode int

const (
	ModeCanvas Mode = iota
	ModeSingle
	ModeMulti
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeMulti:
		return "multi"
	default:
		return "canvas"
	}
}

// Manager 按选择顺序保存选中的元素 ID。
type Manager struct {
	ids []string
}

// New 创建处于画布模式的选择管理器。
func New() *Manager { return &Manager{} }

// Mode 返回当前模式：0 个为画布，1 个为单选，更多为多选。
func (m *Manager) Mode() Mode {
	switch len(m.ids) {
	case 0:
		return ModeCanvas
	case 1:
		return ModeSingle
	default:
		return ModeMulti
	}
}

// Select 选择元素。id 为空时清空选择；add 为 false 时替换，为 true 时切换成员身份。
func (m *Manager) Select(id string, add bool) {
	if id == "" {
		m.Clear()
		return
	}
	if !add {
		m.ids = []string{id}
		return
	}
	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(m.ids, i, i+1)
		return
	}
	m.ids = append(m.ids, id)
}

// SelectCanvas 切换到画布模式。
func (m *Manager) SelectCanvas() { m.Clear() }

// Clear 清空选择。
func (m *Manager) Clear() { m.ids = nil }

// Remove 从选择中移除给定 ID（例如元素被删除后）。
func (m *Manager) Remove(ids ...string) {
	m.ids = slices.DeleteFunc(m.ids, func(id string) bool { return slices.Contains(ids, id) })
	if len(m.ids) == 0 {
		m.ids = nil
	}
}

// Set 直接替换选择集合，重复 ID 只保留第一次出现。
func (m *Manager) Set(ids []string) {
	m.ids = nil
	for _, id := range ids {
		if id != "" && !slices.Contains(m.ids, id) {
			m.ids = append(m.ids, id)
		}
	}
}

// IDs 返回选中 ID 的副本。
func (m *Manager) IDs() []string { return slices.Clone(m.ids) }

// Contains 报告元素是否被选中。
func (m *Manager) Contains(id string) bool { return slices.Contains(m.ids, id) }

// Single 在单选模式下返回选中的 ID。
func (m *Manager) Single() (string, bool) {
	if len(m.ids) == 1 {
		return m.ids[0], true
	}
	return "", false
}

// Len 返回选中数量。
func (m *Manager) Len() int { return len(m.ids) }
