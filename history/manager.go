package history

import "github.com/sirupsen/logrus"

// Manager 维护动作列表与游标：游标指向最后一个已生效的动作，-1 表示没有可撤销的动作。
type Manager struct {
	applier Applier
	actions []Action
	cursor  int
	limit   int
}

// Options 配置历史管理器。Limit <= 0 表示不限制条数。
type Options struct {
	Limit int
}

// New 创建历史管理器。
func New(applier Applier, opts Options) *Manager {
	return &Manager{applier: applier, cursor: -1, limit: opts.Limit}
}

// Push 记录一条新动作并丢弃游标之后的重做分支。超出容量时丢弃最旧的记录。
func (m *Manager) Push(a Action) {
	if a == nil {
		return
	}
	m.actions = append(m.actions[:m.cursor+1], a)
	m.cursor = len(m.actions) - 1
	if m.limit > 0 && len(m.actions) > m.limit {
		drop := len(m.actions) - m.limit
		m.actions = append([]Action(nil), m.actions[drop:]...)
		m.cursor -= drop
	}
}

// Undo 撤销游标处的动作；无可撤销动作时不做任何事。
func (m *Manager) Undo() bool {
	if !m.CanUndo() {
		logrus.Debug("nothing to undo")
		return false
	}
	a := m.actions[m.cursor]
	a.Undo(m.applier)
	m.cursor--
	logrus.WithField("action", a.Describe()).Debug("undo")
	return true
}

// Redo 重新执行游标后的动作；无可重做动作时不做任何事。
func (m *Manager) Redo() bool {
	if !m.CanRedo() {
		logrus.Debug("nothing to redo")
		return false
	}
	m.cursor++
	a := m.actions[m.cursor]
	a.Redo(m.applier)
	logrus.WithField("action", a.Describe()).Debug("redo")
	return true
}

func (m *Manager) CanUndo() bool { return m.cursor > -1 }
func (m *Manager) CanRedo() bool { return m.cursor < len(m.actions)-1 }

// Len 返回记录条数。
func (m *Manager) Len() int { return len(m.actions) }

// Cursor 返回当前游标。
func (m *Manager) Cursor() int { return m.cursor }

// Clear 清空历史（例如加载新文档后）。
func (m *Manager) Clear() {
	m.actions = nil
	m.cursor = -1
}

// Entries 返回各动作的描述，用于调试输出。
func (m *Manager) Entries() []string {
	out := make([]string, len(m.actions))
	for i, a := range m.actions {
		out[i] = a.Describe()
	}
	return out
}
