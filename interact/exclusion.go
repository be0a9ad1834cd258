package interact

// Holder 标识占用元素的交互会话类型。
type Holder int

const (
	HolderNone Holder = iota
	HolderDrag
	HolderResize
)

func (h Holder) String() string {
	switch h {
	case HolderDrag:
		return "drag"
	case HolderResize:
		return "resize"
	default:
		return "none"
	}
}

// Exclusion 保证同一元素不会同时处于拖动与缩放会话中。拖动与缩放控制器共享同一实例。
type Exclusion struct {
	holders map[string]Holder
}

// NewExclusion 创建互斥表。
func NewExclusion() *Exclusion {
	return &Exclusion{holders: map[string]Holder{}}
}

// Acquire 尝试为 h 占用元素；已被其他会话占用时返回 false。同一会话重复占用视为成功。
func (x *Exclusion) Acquire(id string, h Holder) bool {
	if cur, ok := x.holders[id]; ok && cur != h {
		return false
	}
	x.holders[id] = h
	return true
}

// Release 释放 h 对元素的占用；非占用者调用无效果。
func (x *Exclusion) Release(id string, h Holder) {
	if x.holders[id] == h {
		delete(x.holders, id)
	}
}

// HeldBy 返回占用元素的会话类型。
func (x *Exclusion) HeldBy(id string) Holder {
	return x.holders[id]
}
