package interact

// Scheduler 把回调推迟到下一帧执行。指针移动在帧内合并，每帧只提交一次。
type Scheduler interface {
	RequestFrame(fn func())
}

// ManualScheduler 收集帧回调，由调用方（测试、脚本回放、渲染循环）显式 Flush。
type ManualScheduler struct {
	pending []func()
}

func (s *ManualScheduler) RequestFrame(fn func()) {
	s.pending = append(s.pending, fn)
}

// Pending 返回尚未执行的回调数量。
func (s *ManualScheduler) Pending() int { return len(s.pending) }

// Flush 执行当前排队的回调并返回执行数量。回调中新请求的帧留到下一次 Flush。
func (s *ManualScheduler) Flush() int {
	batch := s.pending
	s.pending = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// ImmediateScheduler 立即执行回调，相当于每个采样一帧。
type ImmediateScheduler struct{}

func (ImmediateScheduler) RequestFrame(fn func()) { fn() }
