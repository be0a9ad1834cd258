package interact

import (
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// Store 是控制器对画布状态的最小依赖，由 editor.Editor 实现。
type Store interface {
	Element(id string) (element.Element, bool)
	Elements() []element.Element
	CanvasSize() geom.Size
	IsSelected(id string) bool
	UpdateElement(id string, p element.Patch)
	BeginGesture(id string)
	EndGesture(id string)
	// InGesture 报告手势是否仍然打开；撤销/重做会提前结束手势。
	InGesture(id string) bool
}
