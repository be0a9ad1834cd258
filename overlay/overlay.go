// Package overlay 计算选择框、缩放手柄和操作栏在视口坐标中的位置。
package overlay

import (
	"math"
	"strings"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/interact"
)

// Placement 是操作栏相对选择框的位置。
type Placement string

const (
	Above Placement = "above"
	Below Placement = "below"
)

// Options 描述操作栏尺寸与留白，单位为视口像素。
type Options struct {
	BarSize geom.Size
	Gap     float64 // 操作栏与选择框的间距
	Margin  float64 // 操作栏与窗口边缘的最小距离
}

// DefaultOptions 返回默认的浮层尺寸。
func DefaultOptions() Options {
	return Options{BarSize: geom.Size{Width: 240, Height: 40}, Gap: 8, Margin: 8}
}

// Handle 是一个缩放手柄及其中心点。
type Handle struct {
	Direction interact.Direction `json:"direction"`
	Center    geom.Point         `json:"center"`
}

// Layout 是一次浮层计算的结果。Visible 为 false 时其余字段无意义。
type Layout struct {
	Visible   bool      `json:"visible"`
	Box       geom.Rect `json:"box"`
	Handles   []Handle  `json:"handles,omitempty"`
	Bar       geom.Rect `json:"bar"`
	Placement Placement `json:"placement"`
}

// Compute 为选中元素计算浮层。单选时给出该元素提供的手柄；多选只显示外接框与操作栏；
// 锁定的单个元素不显示手柄。
func Compute(selected []element.Element, vp geom.Viewport, window geom.Size, opts Options) Layout {
	if len(selected) == 0 {
		return Layout{}
	}
	rects := make([]geom.Rect, len(selected))
	for i, e := range selected {
		rects[i] = e.Rect
	}
	bounds, _ := geom.Bounds(rects)
	box := vp.ToViewport(bounds)
	out := Layout{Visible: true, Box: box}

	if len(selected) == 1 && !selected[0].IsLocked {
		for _, d := range interact.HandlesFor(selected[0]) {
			out.Handles = append(out.Handles, Handle{Direction: d, Center: handleCenter(box, d)})
		}
	}
	out.Bar, out.Placement = placeBar(box, window, opts)
	return out
}

func handleCenter(box geom.Rect, d interact.Direction) geom.Point {
	s := string(d)
	p := box.Center()
	switch {
	case strings.ContainsRune(s, 'w'):
		p.X = box.X
	case strings.ContainsRune(s, 'e'):
		p.X = box.Right()
	}
	switch {
	case strings.ContainsRune(s, 'n'):
		p.Y = box.Y
	case strings.ContainsRune(s, 's'):
		p.Y = box.Bottom()
	}
	return p
}

// placeBar 优先把操作栏放在选择框上方居中；上方空间不足时放到下方。水平方向夹在窗口内。
func placeBar(box geom.Rect, window geom.Size, opts Options) (geom.Rect, Placement) {
	bar := geom.Rect{Width: opts.BarSize.Width, Height: opts.BarSize.Height}
	bar.X = box.CenterX() - bar.Width/2
	if window.Width > 0 {
		hi := window.Width - bar.Width - opts.Margin
		bar.X = math.Max(opts.Margin, math.Min(bar.X, hi))
	}
	bar.Y = box.Y - opts.Gap - bar.Height
	if bar.Y >= opts.Margin {
		return bar, Above
	}
	bar.Y = box.Bottom() + opts.Gap
	return bar, Below
}
