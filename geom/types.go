package geom

import "math"

// 本包中的坐标若无特别说明均为画布坐标（canvas-space），与屏幕缩放无关。

// Point 表示二维点。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 返回两点之和。
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Sub 返回两点之差。
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Scale 按系数缩放。
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Distance 返回两点间的欧氏距离。
func (p Point) Distance(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size 描述画布或元素尺寸。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 是元素的规范矩形：左上角 + 宽高。
// 宽高应当 >= 0；零面积是合法值，但渲染方应视为退化矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64   { return r.X + r.Width }
func (r Rect) Bottom() float64  { return r.Y + r.Height }
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Center 返回矩形中心点。
func (r Rect) Center() Point { return Point{X: r.CenterX(), Y: r.CenterY()} }

// Size 返回矩形的宽高。
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Degenerate 报告矩形是否为零面积。
func (r Rect) Degenerate() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains 判断点是否落在矩形内（含边界）。
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Translate 平移矩形。
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union 返回同时包含两个矩形的最小矩形。
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	x2 := math.Max(r.Right(), o.Right())
	y2 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Normalize 将负宽高翻转为等价的正宽高矩形。
func (r Rect) Normalize() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// Bounds 返回一组矩形的外接矩形；空切片返回零值与 false。
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

// ApproxEqual 在容差内比较两个矩形。
func ApproxEqual(a, b Rect, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Width-b.Width) <= eps &&
		math.Abs(a.Height-b.Height) <= eps
}
