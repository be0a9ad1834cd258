package geom

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Viewport 是坐标转换所需的显式上下文：画布容器在屏幕上的位置与当前缩放。
// 调用方（渲染层）负责在缩放或滚动变化时更新它。
type Viewport struct {
	Origin Point   `json:"origin"`
	Scale  float64 `json:"scale"`
}

// NewViewport 创建视口上下文。
func NewViewport(origin Point, scale float64) Viewport {
	return Viewport{Origin: origin, Scale: checkScale(scale)}
}

// ToViewport 将画布坐标矩形转换为屏幕坐标。
func ToViewport(r Rect, origin Point, scale float64) Rect {
	s := checkScale(scale)
	return Rect{
		X:      origin.X + r.X*s,
		Y:      origin.Y + r.Y*s,
		Width:  r.Width * s,
		Height: r.Height * s,
	}
}

// ToCanvas 是 ToViewport 的逆变换。
func ToCanvas(r Rect, origin Point, scale float64) Rect {
	s := checkScale(scale)
	return Rect{
		X:      (r.X - origin.X) / s,
		Y:      (r.Y - origin.Y) / s,
		Width:  r.Width / s,
		Height: r.Height / s,
	}
}

// PointToCanvas 将屏幕坐标点转换为画布坐标。
func PointToCanvas(p Point, origin Point, scale float64) Point {
	s := checkScale(scale)
	return Point{X: (p.X - origin.X) / s, Y: (p.Y - origin.Y) / s}
}

// PointToViewport 将画布坐标点转换为屏幕坐标。
func PointToViewport(p Point, origin Point, scale float64) Point {
	s := checkScale(scale)
	return Point{X: origin.X + p.X*s, Y: origin.Y + p.Y*s}
}

// DeltaToCanvas 将屏幕位移换算为画布位移（仅缩放，不含平移）。
func DeltaToCanvas(d Point, scale float64) Point {
	s := checkScale(scale)
	return Point{X: d.X / s, Y: d.Y / s}
}

func (v Viewport) ToViewport(r Rect) Rect      { return ToViewport(r, v.Origin, v.Scale) }
func (v Viewport) ToCanvas(r Rect) Rect        { return ToCanvas(r, v.Origin, v.Scale) }
func (v Viewport) PointToCanvas(p Point) Point { return PointToCanvas(p, v.Origin, v.Scale) }
func (v Viewport) DeltaToCanvas(d Point) Point { return DeltaToCanvas(d, v.Scale) }

// checkScale 校验缩放系数。scale <= 0 属于编程错误：
// 调试构建（-tags vellumdebug）直接 panic，默认构建记录告警并退化为 1。
func checkScale(scale float64) float64 {
	if scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale) {
		return scale
	}
	if strictAssertions {
		panic("geom: scale must be > 0")
	}
	logrus.WithField("scale", scale).Warn("invalid viewport scale, falling back to 1")
	return 1
}
