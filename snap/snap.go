// Package snap 计算拖动中元素吸附到对齐线后的位置，以及需要绘制的参考线。
// 两个轴独立计算，纯函数，无状态。
package snap

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// DefaultThreshold 是吸附阈值（画布单位）。距离恰好等于阈值时不吸附。
const DefaultThreshold = 10.0

// coincideEps 用于判断吸附后的特征是否与候选线重合。
const coincideEps = 1e-6

// Priority 是候选线的优先级，数值越小越优先，仅在距离相同时参与比较。
type Priority int

const (
	CanvasCenter Priority = iota
	CanvasEdge
	SiblingCenter
	SiblingEdge
)

// Line 是某一轴上的候选对齐线。
type Line struct {
	Pos      float64
	Priority Priority
}

// Alignments 记录吸附后用于绘制的参考线：Vertical 为 x 坐标，Horizontal 为 y 坐标。
type Alignments struct {
	Horizontal []float64 `json:"horizontal"`
	Vertical   []float64 `json:"vertical"`
}

// Empty 报告是否没有任何参考线。
func (a Alignments) Empty() bool { return len(a.Horizontal) == 0 && len(a.Vertical) == 0 }

// Result 是吸附计算的结果。
type Result struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	SnappedX   bool       `json:"snappedX"`
	SnappedY   bool       `json:"snappedY"`
	Alignments Alignments `json:"alignments"`
}

// Snapper 持有吸附阈值。零值使用 DefaultThreshold。
type Snapper struct {
	Threshold float64
}

// GetSnappedPosition 使用默认阈值计算吸附结果。
func GetSnappedPosition(moving element.Element, proposedX, proposedY float64, siblings []element.Element, canvasW, canvasH float64, isDragging, isSelected bool) Result {
	return Snapper{}.GetSnappedPosition(moving, proposedX, proposedY, siblings, canvasW, canvasH, isDragging, isSelected)
}

// GetSnappedPosition 计算 moving 在建议位置附近的吸附结果。
// isDragging 为 false 时原样返回；isSelected 为 false 时照常吸附但不报告参考线。
func (s Snapper) GetSnappedPosition(moving element.Element, proposedX, proposedY float64, siblings []element.Element, canvasW, canvasH float64, isDragging, isSelected bool) Result {
	res := Result{X: proposedX, Y: proposedY}
	if !isDragging {
		return res
	}
	threshold := s.Threshold
	if !(threshold > 0) {
		threshold = DefaultThreshold
	}

	others := lo.Filter(siblings, func(e element.Element, _ int) bool { return e.ID != moving.ID })
	xs, ys := Candidates(others, canvasW, canvasH)
	w, h := moving.Rect.Width, moving.Rect.Height

	res.X, res.SnappedX = snapAxis(proposedX, w, xs, threshold)
	res.Y, res.SnappedY = snapAxis(proposedY, h, ys, threshold)

	if isSelected {
		res.Alignments = Alignments{
			Vertical:   coinciding(res.X, w, xs),
			Horizontal: coinciding(res.Y, h, ys),
		}
	}
	return res
}

// Candidates 返回 x 轴与 y 轴的候选对齐线：画布中心与边缘，以及各兄弟元素的中心与边缘。
func Candidates(siblings []element.Element, canvasW, canvasH float64) (xs, ys []Line) {
	xs = []Line{
		{Pos: canvasW / 2, Priority: CanvasCenter},
		{Pos: 0, Priority: CanvasEdge},
		{Pos: canvasW, Priority: CanvasEdge},
	}
	ys = []Line{
		{Pos: canvasH / 2, Priority: CanvasCenter},
		{Pos: 0, Priority: CanvasEdge},
		{Pos: canvasH, Priority: CanvasEdge},
	}
	for _, sib := range siblings {
		r := sib.Rect
		xs = append(xs,
			Line{Pos: r.CenterX(), Priority: SiblingCenter},
			Line{Pos: r.X, Priority: SiblingEdge},
			Line{Pos: r.Right(), Priority: SiblingEdge},
		)
		ys = append(ys,
			Line{Pos: r.CenterY(), Priority: SiblingCenter},
			Line{Pos: r.Y, Priority: SiblingEdge},
			Line{Pos: r.Bottom(), Priority: SiblingEdge},
		)
	}
	return xs, ys
}

// features 返回元素在某一轴上的特征相对起点的偏移：起边、中心、止边。
func features(size float64) [3]float64 {
	return [3]float64{0, size / 2, size}
}

func snapAxis(proposed, size float64, lines []Line, threshold float64) (float64, bool) {
	bestDist := math.Inf(1)
	bestPriority := Priority(math.MaxInt32)
	best := proposed
	found := false
	for _, off := range features(size) {
		feature := proposed + off
		for _, l := range lines {
			d := math.Abs(feature - l.Pos)
			if d >= threshold {
				continue
			}
			if d < bestDist || (d == bestDist && l.Priority < bestPriority) {
				bestDist = d
				bestPriority = l.Priority
				best = l.Pos - off
				found = true
			}
		}
	}
	return best, found
}

func coinciding(pos, size float64, lines []Line) []float64 {
	var out []float64
	for _, off := range features(size) {
		feature := pos + off
		for _, l := range lines {
			if math.Abs(feature-l.Pos) <= coincideEps {
				out = append(out, l.Pos)
			}
		}
	}
	out = lo.Uniq(out)
	sort.Float64s(out)
	return out
}

// GuideSegments 把参考线转换为可绘制的线段，横跨整个画布。
func GuideSegments(a Alignments, canvas geom.Size) [][2]geom.Point {
	segs := make([][2]geom.Point, 0, len(a.Horizontal)+len(a.Vertical))
	for _, x := range a.Vertical {
		segs = append(segs, [2]geom.Point{{X: x, Y: 0}, {X: x, Y: canvas.Height}})
	}
	for _, y := range a.Horizontal {
		segs = append(segs, [2]geom.Point{{X: 0, Y: y}, {X: canvas.Width, Y: y}})
	}
	return segs
}
