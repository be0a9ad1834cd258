package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestViewportRoundTrip 验证 ToCanvas(ToViewport(r)) 往返精度（1e-6）。
func TestViewportRoundTrip(t *testing.T) {
	rects := []Rect{
		{0, 0, 0, 0},
		{10, 20, 100, 50},
		{-35.5, 12.25, 0.001, 999.9},
		{1e5, -1e5, 3, 7},
	}
	origins := []Point{{0, 0}, {240, 64}, {-13.7, 1024.5}}
	scales := []float64{0.1, 0.25, 1, 1.333, 2, 7.5}
	for _, r := range rects {
		for _, o := range origins {
			for _, s := range scales {
				back := ToCanvas(ToViewport(r, o, s), o, s)
				if !ApproxEqual(back, r, 1e-6) {
					t.Fatalf("往返误差过大: r=%+v origin=%+v scale=%g back=%+v", r, o, s, back)
				}
			}
		}
	}
}

func TestToViewportFormula(t *testing.T) {
	got := ToViewport(Rect{X: 10, Y: 20, Width: 30, Height: 40}, Point{X: 100, Y: 200}, 2)
	assert.Equal(t, Rect{X: 120, Y: 240, Width: 60, Height: 80}, got)
}

func TestPointAndDeltaConversions(t *testing.T) {
	vp := NewViewport(Point{X: 50, Y: 50}, 0.5)
	p := vp.PointToCanvas(Point{X: 60, Y: 70})
	assert.InDelta(t, 20, p.X, 1e-9)
	assert.InDelta(t, 40, p.Y, 1e-9)

	d := vp.DeltaToCanvas(Point{X: 5, Y: -5})
	assert.InDelta(t, 10, d.X, 1e-9)
	assert.InDelta(t, -10, d.Y, 1e-9)

	back := PointToViewport(p, vp.Origin, vp.Scale)
	assert.InDelta(t, 60, back.X, 1e-9)
	assert.InDelta(t, 70, back.Y, 1e-9)
}

// 默认构建下非法缩放退化为 1，而不是中断交互。
func TestInvalidScaleDegradesToOne(t *testing.T) {
	r := Rect{X: 1, Y: 2, Width: 3, Height: 4}
	for _, s := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		got := ToViewport(r, Point{}, s)
		require.Equal(t, r, got, "scale=%g", s)
	}
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 40}
	assert.Equal(t, 30.0, r.Right())
	assert.Equal(t, 50.0, r.Bottom())
	assert.Equal(t, Point{X: 20, Y: 30}, r.Center())
	assert.True(t, r.Contains(Point{X: 30, Y: 50}))
	assert.False(t, r.Contains(Point{X: 31, Y: 50}))
	assert.True(t, Rect{Width: 0, Height: 5}.Degenerate())

	u, ok := Bounds([]Rect{r, {X: 0, Y: 60, Width: 5, Height: 5}})
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 10, Width: 30, Height: 55}, u)

	_, ok = Bounds(nil)
	assert.False(t, ok)

	assert.Equal(t, Rect{X: 5, Y: 2, Width: 5, Height: 3}, Rect{X: 10, Y: 5, Width: -5, Height: -3}.Normalize())
}
