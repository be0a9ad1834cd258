package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/geom"
)

func TestNormalizeLegacyFlatFields(t *testing.T) {
	e, err := Normalize(map[string]any{
		"kind":     "text",
		"x":        10,
		"y":        "20px",
		"width":    120.0,
		"height":   30.0,
		"content":  "hello",
		"fontSize": 18,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, KindText, e.Kind)
	assert.Equal(t, geom.Rect{X: 10, Y: 20, Width: 120, Height: 30}, e.Rect)
	require.NotNil(t, e.Text)
	assert.Equal(t, "hello", e.Text.Content)
	assert.Equal(t, 18.0, e.Text.FontSize)
	assert.Nil(t, e.Shape)
}

func TestNormalizeStructuredRectWinsOverFlat(t *testing.T) {
	e, err := Normalize(map[string]any{
		"type": "shape",
		"form": "circle",
		"x":    999,
		"rect": map[string]any{"x": 1.0, "y": 2.0, "width": 50.0, "height": 50.0},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{X: 1, Y: 2, Width: 50, Height: 50}, e.Rect)
	assert.True(t, e.FixedAspect())
}

func TestNormalizeLegacyFormAsKind(t *testing.T) {
	e, err := Normalize(map[string]any{"type": "triangle"}, "")
	require.NoError(t, err)
	assert.Equal(t, KindShape, e.Kind)
	assert.Equal(t, FormTriangle, e.Shape.Form)
}

func TestNormalizeDegradesMalformedNumbers(t *testing.T) {
	e, err := Normalize(map[string]any{
		"width":    "wide",
		"height":   -5,
		"fontSize": 0,
	}, KindText)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e.Rect.Width, MinDimension)
	assert.Greater(t, e.Rect.Height, 0.0)
	assert.Equal(t, DefaultFontSize, e.Text.FontSize)
}

func TestNormalizeClampsSmallSizesToMinimum(t *testing.T) {
	e, err := Normalize(map[string]any{"width": 5, "height": 3}, KindShape)
	require.NoError(t, err)
	assert.Equal(t, MinDimension, e.Rect.Width)
	assert.Equal(t, MinDimension, e.Rect.Height)

	// 缺失的尺寸仍取默认值
	e, err = Normalize(map[string]any{"height": 3}, KindShape)
	require.NoError(t, err)
	assert.Equal(t, 100.0, e.Rect.Width)

	line, err := Normalize(map[string]any{"width": 4, "height": 2}, KindLine)
	require.NoError(t, err)
	assert.Equal(t, MinDimension, line.Rect.Width)
	assert.Equal(t, 2.0, line.Rect.Height, "线条保留细高度")
}

func TestNormalizeRejectsUnknownKind(t *testing.T) {
	_, err := Normalize(map[string]any{"type": "video"}, "")
	require.Error(t, err)

	_, err = Normalize(map[string]any{}, "")
	require.Error(t, err)
}

func TestFactoryDraftIsCenteredWithoutID(t *testing.T) {
	f := Factory{Canvas: geom.Size{Width: 800, Height: 600}}
	e := f.Shape(FormRectangle)
	assert.Empty(t, e.ID)
	assert.True(t, e.IsNew)
	assert.Equal(t, 400.0, e.Rect.CenterX())
	assert.Equal(t, 300.0, e.Rect.CenterY())
}

func TestPatchApplyIgnoresForeignVariantFields(t *testing.T) {
	f := Factory{Canvas: geom.Size{Width: 100, Height: 100}}
	shape := f.Shape(FormRectangle)
	out := Patch{Content: Ptr("nope"), BackgroundColor: Ptr("#ff0000")}.Apply(shape)
	assert.Nil(t, out.Text)
	assert.Equal(t, "#ff0000", out.Shape.BackgroundColor)
	// 原元素不变
	assert.Equal(t, "#d9d9d9", shape.Shape.BackgroundColor)
}

func TestCaptureIsExactInverse(t *testing.T) {
	f := Factory{Canvas: geom.Size{Width: 500, Height: 500}}
	e := f.Text("before")
	e.ID = "a"
	p := Patch{
		Rect:     &geom.Rect{X: 1, Y: 1, Width: 20, Height: 20},
		Content:  Ptr("after"),
		IsBold:   Ptr(true),
		Rotation: Ptr(45.0),
	}
	inverse := Capture(e, p)
	assert.Nil(t, inverse.Rotation, "与文本无关的字段不应出现在逆补丁中")

	changed := p.Apply(e)
	require.False(t, Equal(e, changed))
	restored := inverse.Apply(changed)
	assert.True(t, Equal(e, restored))
}

func TestPatchMergeLaterWins(t *testing.T) {
	a := Patch{Content: Ptr("a"), IsBold: Ptr(true)}
	b := Patch{Content: Ptr("b")}
	m := a.Merge(b)
	assert.Equal(t, "b", *m.Content)
	assert.True(t, *m.IsBold)
	assert.True(t, Patch{}.IsEmpty())
	assert.True(t, Patch{FontSize: Ptr(3.0)}.TouchesStyle())
	assert.False(t, Patch{Content: Ptr("x")}.TouchesStyle())
}

func TestDiffProducesMinimalPatch(t *testing.T) {
	f := Factory{Canvas: geom.Size{Width: 200, Height: 200}}
	a := f.Text("same")
	b := a.Clone()
	b.Rect.X += 5
	b.Text.IsItalic = true

	p := Diff(a, b)
	require.NotNil(t, p.Rect)
	require.NotNil(t, p.IsItalic)
	assert.Nil(t, p.Content)
	assert.Nil(t, p.FontSize)
	assert.True(t, Equal(b, p.Apply(a)))
	assert.True(t, Diff(a, a).IsEmpty())
}
