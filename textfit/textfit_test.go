package textfit

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/clock"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// stubMeasurer 使用等宽模型：每个字符宽度为字号的一半。
type stubMeasurer struct {
	calls int
}

func (s *stubMeasurer) TextWidth(line string, f Font) (float64, error) {
	s.calls++
	return float64(utf8.RuneCountInString(line)) * f.Size * 0.5, nil
}

type failingMeasurer struct{}

func (failingMeasurer) TextWidth(string, Font) (float64, error) {
	return 0, errors.New("surface unavailable")
}

func style(size float64) Style {
	return Style{FontSize: size, LineHeight: 1.2}
}

func TestMeasureWidthAddsPaddingAndTakesWidestLine(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	assert.InDelta(t, 52, e.MeasureWidth("hello", style(20)), 1e-9)
	assert.InDelta(t, 62, e.MeasureWidth("ab\nabcdef", style(20)), 1e-9)
}

func TestMeasureWidthLetterSpacing(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	s := style(20)
	s.LetterSpacing = 0.1
	// 50 + 4*0.1*20 + 2
	assert.InDelta(t, 60, e.MeasureWidth("hello", s), 1e-9)
}

func TestMeasureWidthFloor(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	assert.InDelta(t, 40, e.MeasureWidth("a", style(20)), 1e-9)
	assert.InDelta(t, 40, e.MeasureWidth("", style(20)), 1e-9)
}

func TestMeasureWidthSnapsToDevicePixels(t *testing.T) {
	m := MeasurerFunc(func(string, Font) (float64, error) { return 30.3, nil })
	e := NewEngine(Options{Measurer: m, PixelRatio: 2})
	// 30.3 + 1 = 31.3 → 62.6 设备像素 → 63 → 31.5
	assert.InDelta(t, 31.5, e.MeasureWidth("x", style(10)), 1e-9)
}

func TestMeasureWidthFallsBackToHeuristic(t *testing.T) {
	e := NewEngine(Options{Measurer: failingMeasurer{}})
	assert.InDelta(t, 60, e.MeasureWidth("hello", style(20)), 1e-9)
}

func TestMeasureHeightWrapsAtWhitespace(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	lines, err := e.Wrap("hello world", 60, style(20))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, lines)
	assert.InDelta(t, 48, e.MeasureHeight("hello world", 60, style(20)), 1e-9)
}

func TestWrapSplitsLongWords(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	lines, err := e.Wrap("abcdefghij", 30, style(20))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "ghi", "j"}, lines)
}

func TestWrapHonorsExplicitBreaks(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	lines, err := e.Wrap("a\n\nb", 500, style(20))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func TestMeasureHeightFallbackWraps(t *testing.T) {
	e := NewEngine(Options{Measurer: failingMeasurer{}})
	// 启发式：每字符 12，宽度 60 只容纳 5 个字符
	assert.InDelta(t, 48, e.MeasureHeight("hello world", 60, style(20)), 1e-9)
}

func TestDecorationsDoNotChangeWrapping(t *testing.T) {
	e := NewEngine(Options{Measurer: &stubMeasurer{}})
	plain := e.MeasureHeight("the quick brown fox", 80, style(20))
	decorated := style(20)
	decorated.IsUnderline = true
	decorated.IsStrikethrough = true
	decorated.TextAlign = "center"
	assert.Equal(t, plain, e.MeasureHeight("the quick brown fox", 80, decorated))
}

func newTextElement(rect geom.Rect) element.Element {
	e := element.Factory{}.Text("")
	e.ID = "t1"
	e.Rect = rect
	e.Text.FontSize = 20
	e.Text.LineHeight = 1.2
	return e
}

func TestFitterRecentersWhenAutoFitting(t *testing.T) {
	f := NewFitter(NewEngine(Options{Measurer: &stubMeasurer{}}), FitterOptions{Clock: clock.NewManual(time.Time{})})
	e := newTextElement(geom.Rect{X: 100, Y: 10, Width: 100, Height: 24})

	p := f.OnContentChange(e, "hello")
	require.NotNil(t, p.Rect)
	assert.Equal(t, "hello", *p.Content)
	assert.InDelta(t, 52, p.Rect.Width, 1e-9)
	assert.InDelta(t, 124, p.Rect.X, 1e-9)
	assert.InDelta(t, 24, p.Rect.Height, 1e-9)
	// 中心保持不变
	assert.InDelta(t, e.Rect.CenterX(), p.Rect.CenterX(), 1e-9)
}

func TestFitterKeepsManualWidth(t *testing.T) {
	f := NewFitter(NewEngine(Options{Measurer: &stubMeasurer{}}), FitterOptions{Clock: clock.NewManual(time.Time{})})
	e := newTextElement(geom.Rect{X: 0, Y: 0, Width: 300, Height: 24})
	e.ManuallyResized = true

	// 单行约 390 宽，超出 300
	content := "aaaa aaaa aaaa aaaa aaaa aaaa aaaa aaaa"
	p := f.OnContentChange(e, content)
	require.NotNil(t, p.Rect)
	assert.Equal(t, 300.0, p.Rect.Width)
	assert.Equal(t, 0.0, p.Rect.X)
	assert.InDelta(t, 48, p.Rect.Height, 1e-9)
}

func TestFitterCooldownAfterResize(t *testing.T) {
	clk := clock.NewManual(time.Time{})
	f := NewFitter(NewEngine(Options{Measurer: &stubMeasurer{}}), FitterOptions{Clock: clk})
	e := newTextElement(geom.Rect{X: 0, Y: 0, Width: 300, Height: 24})

	f.ResizeStarted(e.ID)
	assert.True(t, f.Suppressed(e))
	f.ResizeEnded(e.ID, clk.Now())

	clk.Advance(1500 * time.Millisecond)
	p := f.OnContentChange(e, "hi")
	assert.Nil(t, p.Rect, "冷却期内宽度保持，高度未变时不产生几何补丁")

	clk.Advance(500 * time.Millisecond)
	assert.False(t, f.Suppressed(e))
	p = f.OnContentChange(e, "hi")
	require.NotNil(t, p.Rect)
	assert.InDelta(t, 40, p.Rect.Width, 1e-9)
}

func TestFitterStyleChangeRemeasures(t *testing.T) {
	f := NewFitter(NewEngine(Options{Measurer: &stubMeasurer{}}), FitterOptions{Clock: clock.NewManual(time.Time{})})
	e := newTextElement(geom.Rect{X: 0, Y: 0, Width: 52, Height: 24})
	e.Text.Content = "hello"

	p := f.OnStyleChange(e, element.Patch{FontSize: element.Ptr(40.0)})
	require.NotNil(t, p.Rect)
	assert.Equal(t, 40.0, *p.FontSize)
	assert.InDelta(t, 104, p.Rect.Width, 1e-9)
	assert.InDelta(t, 48, p.Rect.Height, 1e-9)
}

func TestFitterIgnoresNonText(t *testing.T) {
	f := NewFitter(nil, FitterOptions{})
	shape := element.Factory{}.Shape(element.FormRectangle)
	p := f.OnStyleChange(shape, element.Patch{BackgroundColor: element.Ptr("#fff")})
	assert.Nil(t, p.Rect)
}
