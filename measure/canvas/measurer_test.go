package canvasmeasure

import (
	"testing"

	"github.com/ByLCY/vellum/textfit"
)

func TestTextWidthGrowsWithContent(t *testing.T) {
	m := New()
	font := textfit.Font{Family: "Go", Size: 16}

	short, err := m.TextWidth("hello", font)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := m.TextWidth("hello world", font)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if short <= 0 || long <= short {
		t.Fatalf("expected 0 < short < long, got short=%g long=%g", short, long)
	}
}

func TestTextWidthScalesWithFontSize(t *testing.T) {
	m := New()
	small, err := m.TextWidth("MMMM", textfit.Font{Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	big, err := m.TextWidth("MMMM", textfit.Font{Size: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratio := big / small; ratio < 1.9 || ratio > 2.1 {
		t.Fatalf("expected width to double with font size, ratio=%g", ratio)
	}
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	m := New()
	w, err := m.TextWidth("fallback", textfit.Font{Family: "No Such Family", Size: 12, Bold: true})
	if err != nil {
		t.Fatalf("expected fallback family, got error: %v", err)
	}
	if w <= 0 {
		t.Fatalf("expected positive width, got %g", w)
	}
}

func TestEmptyLineAndInvalidSize(t *testing.T) {
	m := New()
	if w, err := m.TextWidth("", textfit.Font{Size: 12}); err != nil || w != 0 {
		t.Fatalf("expected zero width for empty line, got %g (%v)", w, err)
	}
	if _, err := m.TextWidth("x", textfit.Font{}); err == nil {
		t.Fatalf("expected error for zero font size")
	}
}

// 接入测量引擎后，等宽度 + 显式换行不应产生多余空行。
func TestEngineWrapWithRealFaces(t *testing.T) {
	m := New()
	engine := textfit.NewEngine(textfit.Options{Measurer: m})
	style := textfit.Style{FontSize: 16, LineHeight: 1.2}

	first := "SAMPLE-A"
	limit, err := m.TextWidth(first, style.Font())
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	lines, err := engine.Wrap(first+"\nSAMPLE", limit, style)
	if err != nil {
		t.Fatalf("wrap error: %v", err)
	}
	if len(lines) != 2 || lines[0] != first || lines[1] != "SAMPLE" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestLineHeightScalesWithFontSize(t *testing.T) {
	m := New()
	small, err := m.LineHeight(textfit.Font{Family: "Go", Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	big, err := m.LineHeight(textfit.Font{Family: "Go", Size: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if small <= 0 {
		t.Fatalf("expected positive line height, got %g", small)
	}
	if ratio := big / small; ratio < 1.9 || ratio > 2.1 {
		t.Fatalf("expected line height to double with font size, ratio=%g", ratio)
	}
}
