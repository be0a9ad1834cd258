package textfit

import (
	"unicode/utf8"

	"github.com/ByLCY/vellum/element"
)

// 该文件定义测量所需的字体描述与测量后端接口。

// Font 描述一次测量使用的字体变体，Size 为画布单位下的字号。
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// Style 是影响文本尺寸的样式集合。LetterSpacing 以 em 计，LineHeight 为字号倍数。
// 下划线、删除线与对齐方式会被接受，但不改变折行结果。
type Style struct {
	FontSize        float64
	FontFamily      string
	LetterSpacing   float64
	LineHeight      float64
	IsBold          bool
	IsItalic        bool
	IsUnderline     bool
	IsStrikethrough bool
	TextAlign       string
}

// StyleOf 从文本元素属性提取测量样式。
func StyleOf(t *element.TextProps) Style {
	if t == nil {
		return Style{FontSize: element.DefaultFontSize, LineHeight: element.DefaultLineHeight}
	}
	return Style{
		FontSize:        t.FontSize,
		FontFamily:      t.FontFamily,
		LetterSpacing:   t.LetterSpacing,
		LineHeight:      t.LineHeight,
		IsBold:          t.IsBold,
		IsItalic:        t.IsItalic,
		IsUnderline:     t.IsUnderline,
		IsStrikethrough: t.IsStrikethrough,
		TextAlign:       t.TextAlign,
	}
}

// Font 返回样式对应的字体变体。
func (s Style) Font() Font {
	return Font{Family: s.FontFamily, Size: s.FontSize, Bold: s.IsBold, Italic: s.IsItalic}
}

func (s Style) normalized() Style {
	if !(s.FontSize > 0) {
		s.FontSize = element.DefaultFontSize
	}
	if !(s.LineHeight > 0) {
		s.LineHeight = element.DefaultLineHeight
	}
	return s
}

// Measurer 是测量表面的句柄：返回单行文本的原始字形宽度（不含字距）。
type Measurer interface {
	TextWidth(line string, f Font) (float64, error)
}

// HeuristicFactor 是无法测量时每个字符的估算宽度（相对字号）。
const HeuristicFactor = 0.6

// Heuristic 是确定性的兜底测量：字符数 × 字号 × 0.6。
type Heuristic struct{}

func (Heuristic) TextWidth(line string, f Font) (float64, error) {
	return float64(utf8.RuneCountInString(line)) * f.Size * HeuristicFactor, nil
}

// MeasurerFunc 允许用普通函数充当 Measurer，便于测试替身。
type MeasurerFunc func(line string, f Font) (float64, error)

func (fn MeasurerFunc) TextWidth(line string, f Font) (float64, error) { return fn(line, f) }
