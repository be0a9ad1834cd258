package textfit

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultSurfaceSize 是测量表面的边长（画布单位），足以避免常见文本被裁切。
	DefaultSurfaceSize = 2000.0
	// PaddingFactor 是宽度测量附加的留白（相对字号）。
	PaddingFactor = 0.1
	// MinWidthFactor 是自动宽度的下限（相对字号）。
	MinWidthFactor = 2.0
)

// Options 配置测量引擎。
type Options struct {
	Measurer    Measurer
	PixelRatio  float64 // 设备像素比，<= 0 视为 1
	SurfaceSize float64 // <= 0 使用 DefaultSurfaceSize
}

// Engine 是文本自适应的测量核心：宽度用于自动适配，高度用于给定宽度下的折行结果。
type Engine struct {
	measurer    Measurer
	pixelRatio  float64
	surfaceSize float64
}

// NewEngine 创建测量引擎；未提供 Measurer 时使用 Heuristic。
func NewEngine(opts Options) *Engine {
	e := &Engine{
		measurer:    opts.Measurer,
		pixelRatio:  opts.PixelRatio,
		surfaceSize: opts.SurfaceSize,
	}
	if e.measurer == nil {
		e.measurer = Heuristic{}
	}
	if !(e.pixelRatio > 0) {
		e.pixelRatio = 1
	}
	if !(e.surfaceSize > 0) {
		e.surfaceSize = DefaultSurfaceSize
	}
	return e
}

// MeasureWidth 返回内容在单行排版下所需的宽度：逐行测量取最大值，加留白，不低于 2 倍字号。
// 测量失败时退化为 字符数 × 字号 × 0.6。
func (e *Engine) MeasureWidth(content string, style Style) float64 {
	style = style.normalized()
	font := style.Font()
	widest := 0.0
	for _, line := range splitLines(content) {
		w, err := e.lineWidth(e.measurer, line, font, style.LetterSpacing)
		if err != nil {
			logrus.WithField("error", err).Debug("text measurement failed, using heuristic width")
			return float64(utf8.RuneCountInString(content)) * style.FontSize * HeuristicFactor
		}
		widest = math.Max(widest, w)
	}
	width := widest + PaddingFactor*style.FontSize
	return e.snap(math.Max(width, MinWidthFactor*style.FontSize))
}

// MeasureHeight 返回内容在给定宽度下折行后的块高度：行数 × 字号 × 行高，不附加留白。
func (e *Engine) MeasureHeight(content string, width float64, style Style) float64 {
	style = style.normalized()
	lines, err := e.Wrap(content, width, style)
	if err != nil {
		logrus.WithField("error", err).Debug("text measurement failed, wrapping heuristically")
		lines, _ = wrapWith(Heuristic{}, e, content, width, style)
	}
	n := len(lines)
	if n == 0 {
		n = 1
	}
	return float64(n) * style.FontSize * style.LineHeight
}

// Wrap 使用贪心算法折行：优先在空白处断开，单个词超宽时在词内拆分，并保留显式换行。
func (e *Engine) Wrap(content string, width float64, style Style) ([]string, error) {
	return wrapWith(e.measurer, e, content, width, style.normalized())
}

func wrapWith(m Measurer, e *Engine, content string, width float64, style Style) ([]string, error) {
	limit := width
	if !(limit > 0) {
		limit = e.surfaceSize
	}
	font := style.Font()
	measure := func(s string) (float64, error) {
		return e.lineWidth(m, s, font, style.LetterSpacing)
	}

	var lines []string
	var builder strings.Builder
	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, "")
			}
			return
		}
		lines = append(lines, strings.TrimRightFunc(builder.String(), unicode.IsSpace))
		builder.Reset()
	}

	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		// 行首的空白不占宽度
		if builder.Len() == 0 && isSpaceToken(token) {
			continue
		}
		candidate, err := measure(builder.String() + token)
		if err != nil {
			return nil, err
		}
		if candidate <= limit {
			builder.WriteString(token)
			continue
		}
		if isSpaceToken(token) {
			emit(false)
			continue
		}
		tokenWidth, err := measure(token)
		if err != nil {
			return nil, err
		}
		if builder.Len() > 0 {
			emit(false)
		}
		if tokenWidth <= limit {
			builder.WriteString(token)
			continue
		}
		chunks, err := splitTokenByWidth(token, limit, measure)
		if err != nil {
			return nil, err
		}
		for i, chunk := range chunks {
			builder.WriteString(chunk)
			if i < len(chunks)-1 {
				emit(false)
			}
		}
	}
	emit(true)
	return lines, nil
}

// lineWidth = 原始字形宽度 + (字符数-1) × 字距(em) × 字号。
func (e *Engine) lineWidth(m Measurer, line string, font Font, spacingEm float64) (float64, error) {
	raw, err := m.TextWidth(line, font)
	if err != nil {
		return 0, err
	}
	if n := utf8.RuneCountInString(line); n > 1 {
		raw += float64(n-1) * spacingEm * font.Size
	}
	return raw, nil
}

// snap 将宽度向上对齐到设备像素，再换算回画布单位。
func (e *Engine) snap(w float64) float64 {
	return math.Ceil(w*e.pixelRatio-1e-9) / e.pixelRatio
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func isSpaceToken(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsSpace(r)
}

// tokenizeContent 把文本切分为交替的空白/非空白片段，显式换行单独成为 "\n"。
func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

// splitTokenByWidth 在词内按宽度拆分；每段至少包含一个字符。
func splitTokenByWidth(token string, limit float64, measure func(string) (float64, error)) ([]string, error) {
	var parts []string
	var current []rune
	for _, r := range token {
		next := append(current, r)
		w, err := measure(string(next))
		if err != nil {
			return nil, err
		}
		if w > limit && len(current) > 0 {
			parts = append(parts, string(current))
			current = []rune{r}
			continue
		}
		current = next
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts, nil
}
