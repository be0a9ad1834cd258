package element

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/vellum/geom"
)

// MinDimension 是元素宽高的下限，摄入与缩放阶段共用。
const MinDimension = 10.0

// Normalize 把松散结构的输入（历史数据、工厂产物、JSON 解码结果）规范为带类型的 Element。
// 兼容扁平的 x/y/width/height 与结构化的 rect，兼容 kind/type 两种判别字段；
// fallback 在输入未声明类型时使用。非法数值退化为默认值或最小尺寸，不会返回半成品。
func Normalize(data map[string]any, fallback Kind) (Element, error) {
	kind := fallback
	for _, key := range []string{"type", "kind"} {
		if s, ok := data[key].(string); ok && s != "" {
			k, err := ParseKind(s)
			if err != nil {
				return Element{}, err
			}
			kind = k
			// 旧数据用 kind=circle 之类表达形状形态
			if kind == KindShape {
				if _, has := data["form"]; !has && s != "shape" {
					data = withForm(data, s)
				}
			}
			break
		}
	}
	if kind == "" {
		return Element{}, fmt.Errorf("元素缺少类型字段")
	}

	e := Element{Kind: kind}
	e.ID = str(data, "id", "")
	e.Rect = readRect(data)
	e.IsNew = boolean(data, "isNew", false)
	e.IsLocked = boolean(data, "isLocked", false)
	e.IsEditable = boolean(data, "isEditable", false)
	e.ManuallyResized = boolean(data, "manuallyResized", false)

	switch kind {
	case KindText:
		t := defaultText()
		t.Content = str(data, "content", str(data, "text", t.Content))
		t.FontSize = positive(num(data, "fontSize", t.FontSize), t.FontSize)
		t.FontFamily = str(data, "fontFamily", t.FontFamily)
		t.TextAlign = normalizeAlign(str(data, "textAlign", t.TextAlign))
		t.LetterSpacing = num(data, "letterSpacing", t.LetterSpacing)
		t.LineHeight = positive(num(data, "lineHeight", t.LineHeight), t.LineHeight)
		t.IsBold = boolean(data, "isBold", t.IsBold)
		t.IsItalic = boolean(data, "isItalic", t.IsItalic)
		t.IsUnderline = boolean(data, "isUnderline", t.IsUnderline)
		t.IsStrikethrough = boolean(data, "isStrikethrough", t.IsStrikethrough)
		t.Color = str(data, "color", t.Color)
		e.Text = t
	case KindImage:
		e.Image = &ImageProps{Src: str(data, "src", ""), Alt: str(data, "alt", "")}
	case KindShape:
		s := defaultShape()
		s.Form = parseForm(str(data, "form", string(s.Form)))
		s.BackgroundColor = str(data, "backgroundColor", s.BackgroundColor)
		s.BorderColor = str(data, "borderColor", s.BorderColor)
		s.BorderWidth = math.Max(num(data, "borderWidth", s.BorderWidth), 0)
		e.Shape = s
	case KindLine, KindArrow:
		l := defaultLine()
		l.BackgroundColor = str(data, "backgroundColor", l.BackgroundColor)
		l.Rotation = num(data, "rotation", l.Rotation)
		e.Line = l
	}
	e.Rect = clampRect(e.Rect, kind)
	return e, nil
}

func withForm(data map[string]any, form string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["form"] = form
	return out
}

// readRect 优先读取结构化 rect，缺失字段再回退到扁平字段。
func readRect(data map[string]any) geom.Rect {
	var r geom.Rect
	src := data
	if nested, ok := data["rect"].(map[string]any); ok {
		src = nested
	}
	r.X = num(src, "x", num(data, "x", 0))
	r.Y = num(src, "y", num(data, "y", 0))
	r.Width = num(src, "width", num(data, "width", 0))
	r.Height = num(src, "height", num(data, "height", 0))
	return r
}

// clampRect 让尺寸满足最小值。缺失或非法的尺寸取类型默认值，过小的尺寸抬到 MinDimension；
// 线条类元素的高度可以很小，但不会为负。
func clampRect(r geom.Rect, kind Kind) geom.Rect {
	if math.IsNaN(r.X) || math.IsInf(r.X, 0) {
		r.X = 0
	}
	if math.IsNaN(r.Y) || math.IsInf(r.Y, 0) {
		r.Y = 0
	}
	def := defaultSize(kind)
	if !(r.Width > 0) || math.IsInf(r.Width, 0) {
		r.Width = def.Width
	}
	r.Width = math.Max(r.Width, MinDimension)
	if !(r.Height > 0) || math.IsInf(r.Height, 0) {
		r.Height = def.Height
	}
	if kind != KindLine && kind != KindArrow {
		r.Height = math.Max(r.Height, MinDimension)
	}
	return r
}

func normalizeAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	case "justify":
		return "justify"
	default:
		return "left"
	}
}

func str(data map[string]any, key, def string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

func num(data map[string]any, key string, def float64) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(v), "px")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(data map[string]any, key string, def bool) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func positive(v, def float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return def
}
