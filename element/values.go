package element

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PatchFromValues 把 key/value 形式的修改（脚本参数、HTTP 请求）转换为补丁。
// x/y/width/height 与 e 的当前矩形合并；未知键或类型不符时返回错误。
func PatchFromValues(e Element, values map[string]any) (Patch, error) {
	var p Patch
	rect := e.Rect
	touchedRect := false

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := values[key]
		var err error
		switch key {
		case "x", "y", "width", "height":
			var f float64
			if f, err = toFloat(v); err == nil {
				touchedRect = true
				switch key {
				case "x":
					rect.X = f
				case "y":
					rect.Y = f
				case "width":
					rect.Width = f
				case "height":
					rect.Height = f
				}
			}
		case "content", "text":
			p.Content, err = strPtr(v)
		case "fontSize":
			p.FontSize, err = floatPtr(v)
		case "fontFamily":
			p.FontFamily, err = strPtr(v)
		case "textAlign", "align":
			var s *string
			if s, err = strPtr(v); err == nil {
				p.TextAlign = Ptr(normalizeAlign(*s))
			}
		case "letterSpacing":
			p.LetterSpacing, err = floatPtr(v)
		case "lineHeight":
			p.LineHeight, err = floatPtr(v)
		case "isBold", "bold":
			p.IsBold, err = boolPtr(v)
		case "isItalic", "italic":
			p.IsItalic, err = boolPtr(v)
		case "isUnderline", "underline":
			p.IsUnderline, err = boolPtr(v)
		case "isStrikethrough", "strikethrough":
			p.IsStrikethrough, err = boolPtr(v)
		case "color":
			p.Color, err = strPtr(v)
		case "src":
			p.Src, err = strPtr(v)
		case "alt":
			p.Alt, err = strPtr(v)
		case "form":
			var s *string
			if s, err = strPtr(v); err == nil {
				p.Form = Ptr(parseForm(*s))
			}
		case "backgroundColor", "background":
			p.BackgroundColor, err = strPtr(v)
		case "borderColor":
			p.BorderColor, err = strPtr(v)
		case "borderWidth":
			p.BorderWidth, err = floatPtr(v)
		case "rotation":
			p.Rotation, err = floatPtr(v)
		case "isLocked", "locked":
			p.IsLocked, err = boolPtr(v)
		case "manuallyResized":
			p.ManuallyResized, err = boolPtr(v)
		default:
			err = fmt.Errorf("未知属性")
		}
		if err != nil {
			return Patch{}, fmt.Errorf("属性 %s: %w", key, err)
		}
	}
	if touchedRect {
		p.Rect = &rect
	}
	return p, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "px"), 64)
		if err != nil {
			return 0, fmt.Errorf("%q 不是数字", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%v 不是数字", v)
	}
}

func floatPtr(v any) (*float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func strPtr(v any) (*string, error) {
	switch x := v.(type) {
	case string:
		return &x, nil
	case float64, int, bool:
		s := fmt.Sprint(x)
		return &s, nil
	default:
		return nil, fmt.Errorf("%v 不是字符串", v)
	}
}

func boolPtr(v any) (*bool, error) {
	switch x := v.(type) {
	case bool:
		return &x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return nil, fmt.Errorf("%q 不是布尔值", x)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("%v 不是布尔值", v)
	}
}
