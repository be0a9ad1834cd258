package element

import (
	"fmt"
	"strings"

	"github.com/ByLCY/vellum/geom"
)

// 该文件定义元素的带标签联合类型：公共字段 + 按 Kind 区分的变体属性。

// Kind 是元素的判别字段。
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindShape Kind = "shape"
	KindLine  Kind = "line"
	KindArrow Kind = "arrow"
)

// Kinds 列出所有合法的元素类型。
var Kinds = []Kind{KindText, KindImage, KindShape, KindLine, KindArrow}

// ParseKind 解析类型字符串，兼容大小写与少量历史别名。
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "textbox", "heading":
		return KindText, nil
	case "image", "img", "photo":
		return KindImage, nil
	case "shape", "rect", "rectangle", "circle", "triangle":
		return KindShape, nil
	case "line", "divider":
		return KindLine, nil
	case "arrow":
		return KindArrow, nil
	default:
		return "", fmt.Errorf("未知的元素类型：%q", s)
	}
}

// Form 是形状元素的几何形态。
type Form string

const (
	FormRectangle Form = "rectangle"
	FormCircle    Form = "circle"
	FormTriangle  Form = "triangle"
)

func parseForm(s string) Form {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circle", "ellipse", "oval":
		return FormCircle
	case "triangle":
		return FormTriangle
	default:
		return FormRectangle
	}
}

// TextProps 是文本元素的属性。LetterSpacing 以 em 为单位，LineHeight 为字号倍数。
type TextProps struct {
	Content         string  `json:"content"`
	FontSize        float64 `json:"fontSize"`
	FontFamily      string  `json:"fontFamily"`
	TextAlign       string  `json:"textAlign"`
	LetterSpacing   float64 `json:"letterSpacing"`
	LineHeight      float64 `json:"lineHeight"`
	IsBold          bool    `json:"isBold"`
	IsItalic        bool    `json:"isItalic"`
	IsUnderline     bool    `json:"isUnderline"`
	IsStrikethrough bool    `json:"isStrikethrough"`
	Color           string  `json:"color"`
}

// ImageProps 是图片元素的属性。
type ImageProps struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// ShapeProps 是形状元素的属性。
type ShapeProps struct {
	Form            Form    `json:"form"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor"`
	BorderWidth     float64 `json:"borderWidth"`
}

// LineProps 同时用于 line 与 arrow。
type LineProps struct {
	BackgroundColor string  `json:"backgroundColor"`
	Rotation        float64 `json:"rotation"`
}

// Element 是画布上的一个矩形可视元素。
// 仅与 Kind 对应的变体指针非空；ID 在元素生命周期内不可变。
type Element struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"type"`
	Rect            geom.Rect `json:"rect"`
	IsNew           bool      `json:"isNew"`
	IsLocked        bool      `json:"isLocked"`
	IsEditable      bool      `json:"isEditable"`
	ManuallyResized bool      `json:"manuallyResized,omitempty"`

	Text  *TextProps  `json:"-"`
	Image *ImageProps `json:"-"`
	Shape *ShapeProps `json:"-"`
	Line  *LineProps  `json:"-"`
}

// Clone 深拷贝元素（包括变体属性）。
func (e Element) Clone() Element {
	out := e
	if e.Text != nil {
		t := *e.Text
		out.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		out.Image = &i
	}
	if e.Shape != nil {
		s := *e.Shape
		out.Shape = &s
	}
	if e.Line != nil {
		l := *e.Line
		out.Line = &l
	}
	return out
}

// FixedAspect 报告元素是否只能等比缩放（例如圆形）。
func (e Element) FixedAspect() bool {
	return e.Kind == KindShape && e.Shape != nil && e.Shape.Form == FormCircle
}

// EnsureVariant 保证与 Kind 对应的变体属性存在，并清除不相关的变体。
func (e *Element) EnsureVariant() {
	switch e.Kind {
	case KindText:
		if e.Text == nil {
			e.Text = defaultText()
		}
		e.Image, e.Shape, e.Line = nil, nil, nil
	case KindImage:
		if e.Image == nil {
			e.Image = &ImageProps{}
		}
		e.Text, e.Shape, e.Line = nil, nil, nil
	case KindShape:
		if e.Shape == nil {
			e.Shape = defaultShape()
		}
		e.Text, e.Image, e.Line = nil, nil, nil
	case KindLine, KindArrow:
		if e.Line == nil {
			e.Line = defaultLine()
		}
		e.Text, e.Image, e.Shape = nil, nil, nil
	}
}

// Equal 比较两个元素的全部字段（包括变体属性的值）。
func Equal(a, b Element) bool {
	if a.ID != b.ID || a.Kind != b.Kind || a.Rect != b.Rect ||
		a.IsNew != b.IsNew || a.IsLocked != b.IsLocked || a.IsEditable != b.IsEditable ||
		a.ManuallyResized != b.ManuallyResized {
		return false
	}
	return eqPtr(a.Text, b.Text) && eqPtr(a.Image, b.Image) && eqPtr(a.Shape, b.Shape) && eqPtr(a.Line, b.Line)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
